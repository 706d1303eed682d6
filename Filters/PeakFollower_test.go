package Filters

import (
	"math"
	"testing"
)

func TestPeakFollower_AttackAndDecay(t *testing.T) {
	pf := NewPeakFollower(0.05, 0.99999, -20)

	// 第一个采样：attack 阶段，峰值跳到 (1-0.05)*20000 = 19000
	high, low := pf.Process(20000)
	if high != 19000 {
		t.Errorf("attack: expected high 19000, got %d", high)
	}
	if low != 0 {
		t.Errorf("attack: expected low 0, got %d", low)
	}

	// 持续输入：峰值收敛到输入值附近
	for i := 0; i < 200; i++ {
		high, _ = pf.Process(20000)
	}
	if high < 19990 || high > 20000 {
		t.Errorf("converge: expected high near 20000, got %d", high)
	}

	// 静默一段：乘性衰减，但还不到底限
	for i := 0; i < 1000; i++ {
		high, _ = pf.Process(0)
	}
	expected := 20000.0 * math.Pow(0.99999, 1000)
	if math.Abs(float64(high)-expected) > 50 {
		t.Errorf("decay: expected high near %.0f, got %d", expected, high)
	}
}

func TestPeakFollower_SilenceGate(t *testing.T) {
	pf := NewPeakFollower(0.05, 0.99999, -20)

	for i := 0; i < 100; i++ {
		pf.Process(20000)
	}

	// minVal = 10^(-20/20)*32767 ≈ 3276
	// 衰减到底限以下所需采样数: log(minVal/peak)/log(release)
	needed := int(math.Log(3276.0/20000.0)/math.Log(0.99999)) + 100

	var high, low int16
	for i := 0; i < needed; i++ {
		high, low = pf.Process(0)
	}
	if high != 0 {
		t.Errorf("expected high gated to 0 after %d silent samples, got %d", needed, high)
	}
	// 门限是单边的：low 照常上报
	_ = low
}

func TestPeakFollower_LowTracking(t *testing.T) {
	pf := NewPeakFollower(0.05, 0.99999, -20)

	var low int16
	for i := 0; i < 200; i++ {
		_, low = pf.Process(-15000)
	}
	if low > -14900 {
		t.Errorf("expected low near -15000, got %d", low)
	}
}

func TestPeakFollower_ClampsPositiveMinDB(t *testing.T) {
	// mindB > 0 应被静默钳位到 0 (minVal = 32767)
	pf := NewPeakFollower(0.05, 0.9, 10)
	high, _ := pf.Process(20000)
	if high != 0 {
		t.Errorf("expected high gated with clamped mindB=0, got %d", high)
	}
}

func TestPeakFollower_RejectsBadRates(t *testing.T) {
	for _, rates := range [][2]float64{{0, 0.5}, {1, 0.5}, {0.5, 0}, {0.5, 1}, {-0.1, 0.5}, {0.5, 1.5}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for rates %v", rates)
				}
			}()
			NewPeakFollower(rates[0], rates[1], -20)
		}()
	}
}
