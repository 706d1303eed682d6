package ook

import (
	"math"
	"testing"
)

func TestBasebandDemodulator_Envelope(t *testing.T) {
	demod := NewBasebandDemodulator(250000, 100000)

	// 幅度 0.5 的复正弦：包络应收敛到 0.5 * 16384 = 8192
	var sum float64
	count := 0
	for k := 0; k < 1000; k++ {
		phase := 2 * math.Pi * 2000 * float64(k) / 250000
		am, _ := demod.Process(0.5*math.Cos(phase), 0.5*math.Sin(phase))
		if k >= 500 {
			sum += float64(am)
			count++
		}
	}
	avg := sum / float64(count)
	if avg < 7500 || avg > 8900 {
		t.Errorf("expected envelope near 8192, got %.0f", avg)
	}
}

func TestBasebandDemodulator_FMSign(t *testing.T) {
	demod := NewBasebandDemodulator(250000, 100000)

	// 正频偏: FM 输出为正
	var sumPos float64
	phase := 0.0
	for k := 0; k < 800; k++ {
		phase += 2 * math.Pi * 2000 / 250000
		_, fm := demod.Process(0.5*math.Cos(phase), 0.5*math.Sin(phase))
		if k >= 200 {
			sumPos += float64(fm)
		}
	}
	if sumPos/600 < 100 {
		t.Errorf("expected positive fm for positive shift, got avg %.0f", sumPos/600)
	}

	// 切到负频偏: FM 输出变负
	// 直流阻断窗口为 1024 个采样，持续的固定频偏之后会被扣成 0，
	// 所以在窗口内取平均
	var sumNeg float64
	for k := 0; k < 1500; k++ {
		phase -= 2 * math.Pi * 2000 / 250000
		_, fm := demod.Process(0.5*math.Cos(phase), 0.5*math.Sin(phase))
		if k >= 200 && k < 500 {
			sumNeg += float64(fm)
		}
	}
	if sumNeg/300 > -100 {
		t.Errorf("expected negative fm for negative shift, got avg %.0f", sumNeg/300)
	}
}

func TestBasebandDemodulator_BufferAlignment(t *testing.T) {
	demod := NewBasebandDemodulator(250000, 100000)

	iSamples := make([]float32, 256)
	qSamples := make([]float32, 256)
	for k := range iSamples {
		phase := 2 * math.Pi * 1000 * float64(k) / 250000
		iSamples[k] = float32(0.3 * math.Cos(phase))
		qSamples[k] = float32(0.3 * math.Sin(phase))
	}

	envelope, fm := demod.ProcessBuffer(iSamples, qSamples)
	if len(envelope) != 256 || len(fm) != 256 {
		t.Fatalf("expected aligned 256-sample streams, got %d/%d", len(envelope), len(fm))
	}
}
