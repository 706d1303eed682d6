package Filters

import "math"

// PeakFollower 双路包络跟踪器：同时跟踪信号顶部和底部的包络
// 高于峰值时按 attack 系数快速吸附（捕捉上升沿），
// 否则按 release 系数做乘性衰减（在信号间隙缓慢向零泄漏）
// 低谷对称处理。release 略小于 1 时，峰值约在 1/(1-release) 个采样内泄漏归零
type PeakFollower struct {
	attackRate  float64
	releaseRate float64

	currentHighPeak float64
	currentLowPeak  float64

	// 静噪底限：|高峰值| 低于此值时上报 high = 0，表示无有效包络
	minVal float64
}

// dbToLinear 把 dB 值换算为 16 位线性幅度 <0; 32767>
func dbToLinear(db float64) float64 {
	return float64(int16(math.Pow(10.0, db/20.0) * 32767.0))
}

// NewPeakFollower 创建峰值跟踪器
// attackRate/releaseRate 必须在 (0,1) 内；minDB > 0 时静默钳位到 0
func NewPeakFollower(attackRate, releaseRate float64, minDB int) *PeakFollower {
	if attackRate <= 0 || attackRate >= 1 || releaseRate <= 0 || releaseRate >= 1 {
		panic("peak follower attack/release rate must be in (0, 1)")
	}
	if minDB > 0 {
		minDB = 0
	}
	return &PeakFollower{
		attackRate:  attackRate,
		releaseRate: releaseRate,
		minVal:      dbToLinear(float64(minDB)),
	}
}

// Process 输入一个采样，返回当前的高/低包络估计
// 注意门限是单边的：low 始终直接上报，只有 high 会被静噪归零。
// 下游 AM 引擎依赖 high == 0 作为"无信号"标记，不要对称化
func (pf *PeakFollower) Process(sample int16) (high, low int16) {
	fsample := float64(sample)

	if fsample > pf.currentHighPeak {
		pf.currentHighPeak = pf.attackRate*pf.currentHighPeak + (1-pf.attackRate)*fsample
	} else {
		pf.currentHighPeak = pf.releaseRate * pf.currentHighPeak
	}

	if fsample < pf.currentLowPeak {
		pf.currentLowPeak = pf.attackRate*pf.currentLowPeak + (1-pf.attackRate)*fsample
	} else {
		pf.currentLowPeak = pf.releaseRate * pf.currentLowPeak
	}

	low = int16(math.Round(pf.currentLowPeak))

	if math.Abs(pf.currentHighPeak) < pf.minVal {
		return 0, low
	}
	return int16(math.Round(pf.currentHighPeak)), low
}
