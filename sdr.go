package ook

import (
	"math"

	"ook/Filters"
)

// BasebandDemodulator 把复基带 I/Q 流转换成检测器需要的两条对齐流：
// AM 包络（模量，16384 满刻度）和 FM 鉴频输出（极坐标鉴频）
// FM 支路过一个直流阻断器，去掉载波失谐造成的固定偏置
type BasebandDemodulator struct {
	sampleRate float64

	lpfI *ButterworthFilter
	lpfQ *ButterworthFilter

	fmDC *Filters.DCBlocker

	prevI float64
	prevQ float64
}

// NewBasebandDemodulator 创建基带解调器
// filterBW: I/Q 低通截止频率 (Hz)，接收带宽约为 2 倍截止频率
func NewBasebandDemodulator(sampleRate, filterBW float64) *BasebandDemodulator {
	return &BasebandDemodulator{
		sampleRate: sampleRate,
		lpfI:       NewButterworthLowpass(4, sampleRate, filterBW),
		lpfQ:       NewButterworthLowpass(4, sampleRate, filterBW),
		fmDC:       Filters.NewDCBlocker(1024),
	}
}

// Process 处理一个 I/Q 采样，返回 (包络, FM) 采样对
func (s *BasebandDemodulator) Process(i, q float64) (am, fm int16) {
	// 1. 限带
	fi := s.lpfI.Process(i)
	fq := s.lpfQ.Process(q)

	// 2. 包络：模量换算到 16384 满刻度
	mag := math.Sqrt(fi*fi+fq*fq) * 16384.0
	if mag > 32767 {
		mag = 32767
	}
	am = int16(mag)

	// 3. 极坐标鉴频：当前采样乘前一采样的共轭，辐角即瞬时相位差
	re := fi*s.prevI + fq*s.prevQ
	im := fq*s.prevI - fi*s.prevQ
	phase := math.Atan2(im, re)
	s.prevI = fi
	s.prevQ = fq

	// 相位差归一化到 16 位，再去直流
	fm = s.fmDC.Filter(int16(phase / math.Pi * 32767.0))

	return am, fm
}

// ProcessBuffer 处理一整块 I/Q 数据，返回两条对齐的 int16 流
func (s *BasebandDemodulator) ProcessBuffer(iSamples, qSamples []float32) (envelope, fm []int16) {
	n := len(iSamples)
	if len(qSamples) < n {
		n = len(qSamples)
	}
	envelope = make([]int16, n)
	fm = make([]int16, n)
	for k := 0; k < n; k++ {
		envelope[k], fm[k] = s.Process(float64(iSamples[k]), float64(qSamples[k]))
	}
	return envelope, fm
}
