package ook

import "math"

// BiquadFilter 表示一个二阶 IIR 滤波器节，级联组成高阶滤波器
type BiquadFilter struct {
	a0, a1, a2, b1, b2 float64
	z1, z2             float64
}

// Process 处理单个采样点
func (f *BiquadFilter) Process(in float64) float64 {
	out := in*f.a0 + f.z1
	f.z1 = in*f.a1 - out*f.b1 + f.z2
	f.z2 = in*f.a2 - out*f.b2
	return out
}

// ButterworthFilter 由多个 Biquad 节级联组成的巴特沃斯低通滤波器
// 基带前端用它限制 I/Q 支路的接收带宽
type ButterworthFilter struct {
	sections []*BiquadFilter
}

// NewButterworthLowpass 创建 N 阶巴特沃斯低通滤波器
// order 必须是偶数；cutoffFreq 接近奈奎斯特时会被钳位以保持数值稳定
func NewButterworthLowpass(order int, sampleRate, cutoffFreq float64) *ButterworthFilter {
	if order%2 != 0 {
		panic("Butterworth filter order must be even")
	}

	if cutoffFreq >= sampleRate*0.499 {
		cutoffFreq = sampleRate * 0.499
	}

	sections := make([]*BiquadFilter, order/2)

	// 双线性变换：先预畸变截止频率
	w := 2.0 * sampleRate * math.Tan(math.Pi*cutoffFreq/sampleRate)

	for i := 0; i < order/2; i++ {
		// 级联顺序取 Low Q -> High Q，用倒序索引计算极点
		poleIdx := (order/2 - 1) - i

		theta := math.Pi * (2.0*float64(poleIdx) + 1.0) / (2.0 * float64(order))

		pRe := -w * math.Sin(theta)
		pIm := w * math.Cos(theta)

		// 分母 z^0 系数: K^2 - 2*K*p_re + |p|^2 (p_re 为负，故第二项为正)
		alpha := 4.0*sampleRate*sampleRate - 4.0*sampleRate*pRe + pRe*pRe + pIm*pIm

		b1 := (-8.0*sampleRate*sampleRate + 2.0*(pRe*pRe+pIm*pIm)) / alpha
		b2 := (4.0*sampleRate*sampleRate + 4.0*sampleRate*pRe + pRe*pRe + pIm*pIm) / alpha

		a0 := (w * w) / alpha
		a1 := (2.0 * w * w) / alpha
		a2 := (w * w) / alpha

		sections[i] = &BiquadFilter{
			a0: a0, a1: a1, a2: a2,
			b1: b1, b2: b2,
		}
	}

	return &ButterworthFilter{sections: sections}
}

// Process 处理单个采样点，依次通过所有级联节
func (f *ButterworthFilter) Process(in float64) float64 {
	out := in
	for _, s := range f.sections {
		out = s.Process(out)
	}
	return out
}
