package ook

// FSK 子检测算法选择
const (
	FSK_PULSE_DETECT_OLD = 0 // classic: 双滚动频率估计 + 最近邻分类
	FSK_PULSE_DETECT_NEW = 1 // minmax: 跟踪近期极值，按中点分类
)

type fskState int

const (
	fskStateInit fskState = iota // 初始频率估计尚未收敛
	fskStateF1                   // 当前处于 f1 段
	fskStateF2                   // 当前处于 f2 段
)

// pulseDetectFSK 在一个 OOK 长脉冲内部检测 f1/f2 频率切换，
// 把子脉冲宽度写入独立的 PulseData（Pulse = f1 段，Gap = f2 段）
// 只在突发的第一个 OOK 脉冲期间被喂入 FM 采样
type pulseDetectFSK struct {
	state       fskState
	pulseLength int // 当前子脉冲已持续的采样数

	fmF1Est int
	fmF2Est int

	// minmax 模式的极值跟踪
	fmMaxEst int
	fmMinEst int
}

func (s *pulseDetectFSK) init() {
	*s = pulseDetectFSK{}
}

func iabs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// classic 按与 f1/f2 滚动估计的距离对 FM 采样分类
// 分类翻转时写出子脉冲宽度并复位计数器；短于 PD_MIN_PULSE_SAMPLES
// 的翻转视为噪声，吸收进当前段
func (s *pulseDetectFSK) classic(fmN int16, fskPulses *PulseData) {
	n := int(fmN)
	s.pulseLength++

	switch s.state {
	case fskStateInit:
		// 初始样本可能落在边沿上，用快速估计器先收敛 f1
		s.fmF1Est = s.fmF1Est/2 + n/2
		if s.pulseLength > PD_MIN_PULSE_SAMPLES {
			s.state = fskStateF1
		}

	case fskStateF1:
		f1Delta := iabs(n - s.fmF1Est)
		f2Delta := iabs(n - s.fmF2Est)
		if f2Delta < f1Delta {
			if s.pulseLength >= PD_MIN_PULSE_SAMPLES {
				if fskPulses.NumPulses < PD_MAX_PULSES {
					fskPulses.Pulse[fskPulses.NumPulses] = s.pulseLength
				}
				s.pulseLength = 0
				if s.fmF2Est == 0 {
					s.fmF2Est = n // 第一次翻转时直接点火 f2 估计
				}
				s.state = fskStateF2
			} else if fskPulses.NumPulses > 0 {
				// 这段 f1 是毛刺：并回前一个 f2 段
				fskPulses.NumPulses--
				s.pulseLength += fskPulses.Gap[fskPulses.NumPulses]
				s.state = fskStateF2
			}
			// 没有前一段可并时忽略这个采样
		} else {
			// 继续 f1：慢速跟踪
			s.fmF1Est += n/OOK_EST_HIGH_RATIO - s.fmF1Est/OOK_EST_HIGH_RATIO
		}

	case fskStateF2:
		f1Delta := iabs(n - s.fmF1Est)
		f2Delta := iabs(n - s.fmF2Est)
		if f1Delta < f2Delta {
			if s.pulseLength >= PD_MIN_PULSE_SAMPLES {
				if fskPulses.NumPulses < PD_MAX_PULSES {
					fskPulses.Gap[fskPulses.NumPulses] = s.pulseLength
					fskPulses.NumPulses++
				}
				s.pulseLength = 0
				s.state = fskStateF1
			} else {
				// 这段 f2 是毛刺：并回挂着的 f1 段
				s.pulseLength += fskPulses.Pulse[fskPulses.NumPulses]
				s.state = fskStateF1
			}
		} else {
			s.fmF2Est += n/OOK_EST_HIGH_RATIO - s.fmF2Est/OOK_EST_HIGH_RATIO
		}
	}
}

// wrapUp 收尾：把 classic 模式下还挂着的子脉冲冲刷进记录
func (s *pulseDetectFSK) wrapUp(fskPulses *PulseData) {
	if fskPulses.NumPulses >= PD_MAX_PULSES {
		return
	}
	switch s.state {
	case fskStateF1:
		fskPulses.Pulse[fskPulses.NumPulses] = s.pulseLength
		fskPulses.Gap[fskPulses.NumPulses] = 0
		fskPulses.NumPulses++
	case fskStateF2:
		fskPulses.Gap[fskPulses.NumPulses] = s.pulseLength
		fskPulses.NumPulses++
	}
}

// minmax 跟踪近期 FM 采样的最大/最小包络，按中点加迟滞分类
// 比 classic 简单，不需要收尾
func (s *pulseDetectFSK) minmax(fmN int16, fskPulses *PulseData) {
	n := int(fmN)
	s.pulseLength++

	if s.state == fskStateInit && s.pulseLength == 1 {
		s.fmMaxEst = n
		s.fmMinEst = n
	}

	// 极值跟踪：立即吸附新极值，否则向中点非常缓慢地收拢
	mid := (s.fmMaxEst + s.fmMinEst) / 2
	if n > s.fmMaxEst {
		s.fmMaxEst = n
	} else {
		s.fmMaxEst -= (s.fmMaxEst - mid) / OOK_EST_LOW_RATIO
	}
	if n < s.fmMinEst {
		s.fmMinEst = n
	} else {
		s.fmMinEst += (mid - s.fmMinEst) / OOK_EST_LOW_RATIO
	}

	// 上报给收包逻辑的估计直接取极值
	s.fmF1Est = s.fmMaxEst
	s.fmF2Est = s.fmMinEst

	hysteresis := (s.fmMaxEst - s.fmMinEst) / 8

	switch s.state {
	case fskStateInit:
		if s.pulseLength > PD_MIN_PULSE_SAMPLES {
			if n >= mid {
				s.state = fskStateF1
			} else {
				s.state = fskStateF2
			}
		}

	case fskStateF1:
		if n < mid-hysteresis {
			if s.pulseLength >= PD_MIN_PULSE_SAMPLES {
				if fskPulses.NumPulses < PD_MAX_PULSES {
					fskPulses.Pulse[fskPulses.NumPulses] = s.pulseLength
				}
				s.pulseLength = 0
				s.state = fskStateF2
			}
		}

	case fskStateF2:
		if n > mid+hysteresis {
			if s.pulseLength >= PD_MIN_PULSE_SAMPLES {
				if fskPulses.NumPulses < PD_MAX_PULSES {
					fskPulses.Gap[fskPulses.NumPulses] = s.pulseLength
					fskPulses.NumPulses++
				}
				s.pulseLength = 0
				s.state = fskStateF1
			}
		}
	}
}
