package ook

import (
	"fmt"
	"math"
	"os"

	"ook/Filters"
)

// OOK 自适应电平估计常量
var (
	OOK_MAX_HIGH_LEVEL = dbToAmp(0)   // 高电平估计的上限 (0 dB)
	OOK_MAX_LOW_LEVEL  = dbToAmp(-15) // 低电平估计的上限
)

const (
	OOK_EST_HIGH_RATIO = 64   // OOK 高电平估计器的惰性系数
	OOK_EST_LOW_RATIO  = 1024 // OOK 低电平（底噪）估计器的惰性系数，非常慢
	MIN_DB             = -20  // 峰值跟踪器接受的最小信号强度 (dB)。设得太低会拾取过多噪声，妨碍 FSK 锁定
)

type ookState int

const (
	ookStateIdle ookState = iota
	ookStatePulse
	ookStateGapStart
	ookStateGap
)

// PulseDetector 从一对对齐的基带流（AM 包络 + FM 鉴频输出）中解调 OOK，
// 并在长 OOK 脉冲内部检测 FSK 子脉冲，按包输出脉冲/间隔记录。
// 单线程使用：实例持有可变状态，同一时刻只允许一个调用方
type PulseDetector struct {
	// 电平配置
	useMagEst         bool // 包络数据是幅度流还是模量流
	ookFixedHighLevel int  // 手动检测电平覆盖，0 = 自动
	ookMinHighLevel   int  // 高电平估计的下限
	ookHighLowRatio   int  // 高电平与底噪的默认比值

	ookState    ookState
	pulseLength int // 内部脉冲/间隔计数器
	maxPulse    int // 本包内检出的最大脉冲宽度

	dataCounter   int // 当前输入缓冲区已消费的采样数
	leadInCounter int // 等待初始底噪估计收敛的计数器

	ookLowEstimate  int // 包络底噪电平估计
	ookHighEstimate int // 包络高电平估计

	// 脉冲毛刺触发的收包标记。
	// 做成字段而不是局部变量，保证跨缓冲区切分时行为一致
	eopOnSpurious bool

	verbosity int // 0=安静, 1=电平, 2=直方图, 3=含未收包直方图

	fsk pulseDetectFSK

	medianFilter    *Filters.MedianFilter
	peakFollower    *Filters.PeakFollower
	peakFollowerFM  *Filters.PeakFollower
	usePeakFollower bool

	// 解码方波的保持电平（调试输出）
	outAM int16
	outFM int16

	debugger SignalDebugger

	// 可选的调试转储；为 nil 时写入是空操作
	dumpDir        string
	dumpEnabled    bool
	dumpAMDemod    *WavDumper
	dumpFMDemod    *WavDumper
	dumpAMPeakHigh *WavDumper
	dumpAMPeakLow  *WavDumper
	dumpAMDecoded  *WavDumper
	dumpFMDecoded  *WavDumper
}

// NewPulseDetector 创建检测器，电平配置为默认值
func NewPulseDetector() *PulseDetector {
	d := &PulseDetector{
		medianFilter:    Filters.NewMedianFilter(15),
		peakFollower:    Filters.NewPeakFollower(0.05, 0.99999, MIN_DB),
		peakFollowerFM:  Filters.NewPeakFollower(0.05, 0.99999, MIN_DB),
		usePeakFollower: true,
	}
	d.SetLevels(false, 0.0, -12.1442, 9.0, 0)
	return d
}

// SetLevels 配置检测电平
// fixedHighDB 为负时启用手动阈值覆盖，零或正值关闭；覆盖只在经典阈值模式下生效
// 电平按 useMagEst 用幅度或模量映射从 dB 换算
func (d *PulseDetector) SetLevels(useMagEst bool, fixedHighDB, minHighDB, highLowRatioDB float64, verbosity int) {
	d.useMagEst = useMagEst
	if useMagEst {
		if fixedHighDB < 0.0 {
			d.ookFixedHighLevel = dbToMag(fixedHighDB)
		} else {
			d.ookFixedHighLevel = 0
		}
		d.ookMinHighLevel = dbToMag(minHighDB)
		d.ookHighLowRatio = int(math.Pow(10.0, highLowRatioDB/20.0))
	} else {
		if fixedHighDB < 0.0 {
			d.ookFixedHighLevel = dbToAmp(fixedHighDB)
		} else {
			d.ookFixedHighLevel = 0
		}
		d.ookMinHighLevel = dbToAmp(minHighDB)
		d.ookHighLowRatio = int(math.Pow(10.0, highLowRatioDB/10.0))
	}
	d.verbosity = verbosity
}

// SetUsePeakFollower 在峰值跟踪阈值和经典电平估计阈值之间切换
func (d *PulseDetector) SetUsePeakFollower(enabled bool) {
	d.usePeakFollower = enabled
}

// SetDebugger 挂接逐采样信号调试器，传 nil 关闭
func (d *PulseDetector) SetDebugger(dbg SignalDebugger) {
	d.debugger = dbg
}

// EnableDump 开启调试转储：在 dir 下为六路信号各写一个 WAV 文件
// 文件在第一次 Detect 时按输入采样率惰性创建；创建失败的那一路保持关闭
func (d *PulseDetector) EnableDump(dir string) {
	d.dumpDir = dir
	d.dumpEnabled = true
}

// Close 关闭所有调试转储（回写 WAV 头）
func (d *PulseDetector) Close() {
	d.dumpAMDemod.Close()
	d.dumpFMDemod.Close()
	d.dumpAMPeakHigh.Close()
	d.dumpAMPeakLow.Close()
	d.dumpAMDecoded.Close()
	d.dumpFMDecoded.Close()
	d.dumpAMDemod = nil
	d.dumpFMDemod = nil
	d.dumpAMPeakHigh = nil
	d.dumpAMPeakLow = nil
	d.dumpAMDecoded = nil
	d.dumpFMDecoded = nil
}

// createDumps 惰性创建调试转储，任何一路失败都不影响检测
func (d *PulseDetector) createDumps(sampRate uint32) {
	open := func(name string) *WavDumper {
		w, err := NewWavDumper(d.dumpDir+"/"+name, sampRate, 4096)
		if err != nil {
			fmt.Fprintf(os.Stderr, "dump disabled (%s): %v\n", name, err)
			return nil
		}
		return w
	}
	if d.dumpAMDemod == nil {
		d.dumpAMDemod = open("dump.wav")
	}
	if d.dumpFMDemod == nil {
		d.dumpFMDemod = open("dump_fm.wav")
	}
	if d.dumpAMPeakHigh == nil {
		d.dumpAMPeakHigh = open("dump_peak_high.wav")
	}
	if d.dumpAMPeakLow == nil {
		d.dumpAMPeakLow = open("dump_peak_low.wav")
	}
	if d.dumpAMDecoded == nil {
		d.dumpAMDecoded = open("dump_am_decoded.wav")
	}
	if d.dumpFMDecoded == nil {
		d.dumpFMDecoded = open("dump_fm_decoded.wav")
	}
}

// att 按流类型把电平换算为衰减值
func (d *PulseDetector) att(level int) int {
	if d.useMagEst {
		return MagToAtt(level)
	}
	return AmpToAtt(level)
}

func (d *PulseDetector) printLevels(thrHi, thrLo int) {
	fmt.Fprintf(os.Stderr, "Levels low: -%d dB  high: -%d dB  thres_hi: -%d dB  thres_lo: -%d dB\n",
		d.att(d.ookLowEstimate), d.att(d.ookHighEstimate), d.att(thrHi), d.att(thrLo))
}

// Detect 消费一对对齐的包络/FM 缓冲区，解调 OOK/FSK
// 返回 0（数据耗尽，需要更多数据）、PULSE_DATA_OOK 或 PULSE_DATA_FSK。
// 非零返回时调用方必须先消费 pulses/fskPulses 再继续调用；
// 检测器会在保留的 dataCounter 处继续处理同一缓冲区的剩余部分。
// envelope 与 fm 必须等长对齐
func (d *PulseDetector) Detect(envelope, fm []int16, sampRate uint32, sampleOffset uint64, pulses, fskPulses *PulseData, fpdm int) int {
	var attHist [37]int
	n := len(envelope)
	samplesPerMS := int(sampRate) / 1000

	// 保证初始最低电平
	if d.ookHighEstimate < d.ookMinHighLevel {
		d.ookHighEstimate = d.ookMinHighLevel
	}

	if d.dumpEnabled {
		d.createDumps(sampRate)
		d.dumpEnabled = false // 只在开启后的第一次 Detect 创建，失败的那一路保持为 nil
	}

	if d.dataCounter == 0 {
		// 新缓冲区：老化两条脉冲记录
		pulses.StartAgo += n
		fskPulses.StartAgo += n
	}

	for d.dataCounter < n {
		// AM 解调数据先过中值滤波
		amN := d.medianFilter.Process(envelope[d.dataCounter])
		d.dumpAMDemod.WriteSample(amN)

		fmN := fm[d.dataCounter]
		d.dumpFMDemod.WriteSample(fmN)

		if d.verbosity >= 1 {
			attHist[d.att(int(amN))]++
		}

		// 计算 OOK 检测阈值和迟滞
		var thresholdHi, thresholdLo int
		var thresholdHiFM, thresholdLoFM int

		if d.usePeakFollower {
			// AM：峰值跟踪器给出高/低包络，取中点 ± 幅度/4 作迟滞阈值
			high, low := d.peakFollower.Process(amN)
			amplitude := (int(high) - int(low)) / 2
			center := int(low) + amplitude

			// 高包络为零表示没有有效信号
			if high == 0 {
				amN = 0
			}

			thresholdHi = center + amplitude/4
			thresholdLo = center - amplitude/4

			// FM：独立的峰值跟踪器，阈值只用于调试输出
			highFM, lowFM := d.peakFollowerFM.Process(fmN)
			amplitudeFM := (int(highFM) - int(lowFM)) / 2
			centerFM := int(lowFM) + amplitudeFM
			thresholdHiFM = centerFM + amplitudeFM/4
			thresholdLoFM = centerFM - amplitudeFM/4

			// 用阈值提取数字 AM 方波
			if thresholdHi != 0 {
				if int(amN) > thresholdHi {
					d.outAM = 32767
				} else if int(amN) < thresholdLo {
					d.outAM = 0
				}
			}

			// 用阈值提取数字 FM 方波
			if int(fmN) > thresholdHiFM {
				d.outFM = 32767
			} else if int(fmN) < thresholdLoFM {
				d.outFM = 0
			}
			// FM 信号只在 AM 包络有效时才有意义
			if d.outAM == 0 {
				d.outFM = 0
			}

			d.dumpAMPeakHigh.WriteSample(int16(thresholdHiFM))
			d.dumpAMPeakLow.WriteSample(int16(thresholdLoFM))
			d.dumpAMDecoded.WriteSample(d.outAM)
			d.dumpFMDecoded.WriteSample(d.outFM)
		} else {
			// 经典模式：阈值取高低估计的中点，迟滞 ±1/8
			threshold := (d.ookLowEstimate + d.ookHighEstimate) / 2
			if d.ookFixedHighLevel != 0 {
				threshold = d.ookFixedHighLevel // 手动覆盖
			}
			hysteresis := threshold / 8
			thresholdHi = threshold + hysteresis
			thresholdLo = threshold - hysteresis
		}

		if d.debugger != nil {
			d.debugger.Record(amN, fmN, thresholdHi, thresholdLo, d.ookState == ookStatePulse)
		}

		// OOK 状态机
		switch d.ookState {
		case ookStateIdle:
			if int(amN) > thresholdHi && d.leadInCounter > OOK_EST_LOW_RATIO {
				// 新包开始，初始化所有记录
				pulses.Clear()
				fskPulses.Clear()
				pulses.SampleRate = sampRate
				fskPulses.SampleRate = sampRate
				pulses.Offset = sampleOffset + uint64(d.dataCounter)
				fskPulses.Offset = sampleOffset + uint64(d.dataCounter)
				pulses.StartAgo = n - d.dataCounter
				fskPulses.StartAgo = n - d.dataCounter
				d.pulseLength = 0
				d.maxPulse = 0
				d.fsk.init()
				d.ookState = ookStatePulse
			} else {
				// 仍然空闲：估计底噪电平
				lowDelta := int(amN) - d.ookLowEstimate
				d.ookLowEstimate += lowDelta / OOK_EST_LOW_RATIO
				// 补偿整数截断的 ±1 推动
				if lowDelta > 0 {
					d.ookLowEstimate++
				} else {
					d.ookLowEstimate--
				}
				// 高电平默认取底噪的固定比值
				d.ookHighEstimate = d.ookHighLowRatio * d.ookLowEstimate
				if d.ookHighEstimate < d.ookMinHighLevel {
					d.ookHighEstimate = d.ookMinHighLevel
				}
				if d.ookHighEstimate > OOK_MAX_HIGH_LEVEL {
					d.ookHighEstimate = OOK_MAX_HIGH_LEVEL
				}
				if d.leadInCounter <= OOK_EST_LOW_RATIO {
					d.leadInCounter++ // 等待初始估计收敛
				}
			}

		case ookStatePulse:
			d.pulseLength++
			if int(amN) < thresholdLo { // 脉冲结束？
				if d.pulseLength < PD_MIN_PULSE_SAMPLES {
					// 毛刺脉冲
					if pulses.NumPulses <= 1 {
						// 包里还没有实质内容，直接回到空闲
						d.ookState = ookStateIdle
					} else {
						// 否则让随后的间隔把包收掉
						d.eopOnSpurious = true
						d.ookState = ookStateGap
					}
				} else {
					pulses.Pulse[pulses.NumPulses] = d.pulseLength
					if d.pulseLength > d.maxPulse {
						d.maxPulse = d.pulseLength
					}
					d.pulseLength = 0
					d.ookState = ookStateGapStart
				}
			} else {
				// 仍在脉冲内：跟踪高电平估计
				d.ookHighEstimate += int(amN)/OOK_EST_HIGH_RATIO - d.ookHighEstimate/OOK_EST_HIGH_RATIO
				if d.ookHighEstimate < d.ookMinHighLevel {
					d.ookHighEstimate = d.ookMinHighLevel
				}
				if d.ookHighEstimate > OOK_MAX_HIGH_LEVEL {
					d.ookHighEstimate = OOK_MAX_HIGH_LEVEL
				}
				// 估计脉冲载波频偏
				pulses.FskF1Est += int(fmN)/OOK_EST_HIGH_RATIO - pulses.FskF1Est/OOK_EST_HIGH_RATIO
			}
			// FSK 只在第一个长 AM 脉冲的高沿上解调
			// _____|--------------------------|________
			if pulses.NumPulses == 0 {
				if fpdm == FSK_PULSE_DETECT_OLD {
					d.fsk.classic(fmN, fskPulses)
				} else {
					d.fsk.minmax(fmN, fskPulses)
				}
			}

		case ookStateGapStart: // 间隔开始，可能只是毛刺
			d.pulseLength++
			if int(amN) > thresholdHi {
				// 这个间隔是毛刺：恢复脉冲计数继续
				d.pulseLength += pulses.Pulse[pulses.NumPulses]
				d.ookState = ookStatePulse
			} else if d.pulseLength >= PD_MIN_PULSE_SAMPLES {
				// 间隔成立
				d.ookState = ookStateGap
				// 判定是否检出了 FSK 调制
				if fskPulses.NumPulses > PD_MIN_PULSES {
					if fpdm == FSK_PULSE_DETECT_OLD {
						d.fsk.wrapUp(fskPulses)
					}
					fskPulses.FskF1Est = d.fsk.fmF1Est
					fskPulses.FskF2Est = d.fsk.fmF2Est
					fskPulses.OokLowEstimate = d.ookLowEstimate
					fskPulses.OokHighEstimate = d.ookHighEstimate
					pulses.EndAgo = n - d.dataCounter
					fskPulses.EndAgo = n - d.dataCounter
					d.ookState = ookStateIdle // 保证全部复位
					d.eopOnSpurious = false
					if d.verbosity >= 2 {
						printAttHist("PULSE_DATA_FSK", &attHist)
					}
					if d.verbosity >= 1 {
						d.printLevels(thresholdHi, thresholdLo)
					}
					return PULSE_DATA_FSK
				}
			}
			// 短间隔期间继续喂 FSK 子检测器，可能还会回到脉冲
			if pulses.NumPulses == 0 {
				if fpdm == FSK_PULSE_DETECT_OLD {
					d.fsk.classic(fmN, fskPulses)
				} else {
					d.fsk.minmax(fmN, fskPulses)
				}
			}

		case ookStateGap:
			d.pulseLength++
			if int(amN) > thresholdHi { // 新脉冲？
				pulses.Gap[pulses.NumPulses] = d.pulseLength
				pulses.NumPulses++

				// 脉冲数到顶即收包
				if pulses.NumPulses >= PD_MAX_PULSES {
					d.ookState = ookStateIdle
					pulses.OokLowEstimate = d.ookLowEstimate
					pulses.OokHighEstimate = d.ookHighEstimate
					pulses.EndAgo = n - d.dataCounter
					d.eopOnSpurious = false
					if d.verbosity >= 2 {
						printAttHist("PULSE_DATA_OOK MAX_PULSES", &attHist)
					}
					return PULSE_DATA_OOK
				}

				d.pulseLength = 0
				d.ookState = ookStatePulse
			}

			// 间隔过长即收包
			if d.eopOnSpurious ||
				(d.pulseLength > PD_MAX_GAP_RATIO*d.maxPulse && // gap/pulse 比例超限
					d.pulseLength > PD_MIN_GAP_MS*samplesPerMS) || // 且超过最小间隔
				d.pulseLength > PD_MAX_GAP_MS*samplesPerMS { // 或超过最大间隔
				pulses.Gap[pulses.NumPulses] = d.pulseLength // 存下收尾间隔
				pulses.NumPulses++
				d.ookState = ookStateIdle
				pulses.OokLowEstimate = d.ookLowEstimate
				pulses.OokHighEstimate = d.ookHighEstimate
				pulses.EndAgo = n - d.dataCounter
				d.eopOnSpurious = false
				if d.verbosity >= 2 {
					printAttHist("PULSE_DATA_OOK EOP", &attHist)
				}
				if d.verbosity >= 1 {
					d.printLevels(thresholdHi, thresholdLo)
				}
				return PULSE_DATA_OOK
			}

		default:
			// 不应到达；软恢复
			fmt.Fprintf(os.Stderr, "PulseDetector: unknown state, resetting\n")
			d.ookState = ookStateIdle
		}

		d.dataCounter++
	}

	d.dataCounter = 0
	if d.verbosity >= 3 {
		printAttHist("Out of data", &attHist)
	}
	return 0 // 数据耗尽
}
