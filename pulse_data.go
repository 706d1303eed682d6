package ook

// 脉冲包参数（继承自外围协议库的约定）
const (
	PD_MAX_PULSES        = 1000 // 单个包的最大脉冲数，溢出即收包
	PD_MIN_PULSE_SAMPLES = 10   // 短于此长度的脉冲/间隔视为毛刺
	PD_MIN_PULSES        = 16   // FSK 包判定的子脉冲数门限：子脉冲数须多于此值
	PD_MIN_GAP_MS        = 10   // 按 gap/pulse 比例收包时的最小间隔 (ms)
	PD_MAX_GAP_MS        = 100  // 无条件收包的最大间隔 (ms)
	PD_MAX_GAP_RATIO     = 10   // 间隔超过最大脉冲的该倍数即收包
)

// Detect 的返回码
const (
	PULSE_DATA_OOK = 1 // 收到一个 OOK 包
	PULSE_DATA_FSK = 2 // 收到一个 FSK 包（长脉冲内检出子脉冲）
)

// PulseData 保存一个信号包：定长的 (脉冲宽度, 间隔宽度) 序列及附带估计
// 宽度单位都是采样数。Gap[k] 只在 k < NumPulses 时有意义。
// 记录由调用方持有，检测器在收包前原地写入；返回给调用方后
// 在下一个包开始前保持只读
type PulseData struct {
	Offset     uint64 // 包第一个采样在全局流中的绝对位置
	SampleRate uint32

	StartAgo int // 包起点距最近一次喂入缓冲区末尾的采样数
	EndAgo   int // 包终点距最近一次喂入缓冲区末尾的采样数

	NumPulses int
	Pulse     [PD_MAX_PULSES]int
	Gap       [PD_MAX_PULSES]int

	// FSK 频偏估计（FM 流单位）
	FskF1Est int
	FskF2Est int

	// OOK 包络电平估计
	OokLowEstimate  int
	OokHighEstimate int
}

// Clear 清空记录：脉冲数、估计和偏移全部归零
func (p *PulseData) Clear() {
	*p = PulseData{}
}
