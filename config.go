package ook

import "time"

// Config 结构体用于集中管理检测器和外围组件的所有可调参数
type Config struct {
	// --- 检测电平 (PulseDetector) ---
	Detector struct {
		UseMagEst       bool    // 包络流是模量 (true) 还是幅度 (false)，决定 dB 换算用 ÷20 还是 ÷10
		FixedHighDB     float64 // 手动检测电平 (dB)。负值启用手动阈值覆盖，零或正值关闭；只在经典阈值模式 (UsePeakFollower=false) 下生效
		MinHighDB       float64 // 高电平估计的下限 (dB)。-12.1442 dB 约对应幅度 1000
		HighLowRatioDB  float64 // 高电平与底噪的默认比值 (dB)。幅度流 9 dB 约为 x8
		Verbosity       int     // 0=安静, 1=电平打印, 2=衰减直方图, 3=含未收包直方图
		UsePeakFollower bool    // true: 峰值跟踪阈值 (默认), false: 经典高低估计阈值
		FskMode         int     // FSK_PULSE_DETECT_OLD (classic) 或 FSK_PULSE_DETECT_NEW (minmax)
	}

	// --- 基带前端 (BasebandDemodulator) ---
	FrontEnd struct {
		FilterBW float64 // I/Q 低通截止频率 (Hz)。接收带宽约为 2 倍截止频率
	}

	// --- 频偏监控 (DeviationMonitor) ---
	// 在后台分析 FM 流的频谱，估计键控速率并做 SNR 静噪
	Monitor struct {
		Enabled        bool          // 是否启用后台频偏监控
		UpdateInterval time.Duration // 分析周期 (例如 200ms)
		FFTSize        int           // FFT 点数，越大分辨率越高但计算量越大
		MinFrequency   float64       // 搜索下限 (Hz)，屏蔽直流附近能量
		MaxFrequency   float64       // 搜索上限 (Hz)
		RequiredSNR    float64       // 触发回调所需的最小信噪比 (线性值)
	}

	// --- 调试输出 ---
	Debug struct {
		DumpEnabled bool   // 是否写六路 WAV 转储
		DumpDir     string // 转储目录
		CsvFile     string // 非空时开启 CSV 逐采样调试
	}

	// --- 接收机控制 (CIVClient) ---
	Radio struct {
		SerialPort string // CI-V 串口设备
		BaudRate   int
		Frequency  int    // 启动时把接收机调谐到的频率 (Hz)，0 = 不调谐
		Mode       string // 接收机模式名称；PulseSystem.Start 不读取此项，不会设置接收机模式
	}
}

// DefaultConfig 返回一个包含当前最佳实践的默认配置
func DefaultConfig() *Config {
	cfg := &Config{}

	// --- 检测电平 ---
	cfg.Detector.UseMagEst = false
	cfg.Detector.FixedHighDB = 0.0
	cfg.Detector.MinHighDB = -12.1442
	cfg.Detector.HighLowRatioDB = 9.0
	cfg.Detector.Verbosity = 0
	cfg.Detector.UsePeakFollower = true
	cfg.Detector.FskMode = FSK_PULSE_DETECT_NEW

	// --- 基带前端 ---
	cfg.FrontEnd.FilterBW = 100000.0 // 200kHz 接收带宽，覆盖常见 ISM 信道

	// --- 频偏监控 ---
	cfg.Monitor.Enabled = false
	cfg.Monitor.UpdateInterval = 200 * time.Millisecond
	cfg.Monitor.FFTSize = 4096
	cfg.Monitor.MinFrequency = 100.0
	cfg.Monitor.MaxFrequency = 20000.0
	cfg.Monitor.RequiredSNR = 10.0

	// --- 调试输出 ---
	cfg.Debug.DumpEnabled = false
	cfg.Debug.DumpDir = "."
	cfg.Debug.CsvFile = ""

	// --- 接收机控制 ---
	cfg.Radio.SerialPort = "/dev/tty.SLAB_USBtoUART"
	cfg.Radio.BaudRate = 115200
	cfg.Radio.Frequency = 0
	cfg.Radio.Mode = ""

	return cfg
}
