package ook

import (
	"fmt"
	"log"
	"os"
	"time"
)

// PackageCallback 在检测器收出一个包时回调
// code 是 PULSE_DATA_OOK 或 PULSE_DATA_FSK，pulses 指向对应的记录；
// 记录在下一个包开始前保持有效，需要保留数据的话要自行复制
type PackageCallback func(code int, pulses *PulseData)

// PulseSystem 管理整个脉冲检测系统的生命周期：
// 声卡 I/Q 采集 -> 基带前端 -> 检测器 -> 包回调；
// 回放文件已是包络/FM 流，直接送入检测器，不经过基带前端
type PulseSystem struct {
	// 配置
	cfg             *Config
	SampleRate      int
	AudioDeviceName string

	// 组件
	civClient *CIVClient
	detector  *PulseDetector
	demod     *BasebandDemodulator
	capture   *IQCapture
	wavReader *WavReader
	monitor   *DeviationMonitor
	debugger  SignalDebugger

	// 状态
	replayFile   string
	sampleOffset uint64

	// 检测器借用的脉冲记录
	pulses    PulseData
	fskPulses PulseData

	// 回调
	OnPackage PackageCallback
}

// NewPulseSystem 创建系统实例
func NewPulseSystem(cfg *Config) *PulseSystem {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &PulseSystem{
		cfg:             cfg,
		SampleRate:      250000,
		AudioDeviceName: "USB Audio CODEC",
	}
}

// SetReplayFile 设置回放文件 (设置后将进入回放模式)
func (s *PulseSystem) SetReplayFile(filename string) {
	s.replayFile = filename
}

// Start 启动系统
func (s *PulseSystem) Start() error {
	// 1. 初始化信号源
	if s.replayFile != "" {
		var err error
		s.wavReader, err = NewWavReader(s.replayFile)
		if err != nil {
			return fmt.Errorf("failed to open replay file: %v", err)
		}
		s.SampleRate = s.wavReader.SampleRate
		fmt.Printf("Mode: REPLAY (%s, %dHz)\n", s.replayFile, s.SampleRate)
	} else if s.cfg.Radio.Frequency > 0 {
		// 实时模式：先把接收机调到目标信道
		s.civClient = NewCIVClient(s.cfg.Radio.SerialPort, s.cfg.Radio.BaudRate)
		fmt.Printf("Connecting to radio on %s...\n", s.cfg.Radio.SerialPort)
		if err := s.civClient.Open(); err != nil {
			log.Printf("Warning: Could not open serial port: %v\n", err)
			s.civClient = nil
		} else if err := s.civClient.SetFrequency(s.cfg.Radio.Frequency); err != nil {
			log.Printf("Warning: Could not tune radio: %v\n", err)
		} else {
			fmt.Printf("Radio tuned to %d Hz\n", s.cfg.Radio.Frequency)
		}
	}

	// 2. 初始化检测器
	s.detector = NewPulseDetector()
	s.detector.SetLevels(s.cfg.Detector.UseMagEst, s.cfg.Detector.FixedHighDB,
		s.cfg.Detector.MinHighDB, s.cfg.Detector.HighLowRatioDB, s.cfg.Detector.Verbosity)
	s.detector.SetUsePeakFollower(s.cfg.Detector.UsePeakFollower)
	if s.cfg.Debug.DumpEnabled {
		s.detector.EnableDump(s.cfg.Debug.DumpDir)
	}
	if s.cfg.Debug.CsvFile != "" {
		dbg, err := NewCsvFileDebugger(s.cfg.Debug.CsvFile)
		if err != nil {
			log.Printf("Warning: csv debugger disabled: %v\n", err)
		} else {
			s.debugger = dbg
			s.detector.SetDebugger(dbg)
		}
	}

	// 3. 初始化前端和监控
	s.demod = NewBasebandDemodulator(float64(s.SampleRate), s.cfg.FrontEnd.FilterBW)
	s.monitor = NewDeviationMonitor(float64(s.SampleRate), s.cfg, nil)
	s.monitor.Start()

	// 4. 启动信号流
	if s.replayFile != "" {
		go s.runReplayLoop()
	} else {
		if err := s.startCapture(); err != nil {
			return err
		}
	}

	return nil
}

// Stop 停止系统并释放资源
func (s *PulseSystem) Stop() {
	if s.capture != nil {
		s.capture.Stop()
	}
	if s.wavReader != nil {
		s.wavReader.Close()
	}
	if s.civClient != nil {
		s.civClient.Close()
	}
	if s.monitor != nil {
		s.monitor.Stop()
	}
	if s.debugger != nil {
		s.debugger.Close()
	}
	if s.detector != nil {
		s.detector.Close()
	}
}

// processStreams 把一对对齐的包络/FM 块喂给检测器，分发收出的包
func (s *PulseSystem) processStreams(envelope, fm []int16) {
	s.monitor.PushFMData(fm)

	for {
		code := s.detector.Detect(envelope, fm, uint32(s.SampleRate), s.sampleOffset,
			&s.pulses, &s.fskPulses, s.cfg.Detector.FskMode)
		if code == 0 {
			break
		}
		if s.OnPackage != nil {
			if code == PULSE_DATA_FSK {
				s.OnPackage(code, &s.fskPulses)
			} else {
				s.OnPackage(code, &s.pulses)
			}
		}
	}

	s.sampleOffset += uint64(len(envelope))
}

// 内部：处理一块 I/Q 数据 (实时模式)
func (s *PulseSystem) processIQChunk(iSamples, qSamples []float32) {
	envelope, fm := s.demod.ProcessBuffer(iSamples, qSamples)
	s.processStreams(envelope, fm)
}

// 内部：启动实时 I/Q 采集
func (s *PulseSystem) startCapture() error {
	var err error
	s.capture, err = NewIQCapture(s.SampleRate, s.AudioDeviceName, s.processIQChunk)
	if err != nil {
		return fmt.Errorf("failed to init iq capture: %v", err)
	}
	return s.capture.Start()
}

// 内部：运行回放循环
func (s *PulseSystem) runReplayLoop() {
	chunkSize := 4096
	// 计算 ticker 间隔以模拟实时速度
	interval := time.Second * time.Duration(chunkSize) / time.Duration(s.SampleRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Println("Replay started...")
	for range ticker.C {
		envelope, fm, err := s.wavReader.ReadSamplePair(chunkSize)
		if err != nil {
			fmt.Println("\nEnd of file.")
			s.Stop()
			os.Exit(0)
		}
		s.processStreams(envelope, fm)
	}
}
