package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ook"
)

func main() {
	// 1. 解析命令行参数
	inputFile := flag.String("file", "", "Input wav file for replay (mono=envelope, stereo=envelope+fm)")
	dump := flag.Bool("dump", false, "Dump conditioned streams to wav files")
	dumpDir := flag.String("dumpdir", ".", "Directory for wav dumps")
	csvFile := flag.String("csv", "", "Per-sample csv debug output file")
	useMag := flag.Bool("mag", false, "Treat envelope as magnitude instead of amplitude")
	fixedDB := flag.Float64("level", 0.0, "Fixed detection level in dB (negative enables override; used only in classical threshold mode, not in the default peak-follower mode)")
	minDB := flag.Float64("minlevel", -12.1442, "Minimum high level estimate in dB")
	ratioDB := flag.Float64("ratio", 9.0, "High/low level ratio in dB")
	verbosity := flag.Int("v", 0, "Verbosity: 1=levels, 2=histograms")
	fskOld := flag.Bool("fskold", false, "Use classic FSK sub-detector instead of minmax")
	freq := flag.Int("freq", 0, "Tune receiver to this frequency in Hz before capture")
	port := flag.String("port", "/dev/tty.SLAB_USBtoUART", "CI-V serial port")
	flag.Parse()

	// 2. 组装配置
	cfg := ook.DefaultConfig()
	cfg.Detector.UseMagEst = *useMag
	cfg.Detector.FixedHighDB = *fixedDB
	cfg.Detector.MinHighDB = *minDB
	cfg.Detector.HighLowRatioDB = *ratioDB
	cfg.Detector.Verbosity = *verbosity
	if *fskOld {
		cfg.Detector.FskMode = ook.FSK_PULSE_DETECT_OLD
	}
	cfg.Debug.DumpEnabled = *dump
	cfg.Debug.DumpDir = *dumpDir
	cfg.Debug.CsvFile = *csvFile
	cfg.Radio.Frequency = *freq
	cfg.Radio.SerialPort = *port

	// 3. 初始化系统
	system := ook.NewPulseSystem(cfg)
	if *inputFile != "" {
		system.SetReplayFile(*inputFile)
	}

	system.OnPackage = func(code int, pulses *ook.PulseData) {
		kind := "OOK"
		if code == ook.PULSE_DATA_FSK {
			kind = "FSK"
		}
		fmt.Printf("[%s] %d pulses @%d (rate %d Hz, f1 %d, f2 %d)\n",
			kind, pulses.NumPulses, pulses.Offset, pulses.SampleRate,
			pulses.FskF1Est, pulses.FskF2Est)
		for i := 0; i < pulses.NumPulses && i < 8; i++ {
			fmt.Printf("  pulse %4d smp, gap %4d smp\n", pulses.Pulse[i], pulses.Gap[i])
		}
		if pulses.NumPulses > 8 {
			fmt.Printf("  ... (%d more)\n", pulses.NumPulses-8)
		}
	}

	// 4. 启动系统
	if err := system.Start(); err != nil {
		log.Fatalf("System start failed: %v", err)
	}
	defer system.Stop()

	// 5. 阻塞等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutting down...")
}
