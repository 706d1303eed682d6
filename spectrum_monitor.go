package ook

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"time"

	"github.com/mjibson/go-dsp/fft"
)

// DeviationMonitor 在后台异步运行，用 Welch 法计算 FM 流的平均功率谱，
// 以抗噪声的方式估计主切换速率（FSK 键控的表现频率），并做 SNR 静噪。
// 纯观测组件：不影响检测器的判决路径
type DeviationMonitor struct {
	cfg *Config

	sampleRate     float64
	fftSize        int
	overlap        int
	updateInterval time.Duration

	// 通信
	fmInChan     chan []int16       // 从检测主线程接收 FM 数据
	OnRateUpdate func(freq float64) // 回调，通知系统检出的切换速率

	ringBuffer []float64
	ringPos    int
	window     []float64
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewDeviationMonitor 创建实例
func NewDeviationMonitor(sampleRate float64, cfg *Config, onUpdate func(float64)) *DeviationMonitor {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	fftSize := cfg.Monitor.FFTSize
	overlap := fftSize / 2
	numSegments := 4
	bufferSize := fftSize + (numSegments-1)*(fftSize-overlap)

	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &DeviationMonitor{
		cfg:            cfg,
		sampleRate:     sampleRate,
		fftSize:        fftSize,
		overlap:        overlap,
		updateInterval: cfg.Monitor.UpdateInterval,
		fmInChan:       make(chan []int16, 100),
		OnRateUpdate:   onUpdate,
		ringBuffer:     make([]float64, bufferSize),
		window:         window,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start 启动后台监控 goroutine
func (dm *DeviationMonitor) Start() {
	if dm.cfg.Monitor.Enabled {
		go dm.run()
	}
}

// Stop 停止监控
func (dm *DeviationMonitor) Stop() {
	dm.cancel()
}

// PushFMData 检测主线程调用此方法，把 FM 数据推送到监控器
func (dm *DeviationMonitor) PushFMData(samples []int16) {
	if !dm.cfg.Monitor.Enabled {
		return
	}
	select {
	case dm.fmInChan <- samples:
	default:
		// 缓冲已满，丢弃数据以避免阻塞检测线程
	}
}

// run 是后台运行的主循环
func (dm *DeviationMonitor) run() {
	ticker := time.NewTicker(dm.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-dm.ctx.Done():
			return
		case samples := <-dm.fmInChan:
			for _, s := range samples {
				dm.ringBuffer[dm.ringPos] = float64(s) / 16384.0
				dm.ringPos = (dm.ringPos + 1) % len(dm.ringBuffer)
			}
		case <-ticker.C:
			freq, mag, noiseFloor := dm.calculateWelch()

			// 自适应静噪：峰值功率必须明显高于噪声基底
			if mag > noiseFloor*dm.cfg.Monitor.RequiredSNR && mag > 1e-6 {
				snr := 10 * math.Log10(mag/noiseFloor)
				fmt.Printf("[MONITOR] Shift rate: %.1f Hz (SNR: %.1f dB)\n", freq, snr)
				if dm.OnRateUpdate != nil {
					dm.OnRateUpdate(freq)
				}
			}
		}
	}
}

// calculateWelch 执行 Welch 平均周期图法
// 返回: 峰值频率, 峰值功率, 噪声基底功率
func (dm *DeviationMonitor) calculateWelch() (float64, float64, float64) {
	numSegments := 0
	avgSpectrum := make([]float64, dm.fftSize/2+1)
	step := dm.fftSize - dm.overlap

	for i := 0; (i + dm.fftSize) <= len(dm.ringBuffer); i += step {
		segment := dm.ringBuffer[i : i+dm.fftSize]

		windowed := make([]complex128, dm.fftSize)
		for j, v := range segment {
			windowed[j] = complex(v*dm.window[j], 0)
		}

		spectrum := fft.FFT(windowed)

		for j := 0; j < len(avgSpectrum); j++ {
			power := cmplx.Abs(spectrum[j])
			avgSpectrum[j] += power * power
		}
		numSegments++
	}

	if numSegments == 0 {
		return 0, 0, 0
	}

	for i := range avgSpectrum {
		avgSpectrum[i] /= float64(numSegments)
	}

	// 噪声基底用中位数估计，抵抗信号峰的干扰
	sortedSpectrum := make([]float64, len(avgSpectrum))
	copy(sortedSpectrum, avgSpectrum)
	sort.Float64s(sortedSpectrum)
	noiseFloor := sortedSpectrum[len(sortedSpectrum)/2]

	// 防止纯静音时除零
	if noiseFloor < 1e-12 {
		noiseFloor = 1e-12
	}

	maxMag := 0.0
	maxIndex := 0
	binWidth := dm.sampleRate / float64(dm.fftSize)

	startIndex := int(dm.cfg.Monitor.MinFrequency / binWidth)
	endIndex := int(dm.cfg.Monitor.MaxFrequency / binWidth)

	if startIndex < 0 {
		startIndex = 0
	}
	if endIndex > len(avgSpectrum) {
		endIndex = len(avgSpectrum)
	}

	for i := startIndex; i < endIndex; i++ {
		if avgSpectrum[i] > maxMag {
			maxMag = avgSpectrum[i]
			maxIndex = i
		}
	}

	// 抛物线插值，提高频率精度
	var freq float64
	if maxIndex > 0 && maxIndex < len(avgSpectrum)-1 {
		alpha := avgSpectrum[maxIndex-1]
		beta := avgSpectrum[maxIndex]
		gamma := avgSpectrum[maxIndex+1]
		denom := alpha - 2*beta + gamma
		if denom != 0 {
			p := 0.5 * (alpha - gamma) / denom
			freq = (float64(maxIndex) + p) * binWidth
		} else {
			freq = float64(maxIndex) * binWidth
		}
	} else {
		freq = float64(maxIndex) * binWidth
	}

	return freq, maxMag, noiseFloor
}
