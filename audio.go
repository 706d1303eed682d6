package ook

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// IQCallback 定义 I/Q 数据回调函数类型
// 两个切片等长：左声道 = I，右声道 = Q
type IQCallback func(iSamples, qSamples []float32)

// IQCapture 通过声卡采集 SDR 接收机输出的双声道 I/Q 基带
type IQCapture struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	SampleRate int
	Callback   IQCallback
}

// NewIQCapture 创建新的 I/Q 采集实例
func NewIQCapture(sampleRate int, targetDeviceName string, callback IQCallback) (*IQCapture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init malgo context: %v", err)
	}

	ic := &IQCapture{
		ctx:        ctx,
		SampleRate: sampleRate,
		Callback:   callback,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 2
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if targetDeviceName != "" {
		infos, err := ctx.Devices(malgo.Capture)
		if err == nil {
			for _, info := range infos {
				if strings.Contains(strings.ToLower(info.Name()), strings.ToLower(targetDeviceName)) {
					deviceConfig.Capture.DeviceID = info.ID.Pointer()
					fmt.Printf("Selected Audio Device: %s\n", info.Name())
					break
				}
			}
		}
	}

	onRecvFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		if ic.Callback == nil {
			return
		}
		if len(pInputSamples) == 0 {
			return
		}
		// 交错的双声道数据，拆成 I/Q 两条流
		interleaved := unsafe.Slice((*float32)(unsafe.Pointer(&pInputSamples[0])), int(framecount)*2)
		iSamples := make([]float32, framecount)
		qSamples := make([]float32, framecount)
		for k := 0; k < int(framecount); k++ {
			iSamples[k] = interleaved[k*2]
			qSamples[k] = interleaved[k*2+1]
		}
		ic.Callback(iSamples, qSamples)
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: onRecvFrames,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("failed to init device: %v", err)
	}
	ic.device = device

	fmt.Printf("Audio Device Initialized. Rate: %d Hz\n", device.SampleRate())

	return ic, nil
}

// Start 启动采集
func (ic *IQCapture) Start() error {
	if ic.device == nil {
		return fmt.Errorf("device not initialized")
	}
	return ic.device.Start()
}

// Stop 停止采集并释放资源
func (ic *IQCapture) Stop() {
	if ic.device != nil {
		ic.device.Uninit()
		ic.device = nil
	}
	if ic.ctx != nil {
		_ = ic.ctx.Uninit()
		ic.ctx.Free()
		ic.ctx = nil
	}
}
