package ook

import (
	"bytes"
	"testing"
)

// MockSerialPort 模拟串口
type MockSerialPort struct {
	ReadBuffer  *bytes.Buffer
	WriteBuffer *bytes.Buffer
	Closed      bool
}

func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{
		ReadBuffer:  new(bytes.Buffer),
		WriteBuffer: new(bytes.Buffer),
	}
}

func (m *MockSerialPort) Read(p []byte) (n int, err error) {
	return m.ReadBuffer.Read(p)
}

func (m *MockSerialPort) Write(p []byte) (n int, err error) {
	return m.WriteBuffer.Write(p)
}

func (m *MockSerialPort) Close() error {
	m.Closed = true
	return nil
}

// 辅助函数：生成 CI-V 响应帧
func makeResponseFrame(cmd byte, data []byte) []byte {
	// FE FE E0 A4 Cmd [Data...] FD
	frame := []byte{CIV_PREAMBLE, CIV_PREAMBLE, CIV_ADDR_PC, CIV_ADDR_RADIO, cmd}
	if len(data) > 0 {
		frame = append(frame, data...)
	}
	frame = append(frame, CIV_END)
	return frame
}

func TestSendCommand(t *testing.T) {
	mockPort := NewMockSerialPort()
	client := &CIVClient{conn: mockPort}

	// 测试发送指令 0x03 (读取频率)
	err := client.SendCommand(0x03, nil)
	if err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}

	expected := []byte{0xFE, 0xFE, 0xA4, 0xE0, 0x03, 0xFD}
	if !bytes.Equal(mockPort.WriteBuffer.Bytes(), expected) {
		t.Errorf("Expected command frame %X, got %X", expected, mockPort.WriteBuffer.Bytes())
	}
}

func TestSetFrequency(t *testing.T) {
	mockPort := NewMockSerialPort()
	client := &CIVClient{conn: mockPort}

	// 433.92 MHz -> BCD 低位在前: 00 00 92 33 04
	if err := client.SetFrequency(433920000); err != nil {
		t.Fatalf("SetFrequency failed: %v", err)
	}

	expected := []byte{0xFE, 0xFE, 0xA4, 0xE0, 0x05, 0x00, 0x00, 0x92, 0x33, 0x04, 0xFD}
	if !bytes.Equal(mockPort.WriteBuffer.Bytes(), expected) {
		t.Errorf("Expected frame %X, got %X", expected, mockPort.WriteBuffer.Bytes())
	}
}

func TestReadFrequency(t *testing.T) {
	mockPort := NewMockSerialPort()
	client := &CIVClient{conn: mockPort}

	// 模拟接收机响应: 433.92 MHz -> 00 00 92 33 04 (BCD)
	freqData := []byte{0x00, 0x00, 0x92, 0x33, 0x04}
	respFrame := makeResponseFrame(0x03, freqData)
	mockPort.ReadBuffer.Write(respFrame)

	freq, err := client.ReadFrequency()
	if err != nil {
		t.Fatalf("ReadFrequency failed: %v", err)
	}

	expectedFreq := 433920000
	if freq != expectedFreq {
		t.Errorf("Expected frequency %d, got %d", expectedFreq, freq)
	}
}

func TestReadFrequency_EchoFilter(t *testing.T) {
	mockPort := NewMockSerialPort()
	client := &CIVClient{conn: mockPort}

	// 串口回显发送的指令，之后才是真实响应
	echoFrame := []byte{0xFE, 0xFE, 0xA4, 0xE0, 0x03, 0xFD}
	freqData := []byte{0x00, 0x00, 0x92, 0x33, 0x04}
	respFrame := makeResponseFrame(0x03, freqData)

	mockPort.ReadBuffer.Write(echoFrame)
	mockPort.ReadBuffer.Write(respFrame)

	freq, err := client.ReadFrequency()
	if err != nil {
		t.Fatalf("ReadFrequency with echo failed: %v", err)
	}

	if freq != 433920000 {
		t.Errorf("Expected frequency 433920000, got %d", freq)
	}
}

func TestReadMode(t *testing.T) {
	mockPort := NewMockSerialPort()
	client := &CIVClient{conn: mockPort}

	// FM 模式 -> 0x05
	respFrame := makeResponseFrame(0x04, []byte{0x05})
	mockPort.ReadBuffer.Write(respFrame)

	mode, err := client.ReadMode()
	if err != nil {
		t.Fatalf("ReadMode failed: %v", err)
	}

	if mode != "FM" {
		t.Errorf("Expected mode FM, got %s", mode)
	}
}

func TestReadMode_Unknown(t *testing.T) {
	mockPort := NewMockSerialPort()
	client := &CIVClient{conn: mockPort}

	respFrame := makeResponseFrame(0x04, []byte{0xFF})
	mockPort.ReadBuffer.Write(respFrame)

	mode, err := client.ReadMode()
	if err != nil {
		t.Fatalf("ReadMode failed: %v", err)
	}

	if mode != "Unknown(0xFF)" {
		t.Errorf("Expected Unknown(0xFF), got %s", mode)
	}
}

func TestClose(t *testing.T) {
	mockPort := NewMockSerialPort()
	client := &CIVClient{conn: mockPort}

	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !mockPort.Closed {
		t.Error("Expected port to be closed")
	}
}
