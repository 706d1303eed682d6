package ook

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

const (
	CIV_PREAMBLE   = 0xFE
	CIV_END        = 0xFD
	CIV_ADDR_RADIO = 0xA4 // IC-R8600 默认地址
	CIV_ADDR_PC    = 0xE0 // 控制器(PC) 默认地址
)

// SerialPort 定义串口操作接口，方便测试 Mock
type SerialPort interface {
	io.ReadWriteCloser
}

// CIVClient 处理与 ICOM 接收机的通信
// 检测开始前用它把给检测器喂基带的接收机调到目标信道
type CIVClient struct {
	Port     string
	BaudRate int
	conn     SerialPort
}

// NewCIVClient 创建新的 CI-V 客户端
func NewCIVClient(port string, baudRate int) *CIVClient {
	return &CIVClient{
		Port:     port,
		BaudRate: baudRate,
	}
}

// Open 打开串口连接
func (c *CIVClient) Open() error {
	config := &serial.Config{
		Name:        c.Port,
		Baud:        c.BaudRate,
		ReadTimeout: time.Millisecond * 500,
	}
	s, err := serial.OpenPort(config)
	if err != nil {
		return err
	}
	c.conn = s
	return nil
}

// Close 关闭串口连接
func (c *CIVClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendCommand 发送 CI-V 命令
func (c *CIVClient) SendCommand(cmd byte, data []byte) error {
	if c.conn == nil {
		return fmt.Errorf("connection not open")
	}
	// 构造帧: FE FE [To] [From] [Cmd] [Data...] FD
	frame := []byte{CIV_PREAMBLE, CIV_PREAMBLE, CIV_ADDR_RADIO, CIV_ADDR_PC, cmd}
	if len(data) > 0 {
		frame = append(frame, data...)
	}
	frame = append(frame, CIV_END)

	_, err := c.conn.Write(frame)
	return err
}

// SetFrequency 把接收机调谐到指定频率 (Hz)，Cmd 0x05
// 频率数据是 5 字节 BCD，低位在前
func (c *CIVClient) SetFrequency(freq int) error {
	if freq < 0 {
		return fmt.Errorf("invalid frequency %d", freq)
	}
	data := make([]byte, 5)
	for i := 0; i < 5; i++ {
		data[i] = decimalToBcd(freq % 100)
		freq /= 100
	}
	return c.SendCommand(0x05, data)
}

// ReadFrequency 读取当前频率 (Hz)
func (c *CIVClient) ReadFrequency() (int, error) {
	// Cmd 0x03: Read operating frequency
	if err := c.SendCommand(0x03, nil); err != nil {
		return 0, err
	}

	resp, err := c.readResponse(0x03)
	if err != nil {
		return 0, err
	}

	// 响应数据是 5 字节 BCD，低位在前
	// 例如 433.92 MHz -> 00 00 92 33 04
	if len(resp) < 5 {
		return 0, fmt.Errorf("invalid frequency data length")
	}

	freq := 0
	multiplier := 1
	for i := 0; i < 5 && i < len(resp); i++ {
		freq += bcdToDecimal(resp[i]) * multiplier
		multiplier *= 100
	}

	return freq, nil
}

// ReadMode 读取当前模式 (AM, FM, WFM, etc.)
func (c *CIVClient) ReadMode() (string, error) {
	// Cmd 0x04: Read operating mode
	if err := c.SendCommand(0x04, nil); err != nil {
		return "", err
	}

	resp, err := c.readResponse(0x04)
	if err != nil {
		return "", err
	}

	if len(resp) < 1 {
		return "", fmt.Errorf("invalid mode data")
	}

	modes := map[byte]string{
		0x00: "LSB", 0x01: "USB", 0x02: "AM", 0x03: "CW",
		0x04: "RTTY", 0x05: "FM", 0x06: "WFM", 0x07: "CW-R",
		0x08: "RTTY-R", 0x17: "DV",
	}

	modeByte := resp[0]
	if name, ok := modes[modeByte]; ok {
		return name, nil
	}
	return fmt.Sprintf("Unknown(0x%02X)", modeByte), nil
}

// readResponse 读取并解析响应
func (c *CIVClient) readResponse(expectedCmd byte) ([]byte, error) {
	if c.conn == nil {
		return nil, fmt.Errorf("connection not open")
	}
	buf := make([]byte, 1024)
	n, err := c.conn.Read(buf)
	if err != nil && err == io.EOF {
		return nil, fmt.Errorf("connection closed")
	}
	if n == 0 {
		return nil, fmt.Errorf("timeout or no data")
	}

	data := buf[:n]
	// 查找目标帧头: FE FE [To=PC] [From=Radio] [Cmd]
	// 串口可能会回显我们发送的指令，按帧头过滤即可
	header := []byte{CIV_PREAMBLE, CIV_PREAMBLE, CIV_ADDR_PC, CIV_ADDR_RADIO, expectedCmd}
	idx := bytes.Index(data, header)
	if idx == -1 {
		return nil, fmt.Errorf("response header not found in: %s", hex.EncodeToString(data))
	}

	frame := data[idx:]
	endIdx := bytes.IndexByte(frame, CIV_END)
	if endIdx == -1 {
		return nil, fmt.Errorf("frame end not found")
	}

	// 数据部分: Header(5 bytes) ... Data ... End(1 byte)
	if endIdx <= 5 {
		return []byte{}, nil // 无数据
	}

	return frame[5:endIdx], nil
}

func bcdToDecimal(b byte) int {
	return int((b>>4)*10 + (b & 0x0F))
}

func decimalToBcd(d int) byte {
	return byte((d/10)<<4 | (d % 10))
}
