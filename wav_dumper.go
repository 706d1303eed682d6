package ook

import (
	"encoding/binary"
	"os"
)

// WavDumper 把单路 16-bit mono PCM 采样流转储成 WAV 文件，用于调试
// 创建时写入一次带占位长度的文件头，Close 时回写真实长度。
// 占位长度故意取得很大：进程崩溃时文件仍然可以播放到占位长度为止。
// 接收者为 nil 时所有方法都是空操作，检测器不需要判空
type WavDumper struct {
	file           *os.File
	buffer         []int16
	samplesWritten int
}

const wavDumperPlaceholder = 0x0FFFFFFF

// NewWavDumper 创建转储器并写入占位文件头
// bufferSize: 内部缓冲的采样数，攒满一批才落盘
func NewWavDumper(filename string, sampleRate uint32, bufferSize int) (*WavDumper, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 44)
	copy(header[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:], wavDumperPlaceholder)
	copy(header[8:], []byte("WAVE"))
	copy(header[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:], 16) // PCM fmt chunk
	binary.LittleEndian.PutUint16(header[20:], 1)  // AudioFormat PCM
	binary.LittleEndian.PutUint16(header[22:], 1)  // Mono
	binary.LittleEndian.PutUint32(header[24:], sampleRate)
	binary.LittleEndian.PutUint32(header[28:], sampleRate*2) // ByteRate
	binary.LittleEndian.PutUint16(header[32:], 2)            // BlockAlign
	binary.LittleEndian.PutUint16(header[34:], 16)           // BitsPerSample
	copy(header[36:], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:], wavDumperPlaceholder)

	if _, err := f.Write(header); err != nil {
		f.Close()
		return nil, err
	}

	return &WavDumper{
		file:   f,
		buffer: make([]int16, 0, bufferSize),
	}, nil
}

// WriteSample 写入一个采样，缓冲满时落盘
func (w *WavDumper) WriteSample(sample int16) {
	if w == nil {
		return
	}
	w.buffer = append(w.buffer, sample)
	w.samplesWritten++
	if len(w.buffer) == cap(w.buffer) {
		w.flush()
	}
}

func (w *WavDumper) flush() {
	if len(w.buffer) == 0 {
		return
	}
	buf := make([]byte, len(w.buffer)*2)
	for i, s := range w.buffer {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	_, _ = w.file.Write(buf)
	w.buffer = w.buffer[:0]
}

// Close 冲刷缓冲并把真实长度回写进文件头
func (w *WavDumper) Close() error {
	if w == nil {
		return nil
	}
	w.flush()

	dataSize := uint32(w.samplesWritten * 2)
	sizeBuf := make([]byte, 4)

	binary.LittleEndian.PutUint32(sizeBuf, 36+dataSize)
	if _, err := w.file.WriteAt(sizeBuf, 4); err != nil {
		w.file.Close()
		return err
	}
	binary.LittleEndian.PutUint32(sizeBuf, dataSize)
	if _, err := w.file.WriteAt(sizeBuf, 40); err != nil {
		w.file.Close()
		return err
	}

	return w.file.Close()
}
