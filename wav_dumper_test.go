package ook

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestWavDumper_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.wav")

	w, err := NewWavDumper(path, 250000, 16)
	if err != nil {
		t.Fatalf("create dumper: %v", err)
	}
	for i := 0; i < 100; i++ {
		w.WriteSample(int16(i * 100))
	}

	// Close 之前文件头还是占位长度（崩溃时文件仍可播放）
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if got := binary.LittleEndian.Uint32(raw[40:44]); got != 0x0FFFFFFF {
		t.Errorf("expected placeholder data size before close, got %#x", got)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close dumper: %v", err)
	}

	// 回读验证头已被回写、数据完整
	r, err := NewWavReader(path)
	if err != nil {
		t.Fatalf("open dumped file: %v", err)
	}
	defer r.Close()

	if r.SampleRate != 250000 {
		t.Errorf("expected sample rate 250000, got %d", r.SampleRate)
	}
	if r.Channels != 1 {
		t.Errorf("expected mono, got %d channels", r.Channels)
	}
	if r.DataSize != 200 {
		t.Errorf("expected 200 data bytes, got %d", r.DataSize)
	}

	envelope, fm, err := r.ReadSamplePair(100)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	for i, v := range envelope {
		if v != int16(i*100) {
			t.Fatalf("sample %d: got %d, want %d", i, v, i*100)
		}
	}
	// 单声道文件 FM 流补零
	for i, v := range fm {
		if v != 0 {
			t.Fatalf("fm sample %d: expected 0, got %d", i, v)
		}
	}
}

func TestWavDumper_NilIsNoOp(t *testing.T) {
	var w *WavDumper
	w.WriteSample(123)
	if err := w.Close(); err != nil {
		t.Errorf("nil close: %v", err)
	}
}

func TestWavDumper_CreateFailureLeavesSinkDisabled(t *testing.T) {
	_, err := NewWavDumper("/nonexistent-dir/dump.wav", 250000, 16)
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestWavReader_Stereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")

	// 手工构造双声道文件: 左=包络, 右=FM
	const frames = 50
	dataSize := uint32(frames * 4)
	buf := make([]byte, 44+int(dataSize))
	copy(buf[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(buf[4:], 36+dataSize)
	copy(buf[8:], []byte("WAVE"))
	copy(buf[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 2)
	binary.LittleEndian.PutUint32(buf[24:], 48000)
	binary.LittleEndian.PutUint32(buf[28:], 48000*4)
	binary.LittleEndian.PutUint16(buf[32:], 4)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], []byte("data"))
	binary.LittleEndian.PutUint32(buf[40:], dataSize)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(buf[44+i*4:], uint16(int16(1000+i)))
		binary.LittleEndian.PutUint16(buf[46+i*4:], uint16(int16(-1000-i)))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	r, err := NewWavReader(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if r.Channels != 2 {
		t.Fatalf("expected stereo, got %d channels", r.Channels)
	}
	envelope, fm, err := r.ReadSamplePair(frames)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for i := 0; i < frames; i++ {
		if envelope[i] != int16(1000+i) || fm[i] != int16(-1000-i) {
			t.Fatalf("frame %d: got (%d,%d)", i, envelope[i], fm[i])
		}
	}
}
