package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
)

// 合成一个用于回放测试的双声道 WAV：
// 左声道 = AM 包络，右声道 = FM 鉴频输出
// 内容：底噪引导段 -> 一个 OOK 突发 -> 静默 -> 一个 FSK 突发 -> 静默

type stereoWriter struct {
	file   *os.File
	frames int
	rate   int
}

func newStereoWriter(filename string, rate int) (*stereoWriter, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	// 占位头，Close 时回写
	if _, err := f.Write(make([]byte, 44)); err != nil {
		f.Close()
		return nil, err
	}
	return &stereoWriter{file: f, rate: rate}, nil
}

func (w *stereoWriter) writeFrame(envelope, fm int16) {
	var buf [4]byte
	binary.LittleEndian.PutUint16(buf[0:], uint16(envelope))
	binary.LittleEndian.PutUint16(buf[2:], uint16(fm))
	w.file.Write(buf[:])
	w.frames++
}

func (w *stereoWriter) close() error {
	dataSize := uint32(w.frames * 4)
	header := make([]byte, 44)
	copy(header[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:], 36+dataSize)
	copy(header[8:], []byte("WAVE"))
	copy(header[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1)
	binary.LittleEndian.PutUint16(header[22:], 2) // Stereo
	binary.LittleEndian.PutUint32(header[24:], uint32(w.rate))
	binary.LittleEndian.PutUint32(header[28:], uint32(w.rate*4))
	binary.LittleEndian.PutUint16(header[32:], 4)
	binary.LittleEndian.PutUint16(header[34:], 16)
	copy(header[36:], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:], dataSize)

	if _, err := w.file.Seek(0, 0); err != nil {
		return err
	}
	if _, err := w.file.Write(header); err != nil {
		return err
	}
	return w.file.Close()
}

func main() {
	out := flag.String("o", "test_pulses.wav", "Output wav file")
	rate := flag.Int("rate", 250000, "Sample rate")
	noise := flag.Int("noise", 50, "Peak noise amplitude on the envelope")
	flag.Parse()

	w, err := newStereoWriter(*out, *rate)
	if err != nil {
		log.Fatalf("create output failed: %v", err)
	}

	noiseSample := func() int16 {
		if *noise == 0 {
			return 0
		}
		return int16(rand.Intn(2*(*noise)) - *noise)
	}

	writeSilence := func(n int) {
		for i := 0; i < n; i++ {
			w.writeFrame(noiseSample(), noiseSample())
		}
	}

	// 1. 引导段：让底噪估计收敛
	writeSilence(3000)

	// 2. OOK 突发：5 个 100 采样的脉冲，间隔 200 采样
	for p := 0; p < 5; p++ {
		for i := 0; i < 100; i++ {
			w.writeFrame(20000, noiseSample())
		}
		if p < 4 {
			for i := 0; i < 200; i++ {
				w.writeFrame(noiseSample(), noiseSample())
			}
		}
	}

	// 3. 静默，把 OOK 包收掉
	writeSilence(*rate / 4)

	// 4. FSK 突发：一个 4000 采样的长脉冲，FM 每 50 采样在 ±5000 间切换
	fmLevel := int16(5000)
	for i := 0; i < 4000; i++ {
		if i > 0 && i%50 == 0 {
			fmLevel = -fmLevel
		}
		w.writeFrame(20000, fmLevel)
	}

	// 5. 收尾静默
	writeSilence(*rate / 4)

	if err := w.close(); err != nil {
		log.Fatalf("close output failed: %v", err)
	}
	fmt.Printf("Wrote %d frames to %s\n", w.frames, *out)
}
