package Filters

import (
	"math/rand"
	"sort"
	"testing"
)

// 参考实现：对最近 w 个输入（不足补零）排序取中值
func referenceMedian(history []int16, w int) int16 {
	window := make([]int16, w)
	n := len(history)
	for i := 0; i < w; i++ {
		idx := n - 1 - i
		if idx >= 0 {
			window[i] = history[idx]
		}
	}
	sort.Slice(window, func(a, b int) bool { return window[a] < window[b] })
	return window[w/2]
}

func TestMedianFilter_KnownSequence(t *testing.T) {
	f := NewMedianFilter(5)

	// 历史初始为零：前两个输出应该还是 0
	if got := f.Process(10); got != 0 {
		t.Errorf("step 1: expected 0, got %d", got)
	}
	if got := f.Process(20); got != 0 {
		t.Errorf("step 2: expected 0, got %d", got)
	}
	// 窗口 [30 20 10 0 0] -> 中值 10
	if got := f.Process(30); got != 10 {
		t.Errorf("step 3: expected 10, got %d", got)
	}
	// 窗口 [40 30 20 10 0] -> 中值 20
	if got := f.Process(40); got != 20 {
		t.Errorf("step 4: expected 20, got %d", got)
	}
	// 窗口 [50 40 30 20 10] -> 中值 30
	if got := f.Process(50); got != 30 {
		t.Errorf("step 5: expected 30, got %d", got)
	}
}

func TestMedianFilter_SpikeRejection(t *testing.T) {
	f := NewMedianFilter(15)

	// 3 个采样的尖峰不应该出现在输出里
	sawSpike := false
	for i := 0; i < 200; i++ {
		var in int16
		if i >= 100 && i < 103 {
			in = 20000
		}
		if out := f.Process(in); out != 0 {
			sawSpike = true
		}
	}
	if sawSpike {
		t.Error("3-sample spike leaked through a 15-sample median filter")
	}
}

func TestMedianFilter_MatchesReference(t *testing.T) {
	const w = 15
	f := NewMedianFilter(w)
	rng := rand.New(rand.NewSource(42))

	var history []int16
	for i := 0; i < 2000; i++ {
		in := int16(rng.Intn(65536) - 32768)
		history = append(history, in)
		got := f.Process(in)
		want := referenceMedian(history, w)
		if got != want {
			t.Fatalf("step %d: got %d, want %d", i, got, want)
		}
	}
}

func TestMedianFilter_RejectsEvenWindow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for even window size")
		}
	}()
	NewMedianFilter(4)
}
