package Filters

import "sort"

// MedianFilter 对 AM 包络做滑动中值滤波，用于祛除脉冲型毛刺
// 窗口必须是奇数，历史缓冲区初始为全零
type MedianFilter struct {
	windowSize int
	values     []int16 // 最近 windowSize 个输入，values[0] 为最新
	temp       []int16 // 排序用的临时缓冲区
}

// NewMedianFilter 创建中值滤波器
// windowSize: 窗口长度，必须是正奇数（核心检测器使用 15）
func NewMedianFilter(windowSize int) *MedianFilter {
	if windowSize < 1 || windowSize%2 == 0 {
		panic("median filter window size must be a positive odd number")
	}
	return &MedianFilter{
		windowSize: windowSize,
		values:     make([]int16, windowSize),
		temp:       make([]int16, windowSize),
	}
}

// Process 输入一个采样，返回最近 windowSize 个输入的中值
func (f *MedianFilter) Process(sample int16) int16 {
	// 移位写入最新样本
	for i := f.windowSize - 1; i > 0; i-- {
		f.values[i] = f.values[i-1]
	}
	f.values[0] = sample

	// 复制到临时缓冲区排序，取中间元素
	copy(f.temp, f.values)
	sort.Slice(f.temp, func(a, b int) bool { return f.temp[a] < f.temp[b] })

	return f.temp[f.windowSize/2]
}
