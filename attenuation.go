package ook

import (
	"fmt"
	"math"
	"os"
)

// 电平换算：满刻度参考 16384
// 幅度流 (amplitude) 用 ÷10 指数，模量流 (magnitude) 用 ÷20 指数

// dbToAmp 把 dB 换算为幅度流的线性电平 (16384 FS)
func dbToAmp(db float64) int {
	return int(math.Round(16384.0 * math.Pow(10.0, db/10.0)))
}

// dbToMag 把 dB 换算为模量流的线性电平 (16384 FS)
func dbToMag(db float64) int {
	return int(math.Round(16384.0 * math.Pow(10.0, db/20.0)))
}

// ampAttThresholds[k] = 10^(((3-k) + 42.1442) / 10)，即比满刻度高 3 dB
// 起步的整数 dB 台阶
var ampAttThresholds = [36]int{
	32690, 25967, 20626, 16383, 13014, 10338, 8211, 6523, 5181,
	4115, 3269, 2597, 2063, 1638, 1301, 1034, 821, 652, 518,
	412, 327, 260, 206, 164, 130, 103, 82, 65, 52,
	41, 33, 26, 21, 16, 13, 10,
}

// magAttThresholds[k] = 10^(((3-k) + 84.2884) / 20)
var magAttThresholds = [36]int{
	23143, 20626, 18383, 16383, 14602, 13014, 11599, 10338, 9213,
	8211, 7318, 6523, 5813, 5181, 4618, 4115, 3668, 3269, 2914,
	2597, 2314, 2063, 1838, 1638, 1460, 1301, 1160, 1034, 921,
	821, 732, 652, 581, 518, 462, 412,
}

// AmpToAtt 把幅度 (16384 FS) 换算为整数 dB 衰减值 [0,36]，偏移 3 dB
func AmpToAtt(a int) int {
	for i, th := range ampAttThresholds {
		if a > th {
			return i
		}
	}
	return 36
}

// MagToAtt 把模量 (16384 FS) 换算为整数 dB 衰减值 [0,36]，偏移 3 dB
func MagToAtt(m int) int {
	for i, th := range magAttThresholds {
		if m > th {
			return i
		}
	}
	return 36
}

// printAttHist 打印简单的衰减直方图
func printAttHist(s string, attHist *[37]int) {
	fmt.Fprintf(os.Stderr, "\n%s\n", s)
	for i := 0; i < 37; i++ {
		fmt.Fprintf(os.Stderr, ">%3d dB: %5d smps\n", 3-i, attHist[i])
	}
}
