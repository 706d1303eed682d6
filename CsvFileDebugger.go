package ook

import (
	"bufio"
	"fmt"
	"os"
)

// SignalDebugger 定义逐采样调试器接口
// 检测器只依赖这个接口，不依赖具体的文件操作
type SignalDebugger interface {
	Record(am, fm int16, thresholdHi, thresholdLo int, state bool)
	Close()
}

// CsvFileDebugger 是 SignalDebugger 的具体实现
// 它封装了文件句柄，不向外暴露
type CsvFileDebugger struct {
	file   *os.File
	writer *bufio.Writer
}

// NewCsvFileDebugger 创建一个新的 CSV 调试器
func NewCsvFileDebugger(filename string) (*CsvFileDebugger, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	w := bufio.NewWriter(f)
	// 写入表头
	if _, err := w.WriteString("AM,FM,ThresholdHi,ThresholdLo,PulseState\n"); err != nil {
		f.Close()
		return nil, err
	}

	return &CsvFileDebugger{
		file:   f,
		writer: w,
	}, nil
}

// Record 记录单个采样的条件化结果和当时的阈值
func (d *CsvFileDebugger) Record(am, fm int16, thresholdHi, thresholdLo int, state bool) {
	stateVal := 0
	if state {
		stateVal = 1
	}
	fmt.Fprintf(d.writer, "%d,%d,%d,%d,%d\n", am, fm, thresholdHi, thresholdLo, stateVal)
}

// Close 关闭文件并刷新缓冲区
func (d *CsvFileDebugger) Close() {
	if d.writer != nil {
		d.writer.Flush()
	}
	if d.file != nil {
		d.file.Close()
	}
}

// NoOpDebugger 是一个空实现，用于不需要记录数据的场合
// 这样可以避免在核心代码中写大量的判空检查
type NoOpDebugger struct{}

func (d *NoOpDebugger) Record(am, fm int16, thresholdHi, thresholdLo int, state bool) {}
func (d *NoOpDebugger) Close()                                                       {}
