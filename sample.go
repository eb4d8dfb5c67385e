package eta

import "time"

// Sample 进度样本
type Sample struct {
	// Timestamp 从创建或上次 Reset 开始经过的时间
	Timestamp time.Duration
	// Progress 进度, 0.0 ~ 1.0
	Progress float32
}

// window 一次发布给读取方的快照
// 读取方只通过 atomic.Pointer 拿到整个快照, oldest 和 current 总是成对出现
type window struct {
	// oldest 外推起点
	oldest Sample
	// current 最近一次接受的样本
	current Sample
	// count 发布时历史队列长度
	count int
}

// emptyWindow 空快照
var emptyWindow = &window{}

// slope 窗口内的进度差
func (w *window) slope() float32 {
	return w.current.Progress - w.oldest.Progress
}

// abs32 float32 绝对值
func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
