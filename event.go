package eta

import "time"

// ProgressEvent 进度事件
type ProgressEvent interface {
	Change(stat *Stat)
}

// Stat 进行中的信息
// 同一个跟踪器每次发送的是同一个 Stat, 需要保留时请拷贝
type Stat struct {
	// Label 名称
	Label string
	// Status 状态
	Status Status
	// TotalLength 总大小, 为 0 时表示未知
	TotalLength int64
	// CompletedLength 已完成的大小
	CompletedLength int64
	// DownloadSpeed 每秒完成的字节数
	DownloadSpeed int64
	// EstimatedTime 预计完成还需要的时间, EtaAvailable 为 false 时为 Infinite
	EstimatedTime time.Duration
	// EstimatedArrival 预计完成的时间点, EtaAvailable 为 false 时为零值
	EstimatedArrival time.Time
	// EtaAvailable 是否有足够的数据估算完成时间
	EtaAvailable bool
	// Elapsed 从开始经过的时间
	Elapsed time.Duration
	// Progress 进度, 0 ~ 100
	Progress int
	// Error 错误信息
	Error error
}
