package eta

// ProgressEventExtend 进度事件扩展
type ProgressEventExtend interface {
	// Change 进度变化
	Change(stat *EventExtend)
	// Close 中途暂停
	Close(stat *EventExtend)
	// Error 出现错误
	Error(stat *EventExtend)
	// Finish 完成
	Finish(stat *EventExtend)
}

// EventExtend 按状态把进度事件分发给 ProgressEventExtend
type EventExtend struct {
	// Stat 信息
	*Stat
	// events 事件列表
	events []ProgressEventExtend
}

var _ ProgressEvent = &EventExtend{}

// NewEventExtend 创建事件扩展
func NewEventExtend(e ...ProgressEventExtend) *EventExtend {
	return &EventExtend{
		events: e,
	}
}

// AddEvent 新增事件
func (se *EventExtend) AddEvent(e ...ProgressEventExtend) {
	se.events = append(se.events, e...)
}

// Change 检查更新
func (se *EventExtend) Change(stat *Stat) {
	se.Stat = stat
	var send func(ProgressEventExtend)
	switch {
	case stat.Status.Is(STATUS_ERROR):
		send = func(e ProgressEventExtend) { e.Error(se) }
	case stat.Status.Is(STATUS_CLOSE):
		send = func(e ProgressEventExtend) { e.Close(se) }
	case stat.Status.Is(STATUS_FINISH):
		send = func(e ProgressEventExtend) { e.Finish(se) }
	default:
		send = func(e ProgressEventExtend) { e.Change(se) }
	}
	for _, event := range se.events {
		send(event)
	}
}
