package eta

// Status 运行状态
type Status int

const (
	// STATUS_NOTSTART 未开始
	STATUS_NOTSTART = Status(iota - 1)
	// STATUS_BEGIN 准备中
	STATUS_BEGIN
	// STATUS_RUNNING 运行中
	STATUS_RUNNING
	// STATUS_CLOSE 关闭
	STATUS_CLOSE
	// STATUS_ERROR 错误
	STATUS_ERROR
	// STATUS_FINISH 完成
	STATUS_FINISH
)

var statusNames = map[Status]string{
	STATUS_NOTSTART: "notstart",
	STATUS_BEGIN:    "begin",
	STATUS_RUNNING:  "running",
	STATUS_CLOSE:    "close",
	STATUS_ERROR:    "error",
	STATUS_FINISH:   "finish",
}

// Is 列表中是否有相同值
func (s Status) Is(ss ...Status) bool {
	for _, v := range ss {
		if s == v {
			return true
		}
	}
	return false
}

// Done 是否已经结束
func (s Status) Done() bool {
	return s.Is(STATUS_CLOSE, STATUS_ERROR, STATUS_FINISH)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}
