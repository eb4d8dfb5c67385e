package eta

import "errors"

var (
	// ErrMinimumData 最少样本数必须大于等于 1
	ErrMinimumData = errors.New("minimum data must be at least 1")
	// ErrMaximumDuration 时间窗口必须大于 0
	ErrMaximumDuration = errors.New("maximum duration must be positive")
	// ErrTolerance 容差必须为非负有限数
	ErrTolerance = errors.New("tolerance must be a finite non-negative number")
	// ErrRegression 未知的进度回退策略
	ErrRegression = errors.New("unknown regression policy")
	// ErrTotalLength 总大小不能为负数
	ErrTotalLength = errors.New("total length must not be negative")
	// ErrStatus 当前状态不允许该操作
	ErrStatus = errors.New("invalid tracker status")
)
