package eta

import (
	"time"
)

// std 默认配置, Default 和 NewTracker 使用它创建计算器
var std = NewConfig()

// Default 使用默认配置创建计算器
func Default(opts ...OptionFunc) (*Calculator, error) {
	return NewWithConfig(std, opts...)
}

// DefaultConfig 默认配置的拷贝
func DefaultConfig() *Config {
	return std.Copy()
}

// SetMinimumData 设置计算 ETA 前至少需要的样本数
func SetMinimumData(d int) {
	std.MinimumData = d
}

// SetMaximumDuration 设置参与计算的时间窗口
func SetMaximumDuration(d time.Duration) {
	std.MaximumDuration = d
}

// SetTolerance 设置进度容差
func SetTolerance(d float32) {
	std.Tolerance = d
}

// SetRegression 设置进度回退时的处理策略
func SetRegression(d RegressionPolicy) {
	std.Regression = d
}

// SetClampProgress 设置是否把进度限制在 [0, 1]
func SetClampProgress(d bool) {
	std.ClampProgress = d
}

// ReplaceConfig 替换默认配置
func ReplaceConfig(cfg *Config) {
	std = cfg.Copy()
}
