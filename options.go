package eta

import (
	"time"

	"go.uber.org/zap"
)

// WithClock 设置时间来源, 默认为 SystemClock
func WithClock(d Clock) OptionFunc {
	return func(c *Calculator) {
		if d != nil {
			c.clock = d
		}
	}
}

// WithTolerance 设置进度容差, 默认为 0.001
func WithTolerance(d float32) OptionFunc {
	return func(c *Calculator) {
		c.config.Tolerance = d
	}
}

// WithRegression 设置进度回退时的处理策略
func WithRegression(d RegressionPolicy) OptionFunc {
	return func(c *Calculator) {
		c.config.Regression = d
	}
}

// WithClampProgress 设置是否把进度限制在 [0, 1]
func WithClampProgress(d bool) OptionFunc {
	return func(c *Calculator) {
		c.config.ClampProgress = d
	}
}

// WithLogger 设置日志
func WithLogger(d *zap.Logger) OptionFunc {
	return func(c *Calculator) {
		if d != nil {
			c.logger = d
		}
	}
}

// WithDebug 设置 debug 调试信息开关
func WithDebug(d bool) OptionFunc {
	return func(c *Calculator) {
		if d {
			c.logger = newDebugLogger()
		}
	}
}

// TrackerOptionFunc 进度跟踪器参数
type TrackerOptionFunc func(t *Tracker)

// WithEvent 事件监听
func WithEvent(e ...ProgressEvent) TrackerOptionFunc {
	return func(t *Tracker) {
		t.addEvent(e...)
	}
}

// WithEventExtend 事件监听
func WithEventExtend(e ...ProgressEventExtend) TrackerOptionFunc {
	return func(t *Tracker) {
		t.addEventExtend(e...)
	}
}

// WithBar 进度条
func WithBar(bars ...*Bar) TrackerOptionFunc {
	return func(t *Tracker) {
		var bar *Bar
		if len(bars) > 0 {
			bar = bars[0]
		} else {
			bar = NewBar()
		}
		t.addEvent(bar)
	}
}

// WithLabel 设置名称, 会出现在 Stat 中
func WithLabel(d string) TrackerOptionFunc {
	return func(t *Tracker) {
		t.label = d
	}
}

// WithInterval 设置发送事件的间隔, 默认为 200 毫秒
func WithInterval(d time.Duration) TrackerOptionFunc {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithSpeedLimit 设置速度限制, 单位为字节每秒, 默认为 0 无限制
func WithSpeedLimit(d int) TrackerOptionFunc {
	return func(t *Tracker) {
		t.speedLimit = d
	}
}

// WithEstimator 使用自定义的估算器, 设置后 WithTrackerConfig 和 WithCalculatorOptions 不再生效
func WithEstimator(d Estimator) TrackerOptionFunc {
	return func(t *Tracker) {
		t.estimator = d
	}
}

// WithTrackerConfig 设置创建计算器时使用的配置
func WithTrackerConfig(d *Config) TrackerOptionFunc {
	return func(t *Tracker) {
		if d != nil {
			t.config = d.Copy()
		}
	}
}

// WithCalculatorOptions 创建计算器时附加的参数
func WithCalculatorOptions(opts ...OptionFunc) TrackerOptionFunc {
	return func(t *Tracker) {
		t.calcOpts = append(t.calcOpts, opts...)
	}
}

// WithTrackerClock 设置跟踪器和计算器的时间来源
func WithTrackerClock(d Clock) TrackerOptionFunc {
	return func(t *Tracker) {
		if d != nil {
			t.clock = d
		}
	}
}

// WithTrackerLogger 设置跟踪器日志
func WithTrackerLogger(d *zap.Logger) TrackerOptionFunc {
	return func(t *Tracker) {
		if d != nil {
			t.logger = d
		}
	}
}

// WithTrackerDebug 设置跟踪器 debug 调试信息开关
func WithTrackerDebug(d bool) TrackerOptionFunc {
	return func(t *Tracker) {
		if d {
			t.logger = newDebugLogger()
		}
	}
}

// newDebugLogger 调试用的日志, 创建失败时退回到不输出
func newDebugLogger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
