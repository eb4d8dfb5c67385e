package eta

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
	"go.uber.org/zap"
)

// Infinite 无法估算时返回的剩余时间
const Infinite = time.Duration(math.MaxInt64)

// Calculator 基于滚动时间窗口的 ETA 计算器
//
// 用窗口内最早的样本和最新的样本做线性外推, 估算进度到达 1.0 还需要的时间.
// Update 和 Reset 只允许一个写入方调用, ETR / ETA / Available / Rate / Len
// 可以在任意 goroutine 中与写入方并发调用.
type Calculator struct {
	// config 配置
	config *Config
	// clock 时间来源
	clock Clock
	// timer 秒表, 只有写入方访问
	timer *stopwatch
	// history 样本队列, 只有写入方访问
	history *deque.Deque[Sample]
	// snapshot 发布给读取方的快照
	snapshot atomic.Pointer[window]
	// logger 日志
	logger *zap.Logger
}

// OptionFunc 参数
type OptionFunc func(c *Calculator)

// New 创建计算器
// minimumData 计算 ETA 前至少需要的样本数, maximumDuration 参与计算的时间窗口
func New(minimumData int, maximumDuration time.Duration, opts ...OptionFunc) (*Calculator, error) {
	cfg := NewConfig()
	cfg.MinimumData = minimumData
	cfg.MaximumDuration = maximumDuration
	return NewWithConfig(cfg, opts...)
}

// NewWithConfig 根据配置创建计算器, 配置会被拷贝
func NewWithConfig(cfg *Config, opts ...OptionFunc) (*Calculator, error) {
	c := &Calculator{
		config: cfg.Copy(),
		clock:  SystemClock,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	c.timer = newStopwatch(c.clock)
	c.history = deque.New[Sample](c.config.MinimumData * 2)
	c.snapshot.Store(emptyWindow)

	c.logger.Debug("eta calculator created",
		zap.Int("minimumData", c.config.MinimumData),
		zap.Duration("maximumDuration", c.config.MaximumDuration),
		zap.Float32("tolerance", c.config.Tolerance),
		zap.Stringer("regression", c.config.Regression),
	)
	return c, nil
}

// MustNew 同 New, 参数错误时 panic
func MustNew(minimumData int, maximumDuration time.Duration, opts ...OptionFunc) *Calculator {
	c, err := New(minimumData, maximumDuration, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Config 返回配置的拷贝
func (c *Calculator) Config() *Config {
	return c.config.Copy()
}

// Update 记录当前进度
// progress 应在 [0, 1] 之间, ClampProgress 开启时超出范围的值会被限制, NaN 和无穷大会被忽略
func (c *Calculator) Update(progress float32) {
	p := float64(progress)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		c.logger.Debug("ignore non-finite progress", zap.Float32("progress", progress))
		return
	}
	if c.config.ClampProgress {
		if progress < 0 {
			progress = 0
		} else if progress > 1 {
			progress = 1
		}
	}

	prev := c.snapshot.Load()
	// 进度没有变化, 忽略
	if c.history.Len() > 0 && abs32(progress-prev.current.Progress) < c.config.Tolerance {
		return
	}

	now := c.timer.elapsed()
	next := &window{oldest: prev.oldest}

	// 为新样本腾出空间
	c.clearExpired(now, next)

	sample := Sample{Timestamp: now, Progress: progress}
	c.history.PushBack(sample)
	next.current = sample
	// 第一个样本同时是外推起点
	if c.history.Len() == 1 {
		next.oldest = sample
	}
	next.count = c.history.Len()

	c.snapshot.Store(next)
}

// clearExpired 移除窗口之外的样本, 但保留至少 MinimumData 个
// 最后被移除的样本成为新的外推起点
func (c *Calculator) clearExpired(now time.Duration, next *window) {
	expired := now - c.config.MaximumDuration
	evicted := 0
	for c.history.Len() > c.config.MinimumData && c.history.Front().Timestamp < expired {
		next.oldest = c.history.PopFront()
		evicted++
	}
	if evicted > 0 {
		c.logger.Debug("evict expired samples",
			zap.Int("evicted", evicted),
			zap.Int("remaining", c.history.Len()),
			zap.Duration("oldest", next.oldest.Timestamp),
		)
	}
}

// Reset 清空所有数据并重新开始计时, 配置不变
func (c *Calculator) Reset() {
	c.history.Clear()
	c.timer.restart()
	c.snapshot.Store(emptyWindow)
	c.logger.Debug("eta calculator reset")
}

// Available 是否有足够的数据计算 ETA
func (c *Calculator) Available() bool {
	_, ok := c.estimate(c.snapshot.Load())
	return ok
}

// ETR 预计剩余时间, 无法估算时返回 Infinite
func (c *Calculator) ETR() time.Duration {
	d, _ := c.estimate(c.snapshot.Load())
	return d
}

// ETA 预计完成时间, 无法估算时返回零值和 false
func (c *Calculator) ETA() (time.Time, bool) {
	d, ok := c.estimate(c.snapshot.Load())
	if !ok || d == Infinite {
		return time.Time{}, false
	}
	return c.clock.Now().Add(d), true
}

// Rate 窗口内每秒的进度变化, 数据不足时为 0
func (c *Calculator) Rate() float64 {
	w := c.snapshot.Load()
	elapsed := w.current.Timestamp - w.oldest.Timestamp
	if elapsed <= 0 {
		return 0
	}
	return float64(w.slope()) / elapsed.Seconds()
}

// Len 历史队列中的样本数
func (c *Calculator) Len() int {
	return c.snapshot.Load().count
}

// History 历史队列的拷贝, 由最早到最新
// 不能与 Update / Reset 并发调用
func (c *Calculator) History() []Sample {
	samples := make([]Sample, c.history.Len())
	for i := range samples {
		samples[i] = c.history.At(i)
	}
	return samples
}

// estimate 根据快照做线性外推
func (c *Calculator) estimate(w *window) (time.Duration, bool) {
	if w.count < c.config.MinimumData {
		return Infinite, false
	}
	delta := w.slope()
	if !(abs32(delta) > c.config.Tolerance) {
		return Infinite, false
	}
	if delta < 0 && c.config.Regression == RegressionUnavailable {
		return Infinite, false
	}

	elapsed := float64(w.current.Timestamp - w.oldest.Timestamp)
	remaining := (1.0 - float64(w.current.Progress)) * elapsed / float64(delta)

	if remaining < 0 && c.config.Regression != RegressionRaw {
		return 0, true
	}
	return saturate(remaining), true
}

// saturate 浮点数转换为 time.Duration, 超出范围时取边界值
func saturate(ns float64) time.Duration {
	if ns >= math.MaxInt64 {
		return Infinite
	}
	if ns <= math.MinInt64 {
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ns)
}
