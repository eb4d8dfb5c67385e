package eta

import (
	"sync"
	"time"
)

// Clock 时间来源
// 计算器只用 Now 之间的差值计算经过时间, time.Now 返回的时间带有单调时钟读数, 不受系统时间调整影响
type Clock interface {
	Now() time.Time
}

// systemClock 系统时钟
type systemClock struct{}

// Now 当前时间
func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock 默认时钟
var SystemClock Clock = systemClock{}

// ManualClock 手动拨动的时钟, 用于测试和模拟
type ManualClock struct {
	mux sync.Mutex
	now time.Time
}

// NewManualClock 创建手动时钟
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now 当前时间
func (m *ManualClock) Now() time.Time {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.now
}

// Advance 时间向前拨动 d
func (m *ManualClock) Advance(d time.Duration) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.now = m.now.Add(d)
}

// Set 设置当前时间
func (m *ManualClock) Set(t time.Time) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.now = t
}

// stopwatch 秒表, 记录从 restart 开始经过的时间
// 只允许写入方调用
type stopwatch struct {
	clock Clock
	start time.Time
	// last 上一次读数, 保证读数不倒退
	last time.Duration
}

// newStopwatch 创建并启动秒表
func newStopwatch(clock Clock) *stopwatch {
	return &stopwatch{
		clock: clock,
		start: clock.Now(),
	}
}

// elapsed 经过的时间
func (sw *stopwatch) elapsed() time.Duration {
	d := sw.clock.Now().Sub(sw.start)
	if d < sw.last {
		d = sw.last
	}
	sw.last = d
	return d
}

// restart 归零并重新开始计时
func (sw *stopwatch) restart() {
	sw.start = sw.clock.Now()
	sw.last = 0
}
