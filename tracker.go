package eta

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Estimator 进度估算器, *Calculator 是默认实现
type Estimator interface {
	Update(progress float32)
	Reset()
	ETR() time.Duration
	ETA() (time.Time, bool)
	Available() bool
	Rate() float64
}

var _ Estimator = &Calculator{}

// DefaultInterval 默认发送事件的间隔
const DefaultInterval = time.Millisecond * 200

// Tracker 字节进度跟踪器
// 定时把已完成大小换算为进度交给估算器, 并把结果作为 Stat 发送给进度事件
type Tracker struct {
	// ctx 上下文
	ctx context.Context
	// cancel 取消上下文
	cancel context.CancelFunc

	// config 创建计算器的配置
	config *Config
	// calcOpts 创建计算器的参数
	calcOpts []OptionFunc
	// estimator 估算器
	estimator Estimator
	// clock 时间来源
	clock Clock
	// logger 日志
	logger *zap.Logger

	// label 名称
	label string
	// interval 发送事件的间隔
	interval time.Duration
	// speedLimit 速度限制
	speedLimit int
	// rate 限速器
	rate *rate.Limiter

	// totalSize 总大小
	totalSize int64
	// completedSize 已完成大小
	completedSize int64
	// startTime 开始时间
	startTime time.Time

	// event 进度事件
	event []ProgressEvent
	// eventExtend 进度事件扩展
	eventExtend []ProgressEventExtend
	// sendEvent 事件发送, 调用时需要持有 sendMux
	sendEvent func()
	// sendMux 保证同一时间只有一个发送方更新估算器, 与 mux 同时持有时先持有 sendMux
	sendMux sync.Mutex

	// mux 锁
	mux sync.Mutex
	// status 运行状态
	status Status
	// isclose 是否执行了 close
	isclose bool
	// finishing 已经结束, 最后一次事件和 done 通知还没有发出
	finishing bool
	// err 运行时产生的错误
	err error
	// done 完成的通道通知
	done chan error
	// loop 自动发送事件的 goroutine 退出通知
	loop chan struct{}
}

// NewTracker 创建进度跟踪器, total 为 0 时表示总大小未知
func NewTracker(total int64, opts ...TrackerOptionFunc) (*Tracker, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrTotalLength, total)
	}
	t := &Tracker{
		config:    std.Copy(),
		clock:     SystemClock,
		logger:    zap.NewNop(),
		interval:  DefaultInterval,
		totalSize: total,
		status:    STATUS_NOTSTART,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.estimator == nil {
		calcOpts := append([]OptionFunc{WithClock(t.clock)}, t.calcOpts...)
		calc, err := NewWithConfig(t.config, calcOpts...)
		if err != nil {
			return nil, err
		}
		t.estimator = calc
	}
	t.setSpeedLimit(t.speedLimit)

	return t, nil
}

// Start 开始跟踪
// 已经关闭或出错的跟踪器可以在 Wait 返回后再次开始, 已完成大小保留, 估算器重新计时
// Wait 返回前再次开始会返回 ErrStatus
func (t *Tracker) Start(ctx context.Context) error {
	// 上一次的结束事件可能还在发送, 此时 sendMux 被占用
	if t.isFinishing() {
		return fmt.Errorf("%w: status is finishing", ErrStatus)
	}
	t.sendMux.Lock()
	defer t.sendMux.Unlock()
	t.mux.Lock()
	defer t.mux.Unlock()

	switch {
	case t.finishing:
		return fmt.Errorf("%w: status is finishing", ErrStatus)
	case t.status.Is(STATUS_FINISH):
		return fmt.Errorf("%w: status is finish", ErrStatus)
	case t.status.Is(STATUS_BEGIN, STATUS_RUNNING):
		return fmt.Errorf("%w: status is running", ErrStatus)
	case t.status.Is(STATUS_CLOSE, STATUS_ERROR):
		t.logger.Debug("reuse tracker", zap.String("label", t.label))
		t.estimator.Reset()
	default:
		t.logger.Debug("new tracker", zap.String("label", t.label), zap.Int64("total", t.Total()))
	}
	t.status = STATUS_BEGIN

	t.ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan error, 1)
	t.loop = make(chan struct{})
	t.isclose = false
	t.err = nil
	t.startTime = t.clock.Now()

	// 加载事件
	t.loadEvent()

	t.status = STATUS_RUNNING
	go t.autoSendEvent(t.ctx, t.loop)
	return nil
}

// Add 增加已完成大小
func (t *Tracker) Add(n int64) {
	atomic.AddInt64(&t.completedSize, n)
}

// SetCompleted 设置已完成大小
func (t *Tracker) SetCompleted(n int64) {
	atomic.StoreInt64(&t.completedSize, n)
}

// Completed 已完成大小
func (t *Tracker) Completed() int64 {
	return atomic.LoadInt64(&t.completedSize)
}

// SetTotal 设置总大小, 用于开始后才知道总大小的情况
func (t *Tracker) SetTotal(n int64) {
	if n < 0 {
		n = 0
	}
	atomic.StoreInt64(&t.totalSize, n)
}

// Total 总大小
func (t *Tracker) Total() int64 {
	return atomic.LoadInt64(&t.totalSize)
}

// Finish 结束跟踪, err 为 nil 时状态为完成, 否则为错误
// 不会等待最后一次事件发出, 需要时使用 Wait
func (t *Tracker) Finish(err error) {
	t.finish(err, false)
}

// Close 中途关闭跟踪
func (t *Tracker) Close() {
	t.finish(nil, true)
}

// Wait 阻塞通知
func (t *Tracker) Wait() <-chan error {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.done
}

// Status 运行状态
func (t *Tracker) Status() Status {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.status
}

// Error 获取错误
func (t *Tracker) Error() error {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.err
}

// Estimator 使用中的估算器
func (t *Tracker) Estimator() Estimator {
	return t.estimator
}

// context 跟踪器的上下文, 未开始时为 context.Background
func (t *Tracker) context() context.Context {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

// finish 结束后的善后工作
func (t *Tracker) finish(err error, isclose bool) {
	t.mux.Lock()
	if !t.status.Is(STATUS_BEGIN, STATUS_RUNNING) {
		t.mux.Unlock()
		return
	}
	// 手动 Close
	if isclose {
		err = nil
	}
	// 上下文超时
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("timeout: %w", err)
	}
	t.isclose = isclose
	t.err = err
	switch {
	case err != nil:
		t.status = STATUS_ERROR
	case isclose:
		t.status = STATUS_CLOSE
	default:
		t.status = STATUS_FINISH
	}
	t.finishing = true
	status, done, loop, send := t.status, t.done, t.loop, t.sendEvent
	t.cancel()
	t.mux.Unlock()

	// 事件回调中也会调用 Close / Finish, 善后工作不能阻塞调用方
	go t.afterFinish(err, status, done, loop, send)
}

// afterFinish 等待自动发送事件的 goroutine 退出, 发送最后一次事件后通知 Wait
func (t *Tracker) afterFinish(err error, status Status, done chan error, loop chan struct{}, send func()) {
	<-loop
	t.logger.Debug("tracker finish",
		zap.String("label", t.label),
		zap.Stringer("status", status),
		zap.Int64("completed", t.Completed()),
		zap.Error(err),
	)
	t.sendMux.Lock()
	send()
	t.sendMux.Unlock()

	t.mux.Lock()
	t.finishing = false
	t.mux.Unlock()
	done <- err
	close(done)
}

// isFinishing 是否在等待结束的善后工作
func (t *Tracker) isFinishing() bool {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.finishing
}

// setSpeedLimit 设置限速
func (t *Tracker) setSpeedLimit(speedLimit int) {
	if speedLimit > 0 {
		if speedLimit < COPY_BUFFER_SIZE {
			speedLimit = COPY_BUFFER_SIZE
		}
		t.rate = rate.NewLimiter(rate.Limit(speedLimit), speedLimit)
	} else {
		t.rate = nil
	}
	t.speedLimit = speedLimit
}

// rateWaitN 消费限速器, n 大于桶容量时分批等待
func (t *Tracker) rateWaitN(ctx context.Context, n int) error {
	if t.rate == nil {
		return nil
	}
	burst := t.rate.Burst()
	for n > 0 {
		m := min(n, burst)
		if err := t.rate.WaitN(ctx, m); err != nil {
			return err
		}
		n -= m
	}
	return nil
}
