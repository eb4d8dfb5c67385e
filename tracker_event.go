package eta

import (
	"context"
	"time"
)

// loadEvent 加载事件
func (t *Tracker) loadEvent() {
	if len(t.eventExtend) > 0 {
		t.addEvent(NewEventExtend(t.eventExtend...))
		t.eventExtend = make([]ProgressEventExtend, 0)
	}
	t.sendEvent = t.sendEventFunc()
}

// addEvent 新增事件
func (t *Tracker) addEvent(e ...ProgressEvent) {
	t.event = append(t.event, e...)
}

// addEventExtend 新增事件扩展
func (t *Tracker) addEventExtend(e ...ProgressEventExtend) {
	t.eventExtend = append(t.eventExtend, e...)
}

// autoSendEvent 自动发送事件
func (t *Tracker) autoSendEvent(ctx context.Context, loop chan struct{}) {
	defer close(loop)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.send()
		case <-ctx.Done():
			return
		}
	}
}

// send 发送一次事件
func (t *Tracker) send() {
	t.sendMux.Lock()
	defer t.sendMux.Unlock()
	t.sendEvent()
}

// sendEventFunc 发送事件信息
// 返回的函数是估算器唯一的写入方
func (t *Tracker) sendEventFunc() func() {
	var (
		stat          = &Stat{Label: t.label}
		lastTime      = t.clock.Now()
		lastCompleted = t.Completed()
	)
	return func() {
		now := t.clock.Now()
		completed := t.Completed()
		total := t.Total()
		if total > 0 {
			t.estimator.Update(progressOf(completed, total))
		}

		t.fillStat(stat, now, completed, total)
		// 总大小未知时, 用两次发送之间的差值计算速度
		if total <= 0 {
			if elapsed := now.Sub(lastTime); elapsed > 0 {
				stat.DownloadSpeed = int64(float64(completed-lastCompleted) / elapsed.Seconds())
			}
		}
		lastTime, lastCompleted = now, completed

		for _, e := range t.event {
			e.Change(stat)
		}
	}
}

// Stat 当前信息, 不会更新估算器
func (t *Tracker) Stat() *Stat {
	stat := &Stat{Label: t.label}
	t.fillStat(stat, t.clock.Now(), t.Completed(), t.Total())
	return stat
}

// fillStat 填充 Stat
func (t *Tracker) fillStat(stat *Stat, now time.Time, completed, total int64) {
	t.mux.Lock()
	stat.Status = t.status
	stat.Error = t.err
	startTime := t.startTime
	t.mux.Unlock()

	stat.TotalLength = total
	stat.CompletedLength = completed
	stat.Progress = 0
	stat.DownloadSpeed = 0
	stat.EtaAvailable = false
	stat.EstimatedTime = Infinite
	stat.EstimatedArrival = time.Time{}
	stat.Elapsed = 0
	if !startTime.IsZero() {
		stat.Elapsed = now.Sub(startTime)
	}

	if total <= 0 {
		return
	}
	stat.Progress = percentOf(completed, total)
	if speed := t.estimator.Rate() * float64(total); speed > 0 {
		stat.DownloadSpeed = int64(speed)
	}
	if stat.Status.Is(STATUS_FINISH) {
		stat.Progress = 100
		stat.EtaAvailable = true
		stat.EstimatedTime = 0
		stat.EstimatedArrival = now
		return
	}
	stat.EtaAvailable = t.estimator.Available()
	stat.EstimatedTime = t.estimator.ETR()
	if arrival, ok := t.estimator.ETA(); ok {
		stat.EstimatedArrival = arrival
	}
}
