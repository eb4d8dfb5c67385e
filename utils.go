package eta

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// errInvalidWrite 写入返回了不合法的字节数
var errInvalidWrite = errors.New("invalid write result")

// contextDone context 是否已经完成
func contextDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// progressOf 已完成大小换算为 0 ~ 1 的进度
func progressOf(completed, total int64) float32 {
	if total <= 0 {
		return 0
	}
	p := float64(completed) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return float32(p)
}

// percentOf 已完成大小换算为 0 ~ 100 的进度
func percentOf(completed, total int64) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	if completed <= math.MaxInt64/100 {
		return int(completed * 100 / total)
	}
	return int(float64(completed) / float64(total) * 100)
}

// formatDuration 时间格式化为 时:分:秒, 不足一小时时为 分:秒
func formatDuration(d time.Duration) string {
	if d == Infinite || d < 0 {
		return "--:--"
	}
	d = d.Round(time.Second)
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	s := int64(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
