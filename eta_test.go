package eta

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestCalculator 使用手动时钟创建计算器
func newTestCalculator(t *testing.T, minimumData int, maximumDuration time.Duration, opts ...OptionFunc) (*Calculator, *ManualClock) {
	t.Helper()
	clk := NewManualClock(testEpoch)
	c, err := New(minimumData, maximumDuration, append([]OptionFunc{WithClock(clk)}, opts...)...)
	require.NoError(t, err)
	return c, clk
}

func TestNewInvalid(t *testing.T) {
	_, err := New(0, time.Second)
	assert.ErrorIs(t, err, ErrMinimumData)

	_, err = New(1, 0)
	assert.ErrorIs(t, err, ErrMaximumDuration)

	_, err = New(1, -time.Second)
	assert.ErrorIs(t, err, ErrMaximumDuration)

	_, err = New(1, time.Second, WithTolerance(-0.1))
	assert.ErrorIs(t, err, ErrTolerance)

	_, err = New(1, time.Second, WithTolerance(float32(math.NaN())))
	assert.ErrorIs(t, err, ErrTolerance)

	_, err = New(1, time.Second, WithRegression(RegressionPolicy(42)))
	assert.ErrorIs(t, err, ErrRegression)

	assert.Panics(t, func() { MustNew(0, time.Second) })
	assert.NotPanics(t, func() { MustNew(1, time.Second) })
}

// TestUnavailableBelowMinimum 样本数不足时不可用
func TestUnavailableBelowMinimum(t *testing.T) {
	c, clk := newTestCalculator(t, 5, time.Minute)

	for i := 0; i < 4; i++ {
		c.Update(float32(i) * 0.1)
		clk.Advance(time.Second)
		assert.False(t, c.Available(), "update %d", i)
		assert.Equal(t, Infinite, c.ETR())
		_, ok := c.ETA()
		assert.False(t, ok)
	}

	c.Update(0.4)
	assert.Equal(t, 5, c.Len())
	assert.True(t, c.Available())
	assert.NotEqual(t, Infinite, c.ETR())
}

// TestDuplicateSuppression 进度没有变化时不记录
func TestDuplicateSuppression(t *testing.T) {
	c, clk := newTestCalculator(t, 2, time.Minute)

	c.Update(0.1)
	before := c.snapshot.Load()

	clk.Advance(time.Second)
	c.Update(0.1)
	clk.Advance(time.Second)
	c.Update(0.1005)

	assert.Equal(t, 1, c.Len())
	assert.Same(t, before, c.snapshot.Load())
	assert.Equal(t, []Sample{{Timestamp: 0, Progress: 0.1}}, c.History())

	c.Update(0.102)
	assert.Equal(t, 2, c.Len())
}

// TestFirstSampleAlwaysRecorded 第一个样本即使为 0 也会记录
func TestFirstSampleAlwaysRecorded(t *testing.T) {
	c, _ := newTestCalculator(t, 1, time.Minute)

	c.Update(0)
	assert.Equal(t, 1, c.Len())
	// 只有一个样本, 斜率为 0
	assert.False(t, c.Available())
}

// TestZeroSlope 进度相同时不可用
func TestZeroSlope(t *testing.T) {
	c, clk := newTestCalculator(t, 2, time.Minute)

	c.Update(0.2)
	clk.Advance(time.Second)
	c.Update(0.3)
	clk.Advance(time.Second)
	c.Update(0.2)

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Available())
	assert.Equal(t, Infinite, c.ETR())
}

// TestToleranceOption 自定义容差
func TestToleranceOption(t *testing.T) {
	c, clk := newTestCalculator(t, 2, time.Minute, WithTolerance(0.1))

	c.Update(0.1)
	clk.Advance(time.Second)
	c.Update(0.15)
	assert.Equal(t, 1, c.Len())

	clk.Advance(time.Second)
	c.Update(0.25)
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Available())
}

// TestLinearExtrapolation 线性外推
func TestLinearExtrapolation(t *testing.T) {
	c, clk := newTestCalculator(t, 2, time.Minute)

	c.Update(0)
	clk.Advance(10 * time.Second)
	c.Update(0.5)

	require.True(t, c.Available())
	assert.Equal(t, 10*time.Second, c.ETR())

	at, ok := c.ETA()
	require.True(t, ok)
	assert.Equal(t, clk.Now().Add(10*time.Second), at)

	assert.InDelta(t, 0.05, c.Rate(), 1e-9)
}

// TestEvictionNeverStarves 移除过期样本时保留至少 MinimumData 个
func TestEvictionNeverStarves(t *testing.T) {
	c, clk := newTestCalculator(t, 3, 10*time.Second)

	for i := 1; i <= 5; i++ {
		c.Update(float32(i) * 0.1)
		clk.Advance(time.Second)
	}
	require.Equal(t, 5, c.Len())

	clk.Advance(time.Hour)
	c.Update(0.6)

	// 0.1 和 0.2 过期, 最后移除的 0.2 成为外推起点
	assert.Equal(t, 4, c.Len())
	w := c.snapshot.Load()
	assert.Equal(t, float32(0.2), w.oldest.Progress)
	assert.Equal(t, time.Second, w.oldest.Timestamp)
	assert.Equal(t, float32(0.3), c.History()[0].Progress)

	// 从 1s 到 3605s 完成了 0.4, 剩余 0.4
	require.True(t, c.Available())
	assert.InDelta(t, (time.Hour + 4*time.Second).Seconds(), c.ETR().Seconds(), 1)

	for i := 0; i < 10; i++ {
		clk.Advance(time.Hour)
		c.Update(0.61 + float32(i)*0.01)
		assert.GreaterOrEqual(t, c.Len(), 3)
		assert.True(t, c.Available())
	}
}

// TestEvictionKeepsWindow 窗口内的样本不会被移除
func TestEvictionKeepsWindow(t *testing.T) {
	c, clk := newTestCalculator(t, 1, 5*time.Second)

	for i := 0; i < 10; i++ {
		c.Update(float32(i) * 0.05)
		clk.Advance(time.Second)
	}
	// t=10s 时 5s 之前的样本已经过期, 保留 t>=4s 的样本
	for _, s := range c.History() {
		assert.GreaterOrEqual(t, s.Timestamp, 4*time.Second)
	}
	assert.True(t, c.Available())
}

// TestReset 重置后需要重新收集样本
func TestReset(t *testing.T) {
	c, clk := newTestCalculator(t, 2, time.Minute)

	c.Update(0)
	clk.Advance(10 * time.Second)
	c.Update(0.5)
	require.True(t, c.Available())

	clk.Advance(time.Minute)
	c.Reset()
	assert.False(t, c.Available())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, Infinite, c.ETR())

	c.Update(0.5)
	assert.False(t, c.Available())
	// 计时器从 0 重新开始
	assert.Equal(t, []Sample{{Timestamp: 0, Progress: 0.5}}, c.History())

	clk.Advance(5 * time.Second)
	c.Update(0.75)
	assert.True(t, c.Available())
	assert.Equal(t, 5*time.Second, c.ETR())
}

// TestMonotonicTimestamps 时钟倒退时时间戳也不会减小
func TestMonotonicTimestamps(t *testing.T) {
	c, clk := newTestCalculator(t, 100, time.Hour)

	progress := float32(0)
	for i := 0; i < 50; i++ {
		progress += 0.01
		switch i % 5 {
		case 3:
			// 时钟倒退
			clk.Set(clk.Now().Add(-3 * time.Second))
		default:
			clk.Advance(time.Duration(i) * 100 * time.Millisecond)
		}
		c.Update(progress)
	}

	history := c.History()
	require.Len(t, history, 50)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i].Timestamp, history[i-1].Timestamp)
	}
}

// TestRegressionPolicy 进度回退的处理
func TestRegressionPolicy(t *testing.T) {
	testData := []struct {
		policy    RegressionPolicy
		available bool
		etr       time.Duration
	}{
		{RegressionUnavailable, false, Infinite},
		{RegressionClamp, true, 0},
		{RegressionRaw, true, -30 * time.Second},
	}
	for _, v := range testData {
		t.Run(v.policy.String(), func(t *testing.T) {
			c, clk := newTestCalculator(t, 2, time.Minute, WithRegression(v.policy))
			c.Update(0.5)
			clk.Advance(10 * time.Second)
			c.Update(0.25)

			assert.Equal(t, v.available, c.Available())
			assert.Equal(t, v.etr, c.ETR())
			_, ok := c.ETA()
			assert.Equal(t, v.available, ok)
		})
	}
}

// TestClampProgress 进度限制在 [0, 1]
func TestClampProgress(t *testing.T) {
	c, clk := newTestCalculator(t, 2, time.Minute)
	c.Update(-0.5)
	clk.Advance(time.Second)
	c.Update(1.5)
	assert.Equal(t, []Sample{{0, 0}, {time.Second, 1}}, c.History())
	assert.Equal(t, time.Duration(0), c.ETR())

	// 不限制时超过 1 的进度剩余时间为 0
	c, clk = newTestCalculator(t, 2, time.Minute, WithClampProgress(false))
	c.Update(0)
	clk.Advance(10 * time.Second)
	c.Update(1.2)
	assert.Equal(t, float32(1.2), c.History()[1].Progress)
	assert.True(t, c.Available())
	assert.Equal(t, time.Duration(0), c.ETR())
}

// TestNonFiniteProgress NaN 和无穷大被忽略
func TestNonFiniteProgress(t *testing.T) {
	c, _ := newTestCalculator(t, 1, time.Minute, WithClampProgress(false))
	c.Update(float32(math.NaN()))
	c.Update(float32(math.Inf(1)))
	c.Update(float32(math.Inf(-1)))
	assert.Equal(t, 0, c.Len())

	c.Update(0.3)
	c.Update(float32(math.NaN()))
	assert.Equal(t, []Sample{{0, 0.3}}, c.History())
}

// TestSaturation 剩余时间超出 time.Duration 范围时为 Infinite
func TestSaturation(t *testing.T) {
	c, clk := newTestCalculator(t, 2, 10000*time.Hour, WithTolerance(0))
	c.Update(0)
	clk.Advance(1000 * time.Hour)
	c.Update(1e-7)

	assert.True(t, c.Available())
	assert.Equal(t, Infinite, c.ETR())
	at, ok := c.ETA()
	assert.False(t, ok)
	assert.True(t, at.IsZero())
}

// TestRateWithoutData 数据不足时速度为 0
func TestRateWithoutData(t *testing.T) {
	c, _ := newTestCalculator(t, 2, time.Minute)
	assert.Equal(t, float64(0), c.Rate())
	c.Update(0.5)
	assert.Equal(t, float64(0), c.Rate())
}

// TestConcurrentReaders 一个写入方和多个读取方
func TestConcurrentReaders(t *testing.T) {
	c, clk := newTestCalculator(t, 3, 5*time.Second)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if d := c.ETR(); d != Infinite {
					assert.GreaterOrEqual(t, d, time.Duration(0))
				}
				c.ETA()
				c.Available()
				assert.GreaterOrEqual(t, c.Rate(), float64(0))
				c.Len()
			}
		}()
	}

	for i := 1; i <= 1000; i++ {
		clk.Advance(100 * time.Millisecond)
		c.Update(float32(i) / 1000)
	}
	close(stop)
	wg.Wait()

	assert.True(t, c.Available())
}

func TestDefault(t *testing.T) {
	old := DefaultConfig()
	defer ReplaceConfig(old)

	SetMinimumData(3)
	SetMaximumDuration(time.Minute)
	SetTolerance(0.01)
	SetRegression(RegressionClamp)
	SetClampProgress(false)

	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, &Config{
		MinimumData:     3,
		MaximumDuration: time.Minute,
		Tolerance:       0.01,
		Regression:      RegressionClamp,
		ClampProgress:   false,
	}, c.Config())

	SetMinimumData(0)
	_, err = Default()
	assert.ErrorIs(t, err, ErrMinimumData)
}
