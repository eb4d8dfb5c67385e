package eta

import (
	"fmt"
	"strings"
)

// RegressionPolicy 进度回退(当前进度小于窗口起点进度)时的处理策略
type RegressionPolicy int

const (
	// RegressionUnavailable 进度回退时不提供估算
	RegressionUnavailable RegressionPolicy = iota
	// RegressionClamp 进度回退时剩余时间为 0
	RegressionClamp
	// RegressionRaw 直接返回公式结果, 可能为负数
	RegressionRaw
)

var regressionNames = map[RegressionPolicy]string{
	RegressionUnavailable: "unavailable",
	RegressionClamp:       "clamp",
	RegressionRaw:         "raw",
}

func (p RegressionPolicy) valid() bool {
	_, ok := regressionNames[p]
	return ok
}

// String 策略名称
func (p RegressionPolicy) String() string {
	if name, ok := regressionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("RegressionPolicy(%d)", int(p))
}

// MarshalText 实现 encoding.TextMarshaler
func (p RegressionPolicy) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("%w: %d", ErrRegression, p)
	}
	return []byte(p.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler, 配置文件和命令行参数都用名称表示
func (p *RegressionPolicy) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for k, v := range regressionNames {
		if v == s {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrRegression, s)
}
