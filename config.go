package eta

import (
	"fmt"
	"math"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultTolerance 默认容差, 差值小于它的两个进度视为相同
const DefaultTolerance float32 = 0.001

// Config 配置
type Config struct {
	// MinimumData 计算 ETA 前至少需要的样本数, 默认为 10
	MinimumData int `toml:"minimum_data"`
	// MaximumDuration 参与计算的时间窗口, 默认为 30 秒
	MaximumDuration time.Duration `toml:"maximum_duration"`
	// Tolerance 进度容差, 用于忽略重复进度和判断斜率为零, 默认为 0.001
	Tolerance float32 `toml:"tolerance"`
	// Regression 进度回退时的处理策略, 默认为 unavailable
	Regression RegressionPolicy `toml:"regression"`
	// ClampProgress 是否把进度限制在 [0, 1], 默认为 true
	ClampProgress bool `toml:"clamp_progress"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		MinimumData:     10,
		MaximumDuration: time.Second * 30,
		Tolerance:       DefaultTolerance,
		Regression:      RegressionUnavailable,
		ClampProgress:   true,
	}
}

// Copy 拷贝数据
func (cfg *Config) Copy() *Config {
	tmp := *cfg
	return &tmp
}

// Validate 检查配置
func (cfg *Config) Validate() error {
	if cfg.MinimumData < 1 {
		return fmt.Errorf("%w: got %d", ErrMinimumData, cfg.MinimumData)
	}
	if cfg.MaximumDuration <= 0 {
		return fmt.Errorf("%w: got %v", ErrMaximumDuration, cfg.MaximumDuration)
	}
	tol := float64(cfg.Tolerance)
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		return fmt.Errorf("%w: got %v", ErrTolerance, cfg.Tolerance)
	}
	if !cfg.Regression.valid() {
		return fmt.Errorf("%w: %d", ErrRegression, cfg.Regression)
	}
	return nil
}

// LoadConfig 从 toml 文件加载配置, 文件中没有出现的项使用默认值
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
