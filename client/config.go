package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
)

// Config 客户端运行参数，从环境变量读取，命令行参数可覆盖
type Config struct {
	ServerURL string `env:"WORLDMIRROR_SERVER_URL" envDefault:"ws://localhost:8080/ws"`
	Username  string `env:"WORLDMIRROR_USERNAME"   envDefault:"guest"`

	LogFile  string `env:"WORLDMIRROR_LOG_FILE"`
	LogLevel string `env:"WORLDMIRROR_LOG_LEVEL" envDefault:"info"`

	WorldWidth  float64 `env:"WORLDMIRROR_WORLD_WIDTH"  envDefault:"2048"`
	WorldHeight float64 `env:"WORLDMIRROR_WORLD_HEIGHT" envDefault:"2048"`
	ViewWidth   float64 `env:"WORLDMIRROR_VIEW_WIDTH"   envDefault:"800"`
	ViewHeight  float64 `env:"WORLDMIRROR_VIEW_HEIGHT"  envDefault:"600"`

	ProximityThreshold float64       `env:"WORLDMIRROR_PROXIMITY_THRESHOLD" envDefault:"100"`
	MoveResendInterval time.Duration `env:"WORLDMIRROR_MOVE_RESEND_INTERVAL" envDefault:"50ms"`
	RenderInterval     time.Duration `env:"WORLDMIRROR_RENDER_INTERVAL"      envDefault:"16ms"`

	// StatusAddr 为空时不启动状态接口
	StatusAddr string `env:"WORLDMIRROR_STATUS_ADDR"`

	AutoGreet     bool   `env:"WORLDMIRROR_AUTO_GREET"     envDefault:"false"`
	GreetTemplate string `env:"WORLDMIRROR_GREET_TEMPLATE" envDefault:"Hi %s!"`
}

// DefaultConfig 返回不依赖环境变量的默认配置
func DefaultConfig() Config {
	return Config{
		ServerURL:          "ws://localhost:8080/ws",
		Username:           "guest",
		LogLevel:           "info",
		WorldWidth:         2048,
		WorldHeight:        2048,
		ViewWidth:          800,
		ViewHeight:         600,
		ProximityThreshold: 100,
		MoveResendInterval: 50 * time.Millisecond,
		RenderInterval:     16 * time.Millisecond,
		GreetTemplate:      "Hi %s!",
	}
}

// LoadConfigFromEnv 解析环境变量
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate 检查尺寸、间隔与阈值
func (c Config) Validate() error {
	var errs []error
	if c.ServerURL == "" {
		errs = append(errs, errors.New("server url is empty"))
	}
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %vx%v", c.WorldWidth, c.WorldHeight))
	}
	if c.ViewWidth <= 0 || c.ViewHeight <= 0 {
		errs = append(errs, fmt.Errorf("view size must be positive, got %vx%v", c.ViewWidth, c.ViewHeight))
	}
	if c.ProximityThreshold <= 0 {
		errs = append(errs, fmt.Errorf("proximity threshold must be positive, got %v", c.ProximityThreshold))
	}
	if c.MoveResendInterval <= 0 {
		errs = append(errs, fmt.Errorf("move resend interval must be positive, got %v", c.MoveResendInterval))
	}
	if c.RenderInterval <= 0 {
		errs = append(errs, fmt.Errorf("render interval must be positive, got %v", c.RenderInterval))
	}
	return multierr.Combine(errs...)
}

// WorldSize 世界尺寸
func (c Config) WorldSize() Size { return Size{Width: c.WorldWidth, Height: c.WorldHeight} }

// ViewSize 视口尺寸
func (c Config) ViewSize() Size { return Size{Width: c.ViewWidth, Height: c.ViewHeight} }
