package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Reaper     ReaperConfig  `mapstructure:"reaper"`
	Policy     PolicyConfig  `mapstructure:"policy"`
}

// ReaperConfig controls the idle-room sweep.
type ReaperConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	IdleThreshold time.Duration `mapstructure:"idle_threshold"`
}

// PolicyConfig holds estimation behavior toggles.
type PolicyConfig struct {
	// LockAfterReveal rejects estimate changes while cards are face up.
	LockAfterReveal bool `mapstructure:"lock_after_reveal"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("reaper.sweep_interval", "2h")
	v.SetDefault("reaper.idle_threshold", "1h")
	v.SetDefault("policy.lock_after_reveal", false)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", c.Port)
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("ping_period must be positive, got %s", c.PingPeriod)
	}
	if c.Reaper.SweepInterval <= 0 {
		return fmt.Errorf("reaper.sweep_interval must be positive, got %s", c.Reaper.SweepInterval)
	}
	if c.Reaper.IdleThreshold <= 0 {
		return fmt.Errorf("reaper.idle_threshold must be positive, got %s", c.Reaper.IdleThreshold)
	}
	return nil
}
