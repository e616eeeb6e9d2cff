package dbcontext

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the on-disk YAML configuration for one database process.
type Config struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Workdir string `mapstructure:"workdir"`
	} `mapstructure:"storage"`

	BufferPool struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"buffer_pool"`

	Lock struct {
		DeadlockTimeoutMS int `mapstructure:"deadlock_timeout_ms"`
		PollIntervalMS    int `mapstructure:"poll_interval_ms"`
	} `mapstructure:"lock"`
}

// LoadConfig reads and unmarshals a YAML config file at path.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("dbcontext: read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("dbcontext: unmarshal config: %w", err)
	}
	if cfg.BufferPool.Capacity <= 0 {
		cfg.BufferPool.Capacity = DefaultCapacity
	}
	return &cfg, nil
}
