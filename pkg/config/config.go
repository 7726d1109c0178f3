package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Models struct {
		Dir string `yaml:"dir" default:"models"`
	} `yaml:"models"`
	MarketData struct {
		BaseURL  string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		Proxy    string        `yaml:"proxy"`
		Timeout  time.Duration `yaml:"timeout" default:"30s"`
		Interval string        `yaml:"interval" default:"1d"`
	} `yaml:"market_data"`
	Training struct {
		SeqLen     int     `yaml:"seq_len" default:"60"`
		Epochs     int     `yaml:"epochs" default:"50"`
		BatchSize  int     `yaml:"batch_size" default:"32"`
		Period     string  `yaml:"period" default:"5y"`
		ValRatio   float64 `yaml:"val_ratio" default:"0.1"`
		Patience   int     `yaml:"patience" default:"10"`
		CloseOnly  bool    `yaml:"close_only"` // true disables indicator features (legacy mode)
		ArimaOrder []int   `yaml:"arima_order" default:"[5,1,0]"`
	} `yaml:"training"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"60s"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic" default:"stockcast.training.events"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"9000"`
		Database string `yaml:"database" default:"stockcast"`
		User     string `yaml:"user" default:"default"`
		Password string `yaml:"password"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("MODELS_DIR"); v != "" {
		c.Models.Dir = v
	}
	if v := os.Getenv("MARKET_DATA_URL"); v != "" {
		c.MarketData.BaseURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Models.Dir == "" {
		return fmt.Errorf("models.dir is required")
	}
	if c.MarketData.BaseURL == "" {
		return fmt.Errorf("market_data.base_url is required")
	}
	if c.Training.SeqLen <= 0 {
		return fmt.Errorf("training.seq_len must be positive, got %d", c.Training.SeqLen)
	}
	if c.Training.ValRatio <= 0 || c.Training.ValRatio >= 1 {
		return fmt.Errorf("training.val_ratio must be in (0, 1), got %v", c.Training.ValRatio)
	}
	if len(c.Training.ArimaOrder) != 3 {
		return fmt.Errorf("training.arima_order must have exactly 3 elements")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
