package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"MarketLens/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Exchange struct {
		RESTURL        string        `yaml:"rest_url" default:"https://api.binance.com"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://stream.binance.com:9443/stream"`
		Symbols        []string      `yaml:"symbols"`
		StreamEnabled  bool          `yaml:"stream_enabled"`
		HTTPTimeout    time.Duration `yaml:"http_timeout" default:"10s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
	} `yaml:"exchange"`
	Cache struct {
		MaxSize   int           `yaml:"max_size" default:"2048"`
		OHLCVTTL  time.Duration `yaml:"ohlcv_ttl" default:"300s"`
		TickerTTL time.Duration `yaml:"ticker_ttl" default:"15s"`
	} `yaml:"cache"`
	Analysis struct {
		DefaultTimeframe  string   `yaml:"default_timeframe" default:"1h"`
		DefaultLimit      int      `yaml:"default_limit" default:"100"`
		QualityTimeframes []string `yaml:"quality_timeframes" default:"[\"15m\",\"1h\",\"4h\"]"`
	} `yaml:"analysis"`
	Archive struct {
		Backend string        `yaml:"backend" default:"none"` // none, redis or clickhouse
		TTL     time.Duration `yaml:"ttl" default:"168h"`
		Prefix  string        `yaml:"prefix" default:"report"`
		Table   string        `yaml:"table" default:"reports"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		ClickHouse struct {
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port" default:"9000"`
			Database         string        `yaml:"database" default:"default"`
			User             string        `yaml:"user" default:"default"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			AsyncInsert      bool          `yaml:"async_insert"`
			WaitForAsync     bool          `yaml:"wait_for_async_insert"`
			DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		} `yaml:"clickhouse"`
	} `yaml:"archive"`
	Notify struct {
		Enabled bool `yaml:"enabled"`
		Kafka   struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"marketlens.reports"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"gzip"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`
	} `yaml:"notify"`
	Log struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Aggregate struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"marketlens.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"aggregate"`
	} `yaml:"log"`
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

	c.Server.Port = util.ParseIntDefault(os.Getenv("SERVER_PORT"), c.Server.Port)
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Exchange.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("EXCHANGE_REST_URL"); v != "" {
		c.Exchange.RESTURL = v
	}
	if v := os.Getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Archive.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Archive.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.Archive.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.Archive.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Notify.Kafka.Brokers = strings.Split(v, ",")
		c.Notify.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Notify.Kafka.Topic = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Archive.Backend {
	case "none", "redis", "clickhouse":
	default:
		return fmt.Errorf("archive.backend must be 'none', 'redis' or 'clickhouse', got '%s'", c.Archive.Backend)
	}
	if c.Archive.Backend == "clickhouse" && c.Archive.ClickHouse.Host == "" {
		return fmt.Errorf("archive.clickhouse.host is required")
	}
	if c.Notify.Enabled && len(c.Notify.Kafka.Brokers) == 0 {
		return fmt.Errorf("notify.kafka.brokers cannot be empty when notify is enabled")
	}
	if c.Exchange.StreamEnabled && len(c.Exchange.Symbols) == 0 {
		return fmt.Errorf("exchange.symbols cannot be empty when the stream is enabled")
	}
	if c.Log.Aggregate.Enabled && !c.Notify.Enabled {
		return fmt.Errorf("log.aggregate requires notify to be enabled (it publishes over kafka)")
	}
	return nil
}
