package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Watchlist   WatchlistConfig   `mapstructure:"watchlist"`
	Refresh     RefreshConfig     `mapstructure:"refresh"`
	PriceSource PriceSourceConfig `mapstructure:"pricesource"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

// RedisConfig points at the blob store. An empty Addr keeps the watchlist in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig enables quote publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	Partitions        int      `mapstructure:"partitions"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
}

type WatchlistConfig struct {
	Key      string   `mapstructure:"key"`
	Defaults []string `mapstructure:"defaults"`
}

type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type PriceSourceConfig struct {
	FailureRate  float64            `mapstructure:"failure_rate"`
	MaxJitter    float64            `mapstructure:"max_jitter"`
	DefaultPrice float64            `mapstructure:"default_price"`
	Baselines    map[string]float64 `mapstructure:"baselines"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// 1. Load .env file into System Environment (if it exists)
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}
	return Load(viper.New())
}

// Load applies defaults and environment bindings to v and decodes the result.
func Load(v *viper.Viper) (*Config, error) {
	// 2. Set Defaults
	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.level", "info")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "watchlist_quotes")
	v.SetDefault("kafka.partitions", 4)
	v.SetDefault("kafka.replication_factor", 1)

	v.SetDefault("watchlist.key", "userWatchlist")
	v.SetDefault("watchlist.defaults", []string{"AAPL", "GOOG", "TSLA"})

	v.SetDefault("refresh.interval", 15*time.Second)

	v.SetDefault("pricesource.failure_rate", 0.1)
	v.SetDefault("pricesource.max_jitter", 2.5)
	v.SetDefault("pricesource.default_price", 100.0)
	v.SetDefault("pricesource.baselines", map[string]float64{
		"AAPL": 150.00,
		"GOOG": 2750.00,
		"TSLA": 850.00,
		"AMZN": 3200.00,
		"MSFT": 280.00,
	})

	// 3. Configure Viper to read Environment Variables
	// This maps dot-notation to underscores (e.g., "app.port" -> "APP_PORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true) // REDIS_ADDR= selects the in-memory store
	v.AutomaticEnv()

	// 4. Explicitly Bind Env Vars to Keys
	bindEnv(v, "app.port", "app.env", "logger.level")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "kafka.brokers", "kafka.topic", "kafka.partitions", "kafka.replication_factor")
	bindEnv(v, "watchlist.key", "watchlist.defaults")
	bindEnv(v, "refresh.interval")
	bindEnv(v, "pricesource.failure_rate", "pricesource.max_jitter", "pricesource.default_price")

	// 5. Unmarshal into Struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.Logger.Env = cfg.App.Env

	// viper lowercases map keys
	baselines := make(map[string]float64, len(cfg.PriceSource.Baselines))
	for sym, price := range cfg.PriceSource.Baselines {
		baselines[strings.ToUpper(sym)] = price
	}
	cfg.PriceSource.Baselines = baselines

	// 6. Basic Validation
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", c.Refresh.Interval)
	}
	if c.PriceSource.FailureRate < 0 || c.PriceSource.FailureRate > 1 {
		return fmt.Errorf("failure rate must be within [0,1], got %v", c.PriceSource.FailureRate)
	}
	if c.PriceSource.MaxJitter < 0 {
		return fmt.Errorf("max jitter cannot be negative, got %v", c.PriceSource.MaxJitter)
	}
	if c.Kafka.Partitions < 1 || c.Kafka.ReplicationFactor < 1 {
		return fmt.Errorf("kafka partitions and replication factor must be at least 1, got %d/%d", c.Kafka.Partitions, c.Kafka.ReplicationFactor)
	}
	if c.Watchlist.Key == "" {
		return fmt.Errorf("watchlist key cannot be empty")
	}
	return nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
