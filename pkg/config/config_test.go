package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubham-shewale/watchlist-widget/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Port)
	assert.Equal(t, "userWatchlist", cfg.Watchlist.Key)
	assert.Equal(t, []string{"AAPL", "GOOG", "TSLA"}, cfg.Watchlist.Defaults)
	assert.Equal(t, 15*time.Second, cfg.Refresh.Interval)
	assert.InDelta(t, 0.1, cfg.PriceSource.FailureRate, 1e-9)
	assert.InDelta(t, 2.5, cfg.PriceSource.MaxJitter, 1e-9)
	assert.InDelta(t, 150.0, cfg.PriceSource.Baselines["AAPL"], 1e-9)
	assert.InDelta(t, 280.0, cfg.PriceSource.Baselines["MSFT"], 1e-9)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 4, cfg.Kafka.Partitions)
	assert.Equal(t, 1, cfg.Kafka.ReplicationFactor)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "2s")
	t.Setenv("PRICESOURCE_FAILURE_RATE", "0")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_PARTITIONS", "8")
	t.Setenv("KAFKA_REPLICATION_FACTOR", "3")

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Refresh.Interval)
	assert.Zero(t, cfg.PriceSource.FailureRate)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8, cfg.Kafka.Partitions)
	assert.Equal(t, 3, cfg.Kafka.ReplicationFactor)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{name: "zero interval", key: "refresh.interval", val: "0s"},
		{name: "failure rate above one", key: "pricesource.failure_rate", val: 1.5},
		{name: "negative jitter", key: "pricesource.max_jitter", val: -1.0},
		{name: "zero partitions", key: "kafka.partitions", val: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := config.Load(v)
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := config.NewLogger(config.LoggerConfig{Level: "debug", Env: "prod"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = config.NewLogger(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
