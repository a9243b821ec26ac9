package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(""))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, StrategyGrid, cfg.Segmentation.Strategy)
	assert.Equal(t, 2000, cfg.Worker.PollIntervalMs)
	assert.Equal(t, 1, cfg.Worker.Count)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "local", cfg.Storage.Type)
}

func TestLoadFromReader_Overrides(t *testing.T) {
	content := []byte(`
database:
  host: db.internal
  port: 5433
  database: electorate
  user: seg
  password: secret
worker:
  poll_interval_ms: 500
  count: 4
segmentation:
  strategy: geo-hash
log:
  level: debug
`)

	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, StrategyGeohash, cfg.Segmentation.Strategy)
	assert.Equal(t, 500, cfg.Worker.PollIntervalMs)
	assert.Equal(t, 4, cfg.Worker.Count)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("DiscreteFields", func(t *testing.T) {
		d := &DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Database: "d"}
		assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", d.DSN())
	})

	t.Run("URLTakesPrecedence", func(t *testing.T) {
		d := &DatabaseConfig{URL: "postgres://u:p@h/d", Host: "ignored"}
		assert.Equal(t, "postgres://u:p@h/d", d.DSN())
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadFromReader("yaml", []byte(""))
		require.NoError(t, err)
		return cfg
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("BadStrategy", func(t *testing.T) {
		cfg := valid()
		cfg.Segmentation.Strategy = "voronoi"
		assert.Error(t, cfg.Validate())
	})

	t.Run("BadCompression", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Compression = "brotli"
		assert.Error(t, cfg.Validate())
	})

	t.Run("BadWorkerCount", func(t *testing.T) {
		cfg := valid()
		cfg.Worker.Count = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("BadLogLevel", func(t *testing.T) {
		cfg := valid()
		cfg.Log.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("MissingDatabase", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Host = ""
		cfg.Database.URL = ""
		assert.Error(t, cfg.Validate())
	})
}
