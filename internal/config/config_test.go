package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/synthdb/internal/errors"
)

func load(t *testing.T, yaml string) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if yaml != "" {
		path := filepath.Join(t.TempDir(), FileName)
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
		v.SetConfigFile(path)
		require.NoError(t, v.ReadInConfig())
	}
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := load(t, "")

	assert.Equal(t, 100, cfg.Rows)
	assert.Equal(t, 0.7, cfg.SampleMix)
	assert.Equal(t, 20, cfg.UniqueRetries)
	assert.Equal(t, 20, cfg.NumericRetries)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "DATABASE_URL", cfg.Database.URLEnv)
	assert.Equal(t, "sql", cfg.Output.Format)
	assert.Equal(t, "synth/seed.sql", cfg.Output.Path)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	cfg := load(t, `
rows: 50
tables:
  users: 500
null_rate: 0.25
locale: de-AT
exclude: ["audit_*"]
fk_skew: 1.5
output:
  format: csv
`)
	assert.Equal(t, 50, cfg.Rows)
	assert.Equal(t, map[string]int{"users": 500}, cfg.Tables)
	assert.Equal(t, 0.25, cfg.NullRate)
	assert.Equal(t, []string{"audit_*"}, cfg.Exclude)
	assert.Equal(t, 1.5, cfg.FKSkew)
	assert.Equal(t, "synth/csv", cfg.Output.Path)
	assert.Equal(t, "de", cfg.LocaleBase())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"negative rows", func(c *Config) { c.Rows = -1 }, "rows"},
		{"negative table rows", func(c *Config) { c.Tables = map[string]int{"users": -5} }, "tables.users"},
		{"null rate above one", func(c *Config) { c.NullRate = 1.5 }, "null_rate"},
		{"negative sample mix", func(c *Config) { c.SampleMix = -0.1 }, "sample_mix"},
		{"zero sample percent", func(c *Config) { c.SamplePercent = 0 }, "sample_percent"},
		{"negative skew", func(c *Config) { c.FKSkew = -1 }, "fk_skew"},
		{"bad locale", func(c *Config) { c.Locale = "not a tag!" }, "locale"},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := load(t, "")
			tt.edit(cfg)
			err := cfg.Validate()
			var cfgErr *errors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, errors.ExitConfig, errors.ExitCode(err))
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	cfg := load(t, "database:\n  url_env: SYNTH_TEST_DB_URL\n")

	t.Setenv("SYNTH_TEST_DB_URL", "")
	_, err := cfg.GetDatabaseURL()
	assert.Equal(t, errors.ExitConfig, errors.ExitCode(err))

	t.Setenv("SYNTH_TEST_DB_URL", "postgres://localhost/shop")
	url, err := cfg.GetDatabaseURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/shop", url)
}
