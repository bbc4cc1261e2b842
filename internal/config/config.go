package config

import (
	"os"
	"slices"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/Rana718/synthdb/internal/errors"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "synth.config.yaml"

// EnvPrefix prefixes every environment variable bound to a config key.
const EnvPrefix = "SYNTH"

var outputFormats = []string{"sql", "json", "csv", "sqlite"}

type Config struct {
	Rows               int            `json:"rows" mapstructure:"rows"`
	Tables             map[string]int `json:"tables" mapstructure:"tables"`
	NullRate           float64        `json:"null_rate" mapstructure:"null_rate"`
	SampleMix          float64        `json:"sample_mix" mapstructure:"sample_mix"`
	SamplePercent      float64        `json:"sample_percent" mapstructure:"sample_percent"`
	UniqueRetries      int            `json:"unique_retries" mapstructure:"unique_retries"`
	NumericRetries     int            `json:"numeric_retries" mapstructure:"numeric_retries"`
	Concurrency        int            `json:"concurrency" mapstructure:"concurrency"`
	Seed               int64          `json:"seed" mapstructure:"seed"`
	Locale             string         `json:"locale" mapstructure:"locale"`
	Schema             string         `json:"schema" mapstructure:"schema"`
	Exclude            []string       `json:"exclude" mapstructure:"exclude"`
	AllowSelfReference bool           `json:"allow_self_reference" mapstructure:"allow_self_reference"`
	FKSkew             float64        `json:"fk_skew" mapstructure:"fk_skew"`
	Database           Database       `json:"database" mapstructure:"database"`
	Output             Output         `json:"output" mapstructure:"output"`
}

type Database struct {
	URLEnv string `json:"url_env" mapstructure:"url_env"`
}

type Output struct {
	Format string `json:"format" mapstructure:"format"`
	Path   string `json:"path" mapstructure:"path"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("rows", 100)
	v.SetDefault("null_rate", 0.1)
	v.SetDefault("sample_mix", 0.7)
	v.SetDefault("sample_percent", 10.0)
	v.SetDefault("unique_retries", 20)
	v.SetDefault("numeric_retries", 20)
	v.SetDefault("concurrency", 1)
	v.SetDefault("locale", "en")
	v.SetDefault("schema", "public")
	v.SetDefault("database.url_env", "DATABASE_URL")
	v.SetDefault("output.format", "sql")
}

// Load decodes the configuration held by v and fills what is still unset.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = "sql"
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = DefaultPath(cfg.Output.Format)
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &cfg, nil
}

// DefaultPath is the output path used when none is configured.
func DefaultPath(format string) string {
	switch format {
	case "json":
		return "synth/seed.json"
	case "csv":
		return "synth/csv"
	case "sqlite":
		return "synth/seed.db"
	default:
		return "synth/seed.sql"
	}
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", errors.WithStack(&errors.ConfigError{
			Field:  "database.url_env",
			Reason: "database URL not found in environment variable " + c.Database.URLEnv,
		})
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	invalid := func(field, reason string) error {
		return errors.WithStack(&errors.ConfigError{Field: field, Reason: reason})
	}

	if c.Rows < 0 {
		return invalid("rows", "must not be negative")
	}
	for table, n := range c.Tables {
		if n < 0 {
			return invalid("tables."+table, "must not be negative")
		}
	}
	for field, ratio := range map[string]float64{"null_rate": c.NullRate, "sample_mix": c.SampleMix} {
		if ratio < 0 || ratio > 1 {
			return invalid(field, "must be between 0 and 1")
		}
	}
	if c.SamplePercent <= 0 || c.SamplePercent > 100 {
		return invalid("sample_percent", "must be in (0, 100]")
	}
	if c.UniqueRetries < 0 || c.NumericRetries < 0 {
		return invalid("unique_retries", "retry budgets must not be negative")
	}
	if c.FKSkew < 0 {
		return invalid("fk_skew", "must not be negative")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return invalid("locale", "unparsable language tag "+c.Locale)
	}
	if !slices.Contains(outputFormats, c.Output.Format) {
		return invalid("output.format", "unsupported format "+c.Output.Format)
	}

	return nil
}

// LocaleBase reduces the configured locale to its base language, the key
// of the name pools.
func (c *Config) LocaleBase() string {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}
