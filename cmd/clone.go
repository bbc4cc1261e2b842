package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Rana718/synthdb/internal/config"
	"github.com/Rana718/synthdb/internal/database/postgres"
	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/export"
	"github.com/Rana718/synthdb/internal/logger"
	"github.com/Rana718/synthdb/internal/profile"
	"github.com/Rana718/synthdb/internal/schema"
	"github.com/Rana718/synthdb/internal/seeder"
)

var (
	cloneURL      string
	cloneExecute  bool
	cloneDryRun   bool
	cloneSnapshot string
	cloneProfile  string
	cloneSave     string
)

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Generate a synthetic copy of a database schema",
	Long: `Read a schema and generate a synthetic dataset for it.

The schema comes from the database behind --url (or the configured
environment variable), or from a snapshot file with --snapshot. Low
cardinality text columns are sampled from the database, or read from a
--profile file, so generated values follow the real distribution.

With --dry-run only the insertion order, the column classification and the
constraint diagnostics are reported; nothing is generated.`,
	Example: `  synthdb clone --url postgres://localhost/shop --rows 500
  synthdb clone --snapshot schema.yaml --format json --output seed.json
  synthdb clone --rows 1000 --exclude 'audit_*' --execute
  synthdb clone --snapshot schema.yaml --dry-run`,
	RunE: runClone,
}

func runClone(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return errors.WithStack(&errors.ConfigError{Field: "config", Reason: err.Error()})
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var adapter *postgres.Adapter
	if cloneSnapshot == "" || cloneExecute || cloneURL != "" {
		adapter, err = connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer adapter.Close()
	}

	s, err := loadSchema(ctx, cfg, adapter)
	if err != nil {
		return err
	}

	sink, err := newSink(cfg, adapter)
	if err != nil {
		return err
	}
	gen := seeder.NewSeeder(s, sink, seedConfig(cfg))

	if cloneDryRun {
		plan, err := gen.Plan()
		if err != nil {
			return err
		}
		printPlan(plan)
		if len(plan.Diagnostics) > 0 {
			return plan.Diagnostics[0]
		}
		return nil
	}

	p, err := loadProfile(ctx, cfg, adapter, s)
	if err != nil {
		return err
	}
	if p != nil {
		gen.WithProfile(p)
	}

	color.Cyan("🌱 Generating %d tables...", len(s.Tables))
	summary, err := gen.Seed(ctx)
	if err != nil {
		return err
	}
	printSummary(summary, destination(cfg))
	return nil
}

func connect(ctx context.Context, cfg *config.Config) (*postgres.Adapter, error) {
	url := cloneURL
	if url == "" {
		var err error
		if url, err = cfg.GetDatabaseURL(); err != nil {
			return nil, errors.WithHint(err, "pass --url, or --snapshot to run without a database")
		}
	}
	adapter := postgres.New(cfg.Schema)
	if err := adapter.Connect(ctx, url); err != nil {
		return nil, err
	}
	return adapter, nil
}

func loadSchema(ctx context.Context, cfg *config.Config, adapter *postgres.Adapter) (*schema.Schema, error) {
	if cloneSnapshot == "" {
		color.Cyan("🔍 Introspecting schema %s...", adapter.Schema())
		return adapter.Introspect(ctx, cfg.Exclude)
	}

	s, err := schema.LoadSnapshot(cloneSnapshot)
	if err != nil {
		return nil, err
	}
	kept, dropped, err := schema.Exclude(s, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		logger.Logger.Infow("tables excluded", "tables", dropped)
	}
	return kept, nil
}

func loadProfile(ctx context.Context, cfg *config.Config, adapter *postgres.Adapter, s *schema.Schema) (profile.Profile, error) {
	if cloneProfile != "" {
		return profile.Load(cloneProfile)
	}
	if adapter == nil || cfg.SampleMix == 0 || cfg.SamplePercent == 0 {
		return nil, nil
	}

	color.Cyan("📊 Sampling %g%% of each table...", cfg.SamplePercent)
	var provider profile.Provider = adapter
	p, err := provider.Sample(ctx, s, cfg.SamplePercent)
	if err != nil {
		return nil, err
	}
	if cloneSave != "" {
		if err := p.Save(cloneSave); err != nil {
			return nil, err
		}
		logger.Logger.Infow("profile saved", "path", cloneSave, "columns", len(p))
	}
	return p, nil
}

func newSink(cfg *config.Config, adapter *postgres.Adapter) (export.Sink, error) {
	if cloneExecute {
		return export.NewDatabase(adapter), nil
	}
	return export.New(cfg.Output.Format, cfg.Output.Path)
}

func destination(cfg *config.Config) string {
	if cloneExecute {
		return "database schema " + cfg.Schema
	}
	return cfg.Output.Path
}

// seedConfig maps the configuration onto the engine. Temporal values are
// anchored at midnight UTC, so a fixed seed reproduces the dataset for the
// whole day.
func seedConfig(cfg *config.Config) seeder.SeedConfig {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return seeder.SeedConfig{
		Rows:               cfg.Rows,
		Tables:             cfg.Tables,
		NullRate:           cfg.NullRate,
		SampleMix:          cfg.SampleMix,
		UniqueRetries:      cfg.UniqueRetries,
		NumericRetries:     cfg.NumericRetries,
		Concurrency:        cfg.Concurrency,
		Seed:               seed,
		Locale:             cfg.LocaleBase(),
		AllowSelfReference: cfg.AllowSelfReference,
		FKSkew:             cfg.FKSkew,
		Epoch:              time.Now().UTC().Truncate(24 * time.Hour),
	}
}

func init() {
	rootCmd.AddCommand(cloneCmd)

	f := cloneCmd.Flags()
	f.StringVar(&cloneURL, "url", "", "database connection URL (default from $DATABASE_URL)")
	f.BoolVar(&cloneExecute, "execute", false, "Apply the dataset to the database in one transaction")
	f.BoolVar(&cloneDryRun, "dry-run", false, "Report order, classification and diagnostics without generating")
	f.StringVar(&cloneSnapshot, "snapshot", "", "schema snapshot file (YAML or JSON) instead of introspection")
	f.StringVar(&cloneProfile, "profile", "", "distribution profile file instead of sampling")
	f.StringVar(&cloneSave, "save-profile", "", "write the sampled profile to this file")

	f.Int("rows", 100, "rows per table unless configured per table")
	f.StringP("output", "o", "", "output path (default depends on --format)")
	f.String("format", "sql", "output format: sql, json, csv or sqlite")
	f.Float64("sample-percent", 10, "share of each table to sample, 0-100")
	f.Float64("sample-mix", 0.7, "share of values drawn from the sampled distribution")
	f.Int("concurrency", 1, "tables and row chunks generated in parallel")
	f.String("schema", "public", "database schema to introspect")
	f.StringSlice("exclude", nil, "table name patterns to leave out")
	f.String("locale", "en", "locale of generated names")
	f.Int64("seed", 0, "random seed; 0 picks one")
	f.Float64("null-rate", 0.1, "chance a nullable column is NULL")
	f.Bool("allow-self-reference", false, "let a self reference point at its own row")
	f.Float64("fk-skew", 0, "skew of parent choice, 0 is uniform")

	for key, flag := range map[string]string{
		"rows":                 "rows",
		"output.path":          "output",
		"output.format":        "format",
		"sample_percent":       "sample-percent",
		"sample_mix":           "sample-mix",
		"concurrency":          "concurrency",
		"schema":               "schema",
		"exclude":              "exclude",
		"locale":               "locale",
		"seed":                 "seed",
		"null_rate":            "null-rate",
		"allow_self_reference": "allow-self-reference",
		"fk_skew":              "fk-skew",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}
}
