package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/costwatch/costwatch/internal/config"
	"github.com/costwatch/costwatch/pkg/alerts"
	"github.com/costwatch/costwatch/pkg/detector"
	"github.com/costwatch/costwatch/pkg/profiles"
	"github.com/costwatch/costwatch/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "costwatch",
	Short: "Costwatch - per-resource cloud cost anomaly detection",
	Long: `Costwatch flags abnormal per-resource daily spend in a cost telemetry
stream. It scores each day of a resource's cost history against a rolling
baseline, classifies deviations by severity, and routes alerts so that the
highest-impact anomalies are surfaced first.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.costwatch/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// initProfiles loads per-subscription detection profiles from config.
func initProfiles(cfg *config.Config) (*profiles.Registry, error) {
	return profiles.LoadDir(cfg.Profiles.Dir)
}

// initRunner creates a fully wired detection runner.
func initRunner(cfg *config.Config) (*detector.Runner, storage.Storage, error) {
	logger := newLogger(cfg)

	store, err := initStorage(cfg)
	if err != nil {
		return nil, nil, err
	}

	registry, err := initProfiles(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	router := alerts.NewRouter(initNotifiers(cfg), logger)
	runner := detector.NewRunner(store, router, registry, detector.RunConfig{
		Detector: detector.Config{
			ZScoreThreshold:     cfg.Detector.ZScoreThreshold,
			MinCostThreshold:    cfg.Detector.MinCostThreshold,
			ConfidenceThreshold: cfg.Detector.ConfidenceThreshold,
			MinHistoryDays:      cfg.Detector.MinHistoryDays,
		},
		LookbackDays: cfg.Detector.LookbackDays,
	}, logger)

	return runner, store, nil
}
