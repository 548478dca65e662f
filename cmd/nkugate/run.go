package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/elormyevu/nku-gateway/pkg/audit"
	"github.com/elormyevu/nku-gateway/pkg/clientid"
	"github.com/elormyevu/nku-gateway/pkg/config"
	"github.com/elormyevu/nku-gateway/pkg/gateway"
	"github.com/elormyevu/nku-gateway/pkg/prompt"
	"github.com/elormyevu/nku-gateway/pkg/quota"
	"github.com/elormyevu/nku-gateway/pkg/sanitize"
	"github.com/elormyevu/nku-gateway/pkg/server"
	"github.com/elormyevu/nku-gateway/pkg/telemetry/logging"
	"github.com/elormyevu/nku-gateway/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway server",
	Long: `Start the gateway server with the specified configuration.

The server listens on the configured address and routes translation and
triage requests through the security pipeline to the inference service.

Examples:
  # Start with defaults plus environment overrides
  nkugate run

  # Start with a config file
  nkugate run --config /etc/nku/config.yaml

  # Override listen address
  nkugate run --listen 0.0.0.0:8080

  # Validate config without starting the server
  nkugate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Nku Gateway v%s\n", Version)
	if cfgFile != "" {
		fmt.Printf("Loading configuration from: %s\n", cfgFile)
	}
	fmt.Println("✓ Configuration loaded")

	m := metrics.New()

	limits := quota.Limits{
		RequestsPerMinute: cfg.Limits.RequestsPerMinute,
		RequestsPerHour:   cfg.Limits.RequestsPerHour,
	}

	// Shared quota backend. Connection failure degrades to the in-process
	// fallback rather than refusing to start.
	var shared quota.Backend
	if cfg.Limits.Enabled && cfg.Limits.RedisAddr != "" {
		backend, err := quota.NewRedisBackend(quota.RedisBackendConfig{
			Addr:      cfg.Limits.RedisAddr,
			Password:  cfg.Limits.RedisPassword,
			DB:        cfg.Limits.RedisDB,
			Limits:    limits,
			OpTimeout: cfg.Limits.OpTimeout,
		})
		if err != nil {
			logger.Warn("shared quota backend unavailable, using in-process fallback only",
				"addr", cfg.Limits.RedisAddr, "error", err)
		} else {
			shared = backend
			fmt.Println("✓ Shared quota backend connected")
		}
	}

	store := quota.NewStore(quota.StoreConfig{
		Limits:  limits,
		Enabled: cfg.Limits.Enabled,
		Shared:  shared,
		Logger:  logger,
		Metrics: m,
	})
	defer store.Close()

	// Audit store with async recorder and scheduled retention purge.
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		auditStore, err := audit.NewSQLiteStore(cfg.Audit.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
		defer auditStore.Close()

		recorder = audit.NewRecorder(auditStore, audit.RecorderConfig{
			Buffer: cfg.Audit.Buffer,
		}, logger)
		defer recorder.Close()

		if cfg.Audit.PruneSchedule != "" {
			scheduler := audit.NewScheduler(auditStore, audit.RetentionConfig{
				RetentionDays: cfg.Audit.RetentionDays,
				PruneSchedule: cfg.Audit.PruneSchedule,
			}, logger)
			if err := scheduler.Start(context.Background()); err != nil {
				logger.Warn("failed to start audit retention scheduler", "error", err)
			} else {
				defer scheduler.Stop()
			}
		}

		fmt.Println("✓ Audit store initialized")
	}

	model, err := server.NewUpstreamModel(&cfg.Upstream)
	if err != nil {
		return fmt.Errorf("failed to configure upstream: %w", err)
	}

	gw, err := gateway.New(gateway.Config{
		Validator: sanitize.NewValidator(sanitize.Config{
			MaxTextLength:         cfg.Validation.MaxTextLength,
			MaxSymptomLength:      cfg.Validation.MaxSymptomLength,
			MaxLanguageCodeLength: cfg.Validation.MaxLanguageCodeLength,
		}, logger),
		Guard:    prompt.NewGuard(cfg.Output.MaxLength, logger),
		Resolver: clientid.NewResolver(logger),
		Quota:    store,
		Model:    model,
		Limits:   limits,
		Audit:    recorder,
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to assemble gateway: %w", err)
	}

	opts := server.Options{Logger: logger}
	if cfg.Telemetry.Metrics.Enabled {
		opts.MetricsPath = cfg.Telemetry.Metrics.Path
	}

	srv, err := server.New(&cfg.Server, gw, opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	return srv.Start(cmd.Context())
}
