package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"orunmila/internal/agent"
	"orunmila/internal/config"
	"orunmila/internal/domain"
	"orunmila/internal/persona"
	"orunmila/internal/provider"
	"orunmila/internal/router"
	"orunmila/internal/store"
	"orunmila/internal/telex"
	"orunmila/internal/webhook"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// Local .env files are convenient in development; absence is normal.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "orunmila",
		Short: "Orunmila: Yoruba history and culture bot for Telex",
		Long:  "Orunmila is a Telex.im chat bot that answers questions about Yoruba history and culture through an AI provider.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.orunmila/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(askCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())
	root.AddCommand(doctorCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if err := os.MkdirAll(config.DefaultConfigDir(), 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long:  "Starts the HTTP server that receives Telex webhook events and answers messages. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	logger = newLogger(cfg.General.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := loadPersona(cfg)
	if err != nil {
		return err
	}

	provFactory := provider.NewFactory(cfg, logger)
	prov, err := provFactory.DefaultProvider()
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := prov.Healthy(ctx); err != nil {
		logger.Warn("provider unhealthy at startup", "provider", prov.Name(), "err", err)
	} else {
		logger.Info("provider healthy", "provider", prov.Name())
	}

	gateway := agent.NewGateway(agent.GatewayConfig{
		Provider: prov,
		Persona:  p,
		Logger:   logger,
	})

	deliverer := telex.New(telex.Config{
		APIBase: cfg.Telex.APIBase,
		APIKey:  cfg.Telex.APIKey,
		BotID:   cfg.Telex.BotID,
		Logger:  logger,
	})

	var eventStore domain.EventStore
	if cfg.Store.Enabled {
		sqlStore, err := store.NewSQLiteStore(config.ExpandPath(cfg.Store.DBPath), logger)
		if err != nil {
			return fmt.Errorf("event store: %w", err)
		}
		defer sqlStore.Close()
		eventStore = sqlStore
		go pruneLoop(ctx, sqlStore, cfg.Store.RetentionDays)
	}

	rt := router.New(router.Config{
		Gateway:            gateway,
		Deliverer:          deliverer,
		Store:              eventStore,
		Dedup:              cfg.Store.Dedup,
		MaxConcurrentTasks: cfg.General.MaxConcurrentTasks,
		Logger:             logger,
	})

	server := webhook.NewServer(webhook.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		Router:         rt,
		Gateway:        gateway,
		Deliverer:      deliverer,
		Provider:       prov,
		Validator:      webhook.NewValidator(cfg.Telex.WebhookSecret),
		MetricsEnabled: cfg.Metrics.Enabled,
		Logger:         logger,
	})

	logger.Info("orunmila starting", "version", version, "persona", p.Name)

	err = server.Start(ctx)

	// Let in-flight message tasks finish before exiting.
	logger.Info("draining background tasks")
	done := make(chan struct{})
	go func() {
		rt.Tasks().Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("background tasks still running after drain timeout, exiting")
	}

	return err
}

// pruneLoop trims old dedup and delivery rows daily.
func pruneLoop(ctx context.Context, s *store.SQLiteStore, retentionDays int) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	maxAge := time.Duration(retentionDays) * 24 * time.Hour
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if n, err := s.Prune(ctx, maxAge); err != nil {
			logger.Warn("store prune failed", "err", err)
		} else if n > 0 {
			logger.Info("store pruned", "removed", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-off question from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
				cfg = config.Defaults()
			}

			p, err := loadPersona(cfg)
			if err != nil {
				return err
			}
			prov, err := provider.NewFactory(cfg, logger).DefaultProvider()
			if err != nil {
				return fmt.Errorf("provider: %w", err)
			}
			gateway := agent.NewGateway(agent.GatewayConfig{Provider: prov, Persona: p, Logger: logger})

			question := strings.Join(args, " ")
			fmt.Println(gateway.Answer(cmd.Context(), question, nil))
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show provider and config status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}
			factory := provider.NewFactory(cfg, logger)
			if prov := factory.HealthyProvider(cmd.Context()); prov != nil {
				logger.Info("provider", "name", prov.Name(), "healthy", true)
			} else {
				logger.Info("provider", "healthy", false)
			}
			logger.Info("telex", "api_base", cfg.Telex.APIBase, "signature_check", cfg.Telex.WebhookSecret != "")
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. general.defaultProvider)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. general.defaultProvider openai)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(config.Sanitize(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

func loadPersona(cfg *config.Config) (*persona.Persona, error) {
	if cfg.Persona.File == "" {
		return persona.Default(), nil
	}
	p, err := persona.Load(config.ExpandPath(cfg.Persona.File), logger)
	if err != nil {
		return nil, fmt.Errorf("persona: %w", err)
	}
	return p, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
