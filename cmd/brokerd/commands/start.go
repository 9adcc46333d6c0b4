package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brokerlabs/leasebroker/internal/logger"
	"github.com/brokerlabs/leasebroker/internal/telemetry"
	"github.com/brokerlabs/leasebroker/pkg/admin"
	"github.com/brokerlabs/leasebroker/pkg/broker"
	"github.com/brokerlabs/leasebroker/pkg/config"
	"github.com/brokerlabs/leasebroker/pkg/metrics"
	"github.com/brokerlabs/leasebroker/pkg/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagHost           string
	flagPort           int
	flagReaperInterval float64
	flagLogLevel       string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the broker",
	Long: `Start the broker's TCP frontend, background lease reaper, and
admin HTTP surface.

Flags given here override the config file for the corresponding fields;
everything else (metrics, telemetry, the admin surface) comes from the
config file or its defaults. The frame size limit is fixed at 10 MiB;
frame.max_size is not applied.

Examples:
  brokerd start
  brokerd start --host 0.0.0.0 --port 9000 --reaper-interval 30
  brokerd start --config /etc/leasebroker/config.yaml`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&flagHost, "host", "", "bind address (default 0.0.0.0)")
	startCmd.Flags().IntVar(&flagPort, "port", 0, "TCP port (default 9000)")
	startCmd.Flags().Float64Var(&flagReaperInterval, "reaper-interval", 0, "lease reaper sweep interval in seconds (default 30.0)")
	startCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level: DEBUG, INFO, WARN, ERROR")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	applyStartFlagOverrides(cfg)

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "brokerd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	metrics.Init(cfg.Metrics.Enabled)

	logger.Info("configuration loaded",
		"log_level", cfg.Logging.Level, "host", cfg.Server.Host, "port", cfg.Server.Port)
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint)
	}
	if metrics.IsEnabled() {
		logger.Info("metrics enabled")
	}

	registry := broker.NewRegistry()
	registry.StartReaper(ctx, cfg.Reaper.Interval)
	defer registry.StopReaper()

	srv := server.NewServer(server.Config{
		BindAddress:          cfg.Server.Host,
		Port:                 cfg.Server.Port,
		ShutdownTimeout:      cfg.Server.ShutdownTimeout,
		DefaultLeaseDuration: cfg.Lease.DefaultDuration,
		MaxRetries:           cfg.Lease.MaxRetries,
	}, registry)

	group, groupCtx := errgroup.WithContext(ctx)

	serverDone := make(chan error, 1)
	group.Go(func() error {
		err := srv.Start(groupCtx)
		serverDone <- err
		return err
	})

	if cfg.Admin.Enabled {
		adminSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
			Handler: admin.NewRouter(registry),
		}
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return adminSrv.Shutdown(shutdownCtx)
		})
		group.Go(func() error {
			logger.Info("admin HTTP surface listening", "port", cfg.Admin.Port)
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("broker is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()
	case err := <-serverDone:
		signal.Stop(sigChan)
		cancel()
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	}

	if err := group.Wait(); err != nil && groupCtx.Err() == nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("broker stopped gracefully")
	return nil
}

func applyStartFlagOverrides(cfg *config.Config) {
	if flagHost != "" {
		cfg.Server.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagReaperInterval != 0 {
		cfg.Reaper.Interval = time.Duration(flagReaperInterval * float64(time.Second))
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
}
