package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"cropwatch/analyzer"
	"cropwatch/config"
	"cropwatch/database"
	"cropwatch/fixtures"
	"cropwatch/handlers"
	"cropwatch/logging"
	"cropwatch/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := root.settings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				settings.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, settings)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default server.port)")
	return cmd
}

func serve(ctx context.Context, settings *config.Settings) error {
	log, err := logging.New(os.Stderr, settings.Log.Level, settings.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	data, err := fixtures.Load()
	if err != nil {
		return err
	}
	images, err := database.Open(database.Options{
		Driver: settings.Storage.Driver,
		DSN:    settings.Storage.DSN,
		Logger: log,
	})
	if err != nil {
		return err
	}
	defer images.Close()
	if err := database.Seed(ctx, images, data.Images); err != nil {
		return fmt.Errorf("seed images: %w", err)
	}
	if n, err := images.Count(ctx); err == nil {
		log.Info("images seeded", "count", n)
	}
	catalog, err := database.NewCatalog(data)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	schemes, err := settings.Registry()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	runner := analyzer.NewRunner(
		analyzer.NewMockProvider(settings.Analysis.Seed),
		images,
		analyzer.WithDelay(settings.Analysis.Delay),
		analyzer.WithJobTTL(settings.Analysis.JobTTL),
		analyzer.WithLogger(log),
		analyzer.WithMetrics(m),
	)
	defer runner.Close()

	h := handlers.New(handlers.Deps{
		Images:   images,
		Catalog:  catalog,
		Schemes:  schemes,
		Runner:   runner,
		Metrics:  m,
		Logger:   log,
		MaxBytes: settings.Upload.MaxBytes,
	})
	mode := settings.Server.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", settings.Server.Port),
		Handler: handlers.NewRouter(h, handlers.RouterOptions{
			Mode:         mode,
			CORSOrigins:  settings.Server.CORS.Origins,
			RateLimitRPS: settings.Server.RateLimit.RPS,
			RateBurst:    settings.Server.RateLimit.Burst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "storage", settings.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
