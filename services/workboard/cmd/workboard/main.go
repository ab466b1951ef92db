package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"workboard/internal/metrics"
	"workboard/internal/ratelimit"
	"workboard/internal/util"
	"workboard/pkg/events"
	"workboard/services/workboard/internal/app"
	"workboard/services/workboard/internal/config"
	"workboard/services/workboard/internal/server"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "workboard",
	Short: "Role-based project management API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables or indexes for the configured store and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		util.InitLogger("workboard", cfg.LogLevel)
		ctx := cmd.Context()
		st, err := app.OpenStore(ctx, appConfig(cfg))
		if err != nil {
			return err
		}
		core, err := app.New(app.Config{Store: st})
		if err != nil {
			return err
		}
		slog.Info("store ready", "driver", cfg.StoreDriver)
		return core.Close(ctx)
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Print system insights as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		util.InitLogger("workboard", cfg.LogLevel)
		core, err := app.New(appConfig(cfg))
		if err != nil {
			return err
		}
		defer core.Close(context.Background())

		res, err := core.SystemInsights(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Insight())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default ./config.yaml when present)")
	rootCmd.AddCommand(serveCmd, migrateCmd, insightsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func appConfig(cfg config.FileConfig) app.Config {
	return app.Config{
		StoreDriver:   cfg.StoreDriver,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	}
}

func serve(ctx context.Context, cfg config.FileConfig) error {
	logger := util.InitLogger("workboard", cfg.LogLevel)
	prom := metrics.NewPrometheus("")

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	appCfg := appConfig(cfg)
	appCfg.Publisher = publisher
	appCfg.Metrics = prom
	core, err := app.New(appCfg)
	if err != nil {
		_ = publisher.Close()
		return fmt.Errorf("init app: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := core.Close(closeCtx); err != nil {
			logger.Warn("close app", "err", err)
		}
	}()

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.WriteRateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, ratelimit.DefaultPrefix, cfg.WriteRateLimitPerMinute, time.Minute)
		if err != nil {
			return fmt.Errorf("init rate limiter: %w", err)
		}
		defer limiter.Close()
	}
	proxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	httpServer, err := server.New(server.Config{
		App:            core,
		WriteLimiter:   limiter,
		TrustedProxies: proxies,
		Metrics:        prom,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "store", cfg.StoreDriver, "events", cfg.EventsDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newPublisher(cfg config.FileConfig) (events.Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsAMQP:
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("init amqp publisher: %w", err)
		}
		return p, nil
	case config.EventsRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		p, err := events.NewRedisStreamPublisher(client, cfg.EventsStream, 0)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("init redis stream publisher: %w", err)
		}
		return p, nil
	default:
		return events.Nop{}, nil
	}
}
