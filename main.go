package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"webpulse/internal/cache"
	"webpulse/internal/config"
	"webpulse/internal/db"
	"webpulse/internal/http/handlers"
	"webpulse/internal/logger"
	"webpulse/internal/sink"
	"webpulse/internal/stats"
	"webpulse/internal/tracking"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "webpulse",
	Short:         "Client-side web analytics collector",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tracking scripts and accept events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		log := logger.New(cfg.LoggerMode)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := serve(ctx, cfg, log); err != nil {
			log.Error().Err(err).Msg("server stopped")
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	sqlDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	store := db.NewStore(sqlDB, cfg)
	db.StartRetentionWorker(ctx, sqlDB, log)

	var configStore tracking.ConfigStore = store
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		configStore = cache.NewProjectCache(client, store, cfg.ConfigCacheTTL, log)
		log.Info().Dur("ttl", cfg.ConfigCacheTTL).Msg("project config cache enabled")
	}

	var events tracking.EventLog = store
	if cfg.NATSURL != "" {
		natsLog, err := sink.NewNATSLog(cfg.NATSURL, cfg.NATSSubjectPrefix, log)
		if err != nil {
			return err
		}
		defer natsLog.Close()
		events = sink.NewFanout(store, log, natsLog)
		log.Info().Str("prefix", cfg.NATSSubjectPrefix).Msg("mirroring events to NATS")
	}

	var minifier tracking.Minifier
	if cfg.MinifyScripts {
		minifier = tracking.NewJSMinifier()
	}

	resolver := tracking.NewResolver(configStore)
	allowlist := tracking.NewOriginAllowlist(cfg.IsProduction(), cfg.AllowedOrigins)
	if allowlist.Enforced() && len(cfg.AllowedOrigins) == 0 {
		log.Warn().Msg("production mode with empty ALLOWED_ORIGINS: all tracking requests will be rejected")
	}

	r := handlers.NewRouter(handlers.Routes{
		ClientScript: tracking.NewDelivery(cfg.TrackerURL, resolver, allowlist, minifier, log),
		Track:        tracking.NewGateway(resolver, allowlist, events, log),
		Root:         handlers.NewRootHandler(cfg),
		Stats:        stats.NewHandler(store),
	}, log)

	srv := &fasthttp.Server{
		Handler:      handlers.RequestLogger(log)(r.Handler),
		Name:         "webpulse",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *fasthttp.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = &fasthttp.Server{Handler: handlers.MetricsHandler(), Name: "webpulse-metrics"}
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr()).
			Str("mode", cfg.ServerMode).
			Bool("https", cfg.ServeHTTPS).
			Msg("webpulse listening")
		if cfg.ServeHTTPS {
			errCh <- srv.ListenAndServeTLS(cfg.ListenAddr(), cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe(cfg.ListenAddr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
		}
	}
	return errors.Join(errs...)
}
