package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bridge/internal/auth"
	"bridge/internal/config"
	"bridge/internal/engine"
	"bridge/internal/logging"
	"bridge/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile   string
		addr      string
		logLevel  string
		dev       bool
		maxRounds int
		webDist   string
	)

	cmd := &cobra.Command{
		Use:          "bridge-server",
		Short:        "Serve bridge tables over HTTP and websockets",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("dev") {
				cfg.LogDev = dev
			}
			if flags.Changed("max-rounds") {
				cfg.MaxRounds = maxRounds
			}
			if flags.Changed("web") {
				cfg.WebDist = webDist
			}
			return serve(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	f.StringVar(&addr, "addr", "", "listen address (BRIDGE_ADDR)")
	f.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (BRIDGE_LOG_LEVEL)")
	f.BoolVar(&dev, "dev", false, "human readable logs (BRIDGE_LOG_DEV)")
	f.IntVar(&maxRounds, "max-rounds", 0, "deals per match, 0 for unlimited (BRIDGE_MAX_ROUNDS)")
	f.StringVar(&webDist, "web", "", "frontend build to serve (BRIDGE_WEB_DIST)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.TokenSecret == "" {
		cfg.TokenSecret = uuid.NewString()
		log.Warn("BRIDGE_TOKEN_SECRET not set, seat tokens will not survive a restart")
	}

	rules := engine.StandardRules()
	rules.MaxRounds = cfg.MaxRounds
	rules.Scorer = engine.PracticeScorer

	hub := server.NewHub(log, auth.NewTokenService(cfg.TokenSecret, cfg.TokenTTL), server.HubConfig{
		Rules:          rules,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           hub.Routes(cfg.WebDist),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Int("max_rounds", cfg.MaxRounds))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
