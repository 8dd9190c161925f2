package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dasmlab/translatron/pkg/app"
	"github.com/dasmlab/translatron/pkg/config"
	"github.com/dasmlab/translatron/pkg/logging"
	"github.com/dasmlab/translatron/pkg/server"
)

const (
	startupCheckTimeout = 10 * time.Second
	shutdownTimeout     = 30 * time.Second
)

var serveFlags struct {
	port        int
	grpcPort    int
	webhookPath string
	logLevel    string
	provider    string
	mtURL       string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long:  "Serves the Twilio webhook over HTTP with /health and /metrics, plus a gRPC health service.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := applyServeFlags(cmd, cfg); err != nil {
			return err
		}

		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServer(ctx, cfg, logger)
	},
}

func init() {
	f := serveCmd.Flags()
	f.IntVar(&serveFlags.port, "port", 0, "HTTP webhook port (overrides config)")
	f.IntVar(&serveFlags.grpcPort, "grpc-port", 0, "gRPC health port (overrides config)")
	f.StringVar(&serveFlags.webhookPath, "webhook-path", "", "Webhook path (overrides config)")
	f.StringVar(&serveFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	f.StringVar(&serveFlags.provider, "mt-engine", "", "Translation engine: none, libretranslate or argos (overrides config)")
	f.StringVar(&serveFlags.mtURL, "mt-url", "", "Base URL for the translation engine API (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// applyServeFlags copies explicitly set flags over cfg and revalidates.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = serveFlags.port
	}
	if flags.Changed("grpc-port") {
		cfg.Server.GRPCPort = serveFlags.grpcPort
	}
	if flags.Changed("webhook-path") {
		cfg.Server.WebhookPath = serveFlags.webhookPath
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = serveFlags.logLevel
	}
	if flags.Changed("mt-engine") {
		cfg.Translator.Provider = serveFlags.provider
	}
	if flags.Changed("mt-url") {
		cfg.Translator.BaseURL = serveFlags.mtURL
	}
	return cfg.Validate()
}

func runServer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"port":         cfg.Server.Port,
		"grpc_port":    cfg.Server.GRPCPort,
		"webhook_path": cfg.Server.WebhookPath,
		"mt_engine":    cfg.Translator.Provider,
		"mt_url":       cfg.Translator.BaseURL,
		"languages":    cfg.Languages,
		"actions":      cfg.Actions,
		"log_level":    logger.GetLevel().String(),
	}).Info("Starting Translatron server")

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close action backends")
		}
	}()

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	_ = a.StartupCheck(checkCtx)
	cancel()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"port": cfg.Server.GRPCPort,
		}).Error("Failed to listen on port")
		return err
	}

	httpSrv := server.NewHTTPServer(a.Pipeline, a.Health, logger, cfg.Server.Port, cfg.Server.WebhookPath)
	grpcSrv := server.NewGRPCHealthServer(logger)

	errChan := make(chan error, 2)
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		if err := httpSrv.Start(); err != nil {
			errChan <- fmt.Errorf("http serve: %w", err)
		}
	}()
	grpcSrv.SetServing(true)

	var runErr error
	select {
	case runErr = <-errChan:
		logger.WithError(runErr).Error("Server error")
	case <-ctx.Done():
		logger.Info("Received signal, shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	grpcSrv.SetServing(false)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.WithError(err).Warn("HTTP shutdown failed")
	}
	grpcSrv.Stop(shutdownCtx)

	logger.Info("Server stopped")
	return runErr
}
