// Package main provides the standalone sendguard server binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/relaycrm/sendguard/internal/httpapi"
	"github.com/relaycrm/sendguard/internal/observability"
	"github.com/relaycrm/sendguard/pkg/alert"
	"github.com/relaycrm/sendguard/pkg/attest"
	"github.com/relaycrm/sendguard/pkg/config"
	"github.com/relaycrm/sendguard/pkg/pii"
	"github.com/relaycrm/sendguard/pkg/pipeline"
	"github.com/relaycrm/sendguard/pkg/stream"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/sendguard.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sendguard v%s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	metrics := observability.NewMetrics("sendguard")

	// Engine components
	detector := pii.NewDetector(pii.WithConfidenceThreshold(cfg.Engine.ConfidenceThreshold))

	redactorOpts := []pii.RedactorOption{pii.WithMaskChar(cfg.RedactionRune())}
	if !cfg.Engine.Partial() {
		redactorOpts = append(redactorOpts, pii.WithFullMask())
	}
	redactor := pii.NewRedactor(detector, redactorOpts...)

	var validatorOpts []pii.ValidatorOption
	if cfg.Engine.StrictMode {
		validatorOpts = append(validatorOpts, pii.WithStrictMode())
	}
	validator := pii.NewValidator(detector, validatorOpts...)

	// Gate components
	gateOpts := []pipeline.GateOption{
		pipeline.WithRedactor(redactor),
	}

	gateConfig := pipeline.DefaultGateConfig()
	gateConfig.ServiceID = cfg.Service.ID
	gateConfig.AttestationTTL = cfg.Engine.AttestationTTL
	gateConfig.EnableAttestation = cfg.Engine.AttestationKey != ""
	gateConfig.EnableStreaming = cfg.Streaming.Enabled
	gateConfig.EnableAlerting = cfg.Alerting.WebhookURL != "" || cfg.Alerting.SlackWebhookURL != ""
	gateConfig.AlertTimeout = cfg.Alerting.Timeout
	gateOpts = append(gateOpts, pipeline.WithGateConfig(gateConfig))

	if cfg.Engine.AttestationKey != "" {
		gateOpts = append(gateOpts, pipeline.WithAttestor(attest.NewAttestor(
			[]byte(cfg.Engine.AttestationKey),
			&attest.AttestorConfig{
				ServiceID:     cfg.Service.ID,
				DefaultTTL:    cfg.Engine.AttestationTTL,
				EnableCaching: true,
			},
		)))
	}

	if gateConfig.EnableAlerting {
		gateOpts = append(gateOpts, pipeline.WithAlerter(alert.NewHTTPAlerter(alert.Config{
			WebhookURL:      cfg.Alerting.WebhookURL,
			SlackWebhookURL: cfg.Alerting.SlackWebhookURL,
			Timeout:         cfg.Alerting.Timeout,
		})))
	}

	streamerConfig := &stream.StreamerConfig{
		Brokers: cfg.Streaming.Brokers,
		Topics: stream.Topics{
			Verdicts: cfg.Streaming.Topics.Verdicts,
			Blocked:  cfg.Streaming.Topics.Blocked,
		},
		BatchSize:     cfg.Streaming.BatchSize,
		FlushInterval: cfg.Streaming.FlushInterval,
		Compression:   cfg.Streaming.Compression,
		RequiredAcks:  cfg.Streaming.RequiredAcks,
		MaxRetries:    cfg.Streaming.MaxRetries,
		RetryBackoff:  cfg.Streaming.RetryBackoff,
	}

	var streamer stream.Streamer
	if cfg.Streaming.Enabled {
		kafkaStreamer, err := stream.NewKafkaStreamer(streamerConfig)
		if err != nil {
			logger.Error("kafka streamer init failed", "error", err)
			os.Exit(1)
		}
		streamer = kafkaStreamer
		go func() {
			for err := range kafkaStreamer.Errors() {
				metrics.StreamFailures.Inc()
				logger.Warn("verdict stream error", "error", err)
			}
		}()
		logger.Info("audit streaming enabled", "brokers", cfg.Streaming.Brokers)
	} else {
		streamer = stream.NewLocalStreamer(streamerConfig)
		logger.Info("audit streaming disabled, using local streamer")
	}
	gateOpts = append(gateOpts, pipeline.WithStreamer(streamer))

	gate := pipeline.NewGate(validator, gateOpts...)
	defer gate.Close()

	// HTTP servers
	apiServer := httpapi.New(cfg, gate, detector, redactor, metrics, logger)

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.Metrics.Host, cfg.Server.Metrics.Port)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", observability.MetricsHandler())
	metricsSrv := &http.Server{
		Addr:    metricsAddr,
		Handler: metricsMux,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("server listening", "addr", httpAddr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info("metrics listening", "addr", metricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", "error", err)
	}

	logger.Info("shutdown complete")
}

// newLogger builds the process logger from the logging configuration.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
