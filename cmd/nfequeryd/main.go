package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utilhub/nfequery/internal/artifact"
	"github.com/utilhub/nfequery/internal/certstore"
	"github.com/utilhub/nfequery/internal/config"
	"github.com/utilhub/nfequery/internal/dfe"
	"github.com/utilhub/nfequery/internal/logger"
	"github.com/utilhub/nfequery/internal/server"
	"github.com/utilhub/nfequery/internal/store"
	"github.com/utilhub/nfequery/internal/version"
)

//	@title			nfequeryd
//	@description	nfequeryd exposes the fiscal document query pipeline over HTTP: submit an
//	@description	access key plus a certificate fingerprint and receive the extracted document
//	@description	summary, with the source XML and rendered view stored as artifacts.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	Individual endpoints document their specific business logic errors.
//	@description
//	@description	## Request Limits
//	@description	All endpoints are protected by:
//	@description	- **Rate limiting**: Configurable requests per second (see env vars) - default 100 rps (set to 0 to disable)
//	@description	- **Request size limits**: Configurable (see env vars) - default 1MB
//	@description
//	@description	## Authentication
//	@description	The service itself is unauthenticated and intended to run on a trusted network.
//	@description	Queries to the distribution service are authenticated with the client
//	@description	certificate named in the request; private key material never leaves the host.
//	@description
//	@license.name	MIT

//	@accept		json
//	@produce	json

//	@tag.name			Queries
//	@tag.description	Submit document distribution queries

//	@tag.name			Artifacts
//	@tag.description	Fetch stored query artifacts

//	@tag.name			Common
//	@tag.description	Server endpoints (health, readiness, version)

func main() {
	cmd := &cobra.Command{
		Use:   "nfequeryd",
		Short: "Fiscal document query service",
		Long:  `nfequeryd serves the fiscal document query pipeline over HTTP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("DFE_ENDPOINT", cfg.DistributionEndpoint),
		slog.String("TP_AMB", cfg.TPAmb),
		slog.String("CERT_DIR", cfg.CertDir),
		slog.String("ARTIFACT_DIR", cfg.ArtifactDir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	artifacts, err := artifact.NewStore(cfg.ArtifactDir, appLogger)
	if err != nil {
		appLogger.Error("Failed to create artifact store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// housekeeping before taking traffic
	if _, err := artifact.Sweep(artifacts.Dir(), cfg.ArtifactRetention, appLogger); err != nil {
		appLogger.Warn("artifact sweep failed", slog.String("error", err.Error()))
	}

	var recorder store.Recorder = store.NewNop()
	if cfg.DatabaseURL != "" {
		pgRecorder, err := store.NewPostgresRecorder(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect query audit store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		recorder = pgRecorder
	}
	defer recorder.Close()

	service := dfe.NewService(
		certstore.NewFileStore(cfg.CertDir),
		dfe.NewClient(cfg.DistributionEndpoint, cfg.ExchangeTimeout, appLogger),
		artifacts,
		recorder,
		cfg.TPAmb,
		appLogger,
	)

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	srv := server.NewServer(cfg, appLogger, service, artifacts)

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
