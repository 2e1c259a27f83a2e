package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tessera-ml/tessera-go/internal/platform/auth"
	"github.com/tessera-ml/tessera-go/internal/platform/env"
	"github.com/tessera-ml/tessera-go/internal/platform/httpserver"
	"github.com/tessera-ml/tessera-go/internal/platform/objectstore"
	"github.com/tessera-ml/tessera-go/internal/platform/postgres"
	repopg "github.com/tessera-ml/tessera-go/internal/repo/postgres"
	"github.com/tessera-ml/tessera-go/internal/service/experiments"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("TESSERA_TUNER_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("TESSERA_TUNER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	storeCfg, err := objectstore.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid object store config", "error", err)
		os.Exit(2)
	}
	storeClient, err := objectstore.NewMinIOClient(storeCfg)
	if err != nil {
		logger.Error("object store client init failed", "error", err)
		os.Exit(2)
	}
	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := objectstore.EnsureBuckets(startupCtx, storeClient, storeCfg); err != nil {
		cancel()
		logger.Error("object store unavailable", "error", err)
		os.Exit(1)
	}
	cancel()

	reg, err := builtinRegistry()
	if err != nil {
		logger.Error("trainable registration failed", "error", err)
		os.Exit(2)
	}

	suiteStore := experiments.NewMinIOSuiteStore(storeClient, storeCfg.BucketSuites)
	runStore := repopg.NewRunDefinitionStore(db)
	svc := experiments.NewService(logger, suiteStore, runStore, reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("tuner"))
	mux.HandleFunc(
		"/readyz",
		httpserver.Readyz(
			"tuner",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
			httpserver.ReadinessCheck{
				Name: "minio",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return objectstore.CheckBuckets(checkCtx, storeClient, storeCfg)
				},
			},
		),
	)

	api := newTunerAPI(logger, svc, reg)
	api.register(mux)

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}

	var handler http.Handler = mux
	switch authCfg.Mode {
	case auth.ModeOIDC:
		oidcSvc, err := auth.NewOIDCService(ctx, authCfg)
		if err != nil {
			logger.Error("oidc init failed", "error", err)
			os.Exit(2)
		}
		loginHandler, err := oidcSvc.LoginHandler()
		if err != nil {
			logger.Error("oidc login handler init failed", "error", err)
			os.Exit(2)
		}
		callbackHandler, err := oidcSvc.CallbackHandler()
		if err != nil {
			logger.Error("oidc callback handler init failed", "error", err)
			os.Exit(2)
		}
		mux.HandleFunc("GET /v1/auth/login", loginHandler)
		mux.HandleFunc("GET /v1/auth/callback", callbackHandler)
		mux.HandleFunc("POST /v1/auth/logout", oidcSvc.LogoutHandler())

		handler = auth.Middleware{
			Logger:        logger,
			Authenticator: oidcSvc,
			SkipPrefixes:  []string{"/healthz", "/readyz", "/v1/auth/"},
		}.Wrap(mux)
	case auth.ModeDev:
		handler = auth.Middleware{
			Logger:        logger,
			Authenticator: auth.NewDevAuthenticator(authCfg),
			SkipPrefixes:  []string{"/healthz", "/readyz"},
		}.Wrap(mux)
	case auth.ModeDisabled:
		logger.Warn("authentication is disabled")
	}

	cfg := httpserver.Config{
		Service:         "tuner",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "tuner", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
