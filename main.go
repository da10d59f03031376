package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusdesk-be/config"
	"campusdesk-be/middlewares"
	"campusdesk-be/routes"
	"campusdesk-be/services"
	"campusdesk-be/store"
	"campusdesk-be/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type backend struct {
	users  store.UserStore
	issues store.IssueStore
	health store.Pinger
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func openBackend(ctx context.Context, cfg config.App, logger *zap.Logger) (*backend, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		issues := store.NewMemoryIssueStore()
		return &backend{users: store.NewMemoryUserStore(), issues: issues, health: issues, close: func() {}}, nil
	}

	client, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("MongoDB connection established", zap.String("database", cfg.MongoDatabase))

	if err := store.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &backend{
		users:  store.NewMongoUserStore(db, cfg.StoreTimeout),
		issues: store.NewMongoIssueStore(db, cfg.StoreTimeout),
		health: store.MongoHealth{Client: client},
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		},
	}, nil
}

func run(cfg config.App, logger *zap.Logger) error {
	ctx := context.Background()

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb == nil {
		logger.Warn("REDIS_ADDRESS not set, issue rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}
	images, err := utils.NewImageStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	metrics := middlewares.NewMetrics()
	authSvc := services.NewAuthService(be.users, be.issues, tokens, services.AuthConfig{
		LoginTTL:     cfg.LoginTokenTTL,
		FederatedTTL: cfg.GoogleTokenTTL,
	}, logger)
	issueSvc := services.NewIssueService(be.issues, be.users, images, metrics, logger)

	r := routes.NewRouter(routes.Deps{
		Auth:      authSvc,
		Issues:    issueSvc,
		Analytics: services.NewAnalyticsService(be.issues),
		Tokens:    tokens,
		Images:    images,
		Store:     be.health,
		Redis:     rdb,
		Metrics:   metrics,
		Log:       logger,

		CORSOrigins: cfg.CORSOrigins,
		IssueLimit: middlewares.IssueLimit{
			Prefix: cfg.IssueLimitKey,
			Limit:  cfg.IssueDailyLimit,
			Window: cfg.IssueLimitTTL,
		},
		MaxUploadBytes: cfg.MaxUploadMB << 20,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}
