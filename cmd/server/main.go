package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"certverify.client/internal/config"
	"certverify.client/internal/domain/entities"
	domainRepos "certverify.client/internal/domain/repositories"
	"certverify.client/internal/infrastructure/backend"
	"certverify.client/internal/infrastructure/blockchain"
	"certverify.client/internal/infrastructure/datasources/postgres"
	"certverify.client/internal/infrastructure/datasources/sqlite"
	"certverify.client/internal/infrastructure/qr"
	"certverify.client/internal/infrastructure/repositories"
	"certverify.client/internal/interfaces/http/handlers"
	"certverify.client/internal/interfaces/http/middleware"
	"certverify.client/internal/metrics"
	"certverify.client/internal/usecases"
	"certverify.client/pkg/jwt"
	"certverify.client/pkg/logger"
	"certverify.client/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var errNoWalletProvider = errors.New("no wallet provider configured")

var (
	loadDotenv    = godotenv.Load
	loadCfg       = config.Load
	initLog       = logger.Init
	initRedis     = redis.Init
	openSQLite    = sqlite.NewConnection
	openPostgres  = postgres.NewConnection
	newStateStore = redis.NewStateStore
	dialWallet    = blockchain.DialWalletProvider
	runServer     = func(srv *http.Server) error { return srv.ListenAndServe() }
	getStdDB      = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	signalContext = func() (context.Context, context.CancelFunc) {
		return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

// clientStateStore is the persistence selected by STATE_BACKEND
type clientStateStore struct {
	repo        domainRepos.ClientStateRepository
	uow         domainRepos.UnitOfWork
	idempotency bool
	close       func()
}

func openClientStateStore(cfg *config.Config) (*clientStateStore, error) {
	ctx := context.Background()

	switch cfg.State.Backend {
	case "", "memory":
		return &clientStateStore{
			repo:  repositories.NewMemoryClientStateRepository(),
			uow:   repositories.NewLockUnitOfWork(),
			close: func() {},
		}, nil

	case "redis":
		if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		store, err := newStateStore(cfg.State.EncryptionKey, cfg.State.TTL)
		if err != nil {
			_ = redis.Close()
			return nil, fmt.Errorf("failed to initialize state store: %w", err)
		}
		logger.Info(ctx, "Redis initialized")
		return &clientStateStore{
			repo:        repositories.NewRedisClientStateRepository(store),
			uow:         repositories.NewLockUnitOfWork(),
			idempotency: true,
			close:       func() { _ = redis.Close() },
		}, nil

	case "sqlite", "postgres":
		var (
			db  *gorm.DB
			err error
		)
		if cfg.State.Backend == "sqlite" {
			db, err = openSQLite(cfg.State.SQLitePath)
		} else {
			db, err = openPostgres(cfg.Database)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		sqlDB, err := getStdDB(db)
		if err != nil {
			return nil, fmt.Errorf("failed to get generic database object: %w", err)
		}
		if err := repositories.Migrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate client state: %w", err)
		}
		logger.Info(ctx, "Client state database ready", zap.String("backend", cfg.State.Backend))
		return &clientStateStore{
			repo:  repositories.NewClientStateRepository(db),
			uow:   repositories.NewUnitOfWork(db),
			close: func() { _ = sqlDB.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unsupported STATE_BACKEND %q", cfg.State.Backend)
}

func walletDialer(cfg config.WalletConfig) usecases.ProviderDialer {
	return func(ctx context.Context) (usecases.WalletProvider, error) {
		if cfg.ProviderRPCURL == "" {
			return nil, errNoWalletProvider
		}
		provider, err := dialWallet(ctx, cfg.ProviderRPCURL, cfg.EventPollInterval)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	targetNetwork, ok := entities.NetworkByKey(cfg.Wallet.DefaultNetwork)
	if !ok {
		return fmt.Errorf("unsupported DEFAULT_NETWORK %q", cfg.Wallet.DefaultNetwork)
	}

	stateStore, err := openClientStateStore(cfg)
	if err != nil {
		logger.Error(ctx, "Failed to open client state store", zap.Error(err))
		return err
	}
	defer stateStore.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	gateway := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Metrics: m,
	})
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	clientFactory := blockchain.NewClientFactory()
	defer clientFactory.Close()

	// Initialize usecases
	stateUsecase := usecases.NewClientStateUsecase(stateStore.repo, stateStore.uow, cfg.State.Namespace)
	issuanceUsecase := usecases.NewIssuanceUsecase(gateway, cfg.Server.PublicBaseURL)
	verificationUsecase := usecases.NewVerificationUsecase(gateway, stateUsecase)
	certificateUsecase := usecases.NewCertificateUsecase(gateway)
	qrUsecase := usecases.NewQRUsecase(gateway, verificationUsecase, nil, qr.NewDecoder(), cfg.QR.ScanInterval, m)
	rewardsUsecase := usecases.NewRewardsUsecase(gateway)
	walletUsecase := usecases.NewWalletUsecase(
		walletDialer(cfg.Wallet),
		stateUsecase,
		clientFactory,
		usecases.WalletOptions{
			TargetNetwork:   targetNetwork,
			BalanceInterval: cfg.Wallet.BalancePollInterval,
			ShowBalance:     cfg.Wallet.ShowBalance,
			AutoReconnect:   cfg.Wallet.AutoReconnect && cfg.Wallet.ProviderRPCURL != "",
		},
		m,
	)

	// Initialize handlers
	deps := routeDeps{
		adminHandler:       handlers.NewAdminHandler(cfg.Admin.Username, cfg.Admin.PasswordHash, jwtService),
		certificateHandler: handlers.NewCertificateHandler(issuanceUsecase, verificationUsecase, certificateUsecase, qrUsecase, stateUsecase),
		walletHandler:      handlers.NewWalletHandler(walletUsecase),
		rewardsHandler:     handlers.NewRewardsHandler(rewardsUsecase),
		stateHandler:       handlers.NewStateHandler(stateUsecase),
		authMiddleware:     middleware.AuthMiddleware(jwtService),
	}
	if stateStore.idempotency {
		deps.idempotencyMiddleware = middleware.IdempotencyMiddleware()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(m))

	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)
	registerHealthRoute(r)
	registerMetricsRoute(r, registry)
	registerAPIV1Routes(r, deps)

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signalContext()
	defer stop()
	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return walletUsecase.Run(gctx)
	})

	g.Go(func() error {
		defer cancel()
		logger.Info(ctx, "Certverify client starting",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", cfg.Backend.URL),
			zap.String("network", string(targetNetwork.Key)),
		)
		if err := runServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
