package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "ibanking/backend/libs/db"
	libredis "ibanking/backend/libs/redis"
	"ibanking/backend/services/payment-service/internal/config"
	httpserver "ibanking/backend/services/payment-service/internal/http"
	"ibanking/backend/services/payment-service/internal/http/handlers"
	"ibanking/backend/services/payment-service/internal/http/middleware"
	"ibanking/backend/services/payment-service/internal/otp"
	"ibanking/backend/services/payment-service/internal/otpstore"
	"ibanking/backend/services/payment-service/internal/password"
	"ibanking/backend/services/payment-service/internal/repository"
	"ibanking/backend/services/payment-service/internal/service"
)

// App wires payment-service dependencies.
type App struct {
	server         *httpserver.Server
	paymentService *service.PaymentService
	cfg            *config.Config
	db             *sql.DB
	redisClient    *redis.Client
	logger         *zap.Logger
}

// New constructs the application graph. With no database DSN or redis addr
// configured the service runs entirely on in-memory stores.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	var (
		sqlDB       *sql.DB
		redisClient *redis.Client
		err         error
	)

	var (
		customers    repository.CustomerRepository
		tuitions     repository.TuitionRepository
		transactions repository.TransactionRepository
	)
	if cfg.Database.DSN != "" {
		sqlDB, err = libdb.NewPostgresDB(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		customers = repository.NewPostgresCustomerRepository(sqlDB)
		tuitions = repository.NewPostgresTuitionRepository(sqlDB)
		transactions = repository.NewPostgresTransactionRepository(sqlDB)
	} else {
		logger.Info("no database DSN configured, using in-memory repositories")
		customers = repository.NewMemoryCustomerRepository()
		tuitions = repository.NewMemoryTuitionRepository()
		transactions = repository.NewMemoryTransactionRepository()
	}

	var otpStore otpstore.Store
	if cfg.Redis.Addr != "" {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			if sqlDB != nil {
				sqlDB.Close()
			}
			return nil, err
		}
		otpStore = otpstore.NewRedisStore(redisClient)
	} else {
		logger.Info("no redis addr configured, using in-memory otp store")
		otpStore = otpstore.NewMemoryStore(nil)
	}

	hasher := password.NewBcryptHasher(0)
	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	authService := service.NewAuthService(customers, hasher, tokens)
	paymentService := service.NewPaymentService(
		customers,
		tuitions,
		transactions,
		otpStore,
		otp.NewLogSender(logger),
		service.PaymentConfig{
			OTPTTL:        cfg.OTPTTL(),
			OTPLength:     cfg.OTP.Length,
			MaxAttempts:   cfg.OTP.MaxAttempts,
			ResendLimit:   cfg.OTP.ResendLimit,
			ResendSpacing: cfg.ResendSpacing(),
		},
		logger,
		nil,
	)

	if cfg.Seed && cfg.Database.DSN == "" {
		if err := SeedDemoData(context.Background(), customers, tuitions, hasher); err != nil {
			return nil, err
		}
		logger.Info("seeded demo customers and tuition records")
	}

	authRequired := middleware.AuthMiddleware(tokens)
	routes := httpserver.Routes{
		Login:         handlers.NewLoginHandler(authService, paymentService),
		Me:            authRequired(handlers.NewMeHandler(authService)),
		TuitionLookup: authRequired(handlers.NewTuitionLookupHandler(paymentService)),
		Initiate:      authRequired(handlers.NewInitiateHandler(paymentService)),
		ResendOTP:     authRequired(handlers.NewResendOTPHandler(paymentService)),
		Confirm:       authRequired(handlers.NewConfirmHandler(paymentService)),
		History:       authRequired(handlers.NewHistoryHandler(paymentService)),
		Health:        handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:         server,
		paymentService: paymentService,
		cfg:            cfg,
		db:             sqlDB,
		redisClient:    redisClient,
		logger:         logger,
	}, nil
}

// Run starts the HTTP server and the expiry sweeper.
func (a *App) Run(ctx context.Context) error {
	go a.paymentService.RunExpirySweeper(ctx, a.cfg.SweepInterval())
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
