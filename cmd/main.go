package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	"checkout/adapter"
	"checkout/handler"
	"checkout/internal/circuitbreaker"
	"checkout/internal/config"
	"checkout/internal/infra/audit"
	"checkout/internal/infra/health"
	"checkout/internal/infra/storage"
	"checkout/internal/logging"
	"checkout/internal/sentinel"
)

func main() {
	cfg, dotenv := config.LoadEnvironmentConfig()
	log := logging.New(cfg.LogLevel)
	if dotenv {
		log.Debug("Loaded .env")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   3 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		Timeout: cfg.UpstreamTimeout + time.Second,
	}

	checker := health.NewChecker(5 * time.Second)

	store, closeStore := newSessionStore(cfg, log)
	defer closeStore()
	checker.Register("store", store.Ping)

	recorder, exchanges := newRecorder(cfg, log, checker)

	breaker := circuitbreaker.NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerTimeout, 1)
	cashfree := adapter.NewCashfreeAdapter(client, adapter.CashfreeConfig{
		BaseURL:    cfg.CashfreeBaseURL,
		AppID:      cfg.CashfreeAppID,
		Secret:     cfg.CashfreeSecret,
		APIVersion: cfg.CashfreeAPIVersion,
		Timeout:    cfg.UpstreamTimeout,
	}, breaker, recorder, log)

	verifier := adapter.NewOTPVerifier(cashfree, adapter.RetryPolicy{
		MaxAttempts: cfg.OTPMaxAttempts,
		Backoff:     cfg.OTPBackoff,
		Retryable:   sentinel.NewWhitelist(cfg.OTPRetryableCodes...),
	}, log)

	payments := handler.NewPaymentHandler(cashfree, store, verifier, handler.Options{
		Currency:      cfg.OrderCurrency,
		ReturnURLBase: cfg.ReturnURLBase,
	}, log)
	cca := handler.NewCCAvenueHandler(handler.CCAvenueOptions{
		WorkingKey: cfg.CCAvenueWorkingKey,
		MerchantID: cfg.CCAvenueMerchantID,
		AccessCode: cfg.CCAvenueAccessCode,
		URL:        cfg.CCAvenueURL,
	}, log)

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          handler.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + handler.HeaderIdempotencyKey,
	}))
	app.Use(handler.AccessLog(log))

	handler.Register(app, payments, cca, handler.NewHealthHandler(cashfree, checker), exchanges)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.ListenAddr(),
			"gateway":  cfg.CashfreeBaseURL,
			"currency": cfg.OrderCurrency,
		}).Info("Checkout relay listening")
		if err := app.Listen(cfg.ListenAddr()); err != nil {
			log.Errorf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warnf("Shutdown: %v", err)
	}
	recorder.Close()
}

func newSessionStore(cfg *config.ApplicationSettings, log *logrus.Logger) (storage.SessionStore, func()) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, keeping order sessions in memory")
		return storage.NewMemoryStorage(cfg.SessionTTL), func() {}
	}
	r := storage.NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL, log)
	return r, func() {
		if err := r.Close(); err != nil {
			log.Warnf("Closing redis: %v", err)
		}
	}
}

func newRecorder(cfg *config.ApplicationSettings, log *logrus.Logger, checker *health.Checker) (audit.Recorder, *handler.AuditHandler) {
	if cfg.DatabaseURL == "" {
		log.Info("DATABASE_URL not set, gateway exchanges are not audited")
		return audit.NopRecorder{}, nil
	}

	db, err := audit.ConnectPGSQL(cfg.DatabaseURL)
	if err != nil {
		log.Errorf("Audit database unavailable, continuing without it: %v", err)
		return audit.NopRecorder{}, nil
	}
	repo, err := audit.NewORMRepository(db, log)
	if err != nil {
		log.Errorf("Audit migration failed, continuing without it: %v", err)
		return audit.NopRecorder{}, nil
	}

	checker.Register("audit", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	rec := audit.NewQueueRecorder(repo, log, cfg.AuditWorkers, cfg.AuditQueue)
	rec.StartProcessing()
	return rec, handler.NewAuditHandler(repo)
}
