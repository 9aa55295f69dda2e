package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type ApplicationSettings struct {
	ServerPort     string
	LogLevel       string
	AllowedOrigins string

	CashfreeAppID      string
	CashfreeSecret     string
	CashfreeBaseURL    string
	CashfreeAPIVersion string
	OrderCurrency      string
	ReturnURLBase      string
	UpstreamTimeout    time.Duration

	BreakerMaxFailures int
	BreakerTimeout     time.Duration

	OTPMaxAttempts    int
	OTPBackoff        time.Duration
	OTPRetryableCodes []string

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	DatabaseURL  string
	AuditWorkers int
	AuditQueue   int

	CCAvenueWorkingKey string
	CCAvenueMerchantID string
	CCAvenueAccessCode string
	CCAvenueURL        string
}

var defaultRetryableCodes = "request_failed,api_connection_error,rate_limit_error,api_error,payment_processing"

// LoadEnvironmentConfig reads .env when present and falls back to the
// process environment.
func LoadEnvironmentConfig() (*ApplicationSettings, bool) {
	dotenv := godotenv.Load() == nil

	return &ApplicationSettings{
		ServerPort:     getEnvironmentVariable("PORT", "5000"),
		LogLevel:       getEnvironmentVariable("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvironmentVariable("ALLOWED_ORIGINS", "*"),

		CashfreeAppID:      os.Getenv("CASHFREE_APP_ID"),
		CashfreeSecret:     os.Getenv("CASHFREE_SECRET"),
		CashfreeBaseURL:    strings.TrimRight(getEnvironmentVariable("CASHFREE_BASE_URL", "https://sandbox.cashfree.com/pg"), "/"),
		CashfreeAPIVersion: getEnvironmentVariable("CASHFREE_API_VERSION", "2023-08-01"),
		OrderCurrency:      getEnvironmentVariable("ORDER_CURRENCY", "INR"),
		ReturnURLBase:      strings.TrimRight(getEnvironmentVariable("RETURN_URL_BASE", "http://localhost:3000"), "/"),
		UpstreamTimeout:    getDurationEnvironmentVariable("UPSTREAM_TIMEOUT", 15*time.Second),

		BreakerMaxFailures: getIntegerEnvironmentVariable("BREAKER_MAX_FAILURES", 5),
		BreakerTimeout:     getDurationEnvironmentVariable("BREAKER_TIMEOUT", 30*time.Second),

		OTPMaxAttempts:    getIntegerEnvironmentVariable("OTP_MAX_ATTEMPTS", 3),
		OTPBackoff:        getDurationEnvironmentVariable("OTP_BACKOFF", time.Second),
		OTPRetryableCodes: splitList(getEnvironmentVariable("OTP_RETRYABLE_CODES", defaultRetryableCodes)),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SessionTTL:    getDurationEnvironmentVariable("SESSION_TTL", 30*time.Minute),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		AuditWorkers: getIntegerEnvironmentVariable("AUDIT_WORKERS", 2),
		AuditQueue:   getIntegerEnvironmentVariable("AUDIT_QUEUE", 1024),

		CCAvenueWorkingKey: os.Getenv("CCAVENUE_WORKING_KEY"),
		CCAvenueMerchantID: os.Getenv("CCAVENUE_MERCHANT_ID"),
		CCAvenueAccessCode: os.Getenv("CCAVENUE_ACCESS_CODE"),
		CCAvenueURL:        getEnvironmentVariable("CCAVENUE_URL", "https://test.ccavenue.com/transaction/transaction.do?command=initiateTransaction"),
	}, dotenv
}

func (s *ApplicationSettings) Validate() error {
	var errs []error
	if s.CashfreeAppID == "" {
		errs = append(errs, errors.New("CASHFREE_APP_ID is not set"))
	}
	if s.CashfreeSecret == "" {
		errs = append(errs, errors.New("CASHFREE_SECRET is not set"))
	}
	if s.OTPMaxAttempts < 1 {
		errs = append(errs, errors.New("OTP_MAX_ATTEMPTS must be at least 1"))
	}
	return errors.Join(errs...)
}

func (s *ApplicationSettings) ListenAddr() string {
	if strings.HasPrefix(s.ServerPort, ":") {
		return s.ServerPort
	}
	return ":" + s.ServerPort
}

func getEnvironmentVariable(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntegerEnvironmentVariable(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getDurationEnvironmentVariable(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
