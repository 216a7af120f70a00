package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/qms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/qms/internal/service/quotation"
)

// Поддерживаемые драйверы хранилища смет.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска сервиса смет.
type Config struct {
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	// PostgresMaxConns ноль: размер пула по умолчанию.
	PostgresMaxConns    int

	// RedisURL пустой: кеш поиска и счётчики покупок живут в памяти процесса.
	RedisURL string

	// KafkaBrokers пустой: события смет не публикуются.
	KafkaBrokers []string
	KafkaTopic   string

	AutoRecomputeTotal bool
	LockCompleted      bool

	// Timezone определяет "сегодня" для проверки даты поставки и границы диапазонов.
	Timezone string
	LogLevel string

	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration
	ShutdownTimeout     time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	policy := quotation.DefaultPolicy()
	return Config{
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		KafkaTopic:          kafka.TopicQuotationEvents,
		AutoRecomputeTotal:  policy.AutoRecomputeTotal,
		LockCompleted:       policy.LockCompleted,
		Timezone:            "Asia/Seoul",
		LogLevel:            "info",
		BreakerMaxFailures:  5,
		BreakerResetTimeout: 30 * time.Second,
		ShutdownTimeout:     5 * time.Second,
	}
}

// LoadConfig читает .env (если он есть) и переменные окружения QMS_* поверх DefaultConfig.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	var errs []error

	cfg.GRPCAddr = getEnv("QMS_GRPC_ADDR", cfg.GRPCAddr)
	cfg.MetricsAddr = getEnv("QMS_METRICS_ADDR", cfg.MetricsAddr)
	cfg.StorageDriver = strings.ToLower(getEnv("QMS_STORAGE_DRIVER", cfg.StorageDriver))
	cfg.PostgresDSN = getEnv("QMS_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisURL = getEnv("QMS_REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = splitCSV(getEnv("QMS_KAFKA_BROKERS", ""))
	cfg.KafkaTopic = getEnv("QMS_KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.Timezone = getEnv("QMS_TIMEZONE", cfg.Timezone)
	cfg.LogLevel = getEnv("QMS_LOG_LEVEL", cfg.LogLevel)

	cfg.PostgresAutoMigrate = parseBool("QMS_POSTGRES_AUTO_MIGRATE", cfg.PostgresAutoMigrate, &errs)
	cfg.AutoRecomputeTotal = parseBool("QMS_AUTO_RECOMPUTE_TOTAL", cfg.AutoRecomputeTotal, &errs)
	cfg.LockCompleted = parseBool("QMS_LOCK_COMPLETED", cfg.LockCompleted, &errs)
	cfg.PostgresMaxConns = parseInt("QMS_POSTGRES_MAX_CONNS", cfg.PostgresMaxConns, &errs)
	cfg.BreakerMaxFailures = parseInt("QMS_BREAKER_MAX_FAILURES", cfg.BreakerMaxFailures, &errs)
	cfg.BreakerResetTimeout = parseDuration("QMS_BREAKER_RESET_TIMEOUT", cfg.BreakerResetTimeout, &errs)
	cfg.ShutdownTimeout = parseDuration("QMS_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, &errs)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("QMS_POSTGRES_DSN is required for postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err))
	}
	if c.PostgresMaxConns < 0 {
		errs = append(errs, errors.New("postgres max conns must not be negative"))
	}
	if c.BreakerMaxFailures <= 0 {
		errs = append(errs, errors.New("breaker max failures must be positive"))
	}
	if c.BreakerResetTimeout <= 0 {
		errs = append(errs, errors.New("breaker reset timeout must be positive"))
	}

	return errors.Join(errs...)
}

// Location разбирает Timezone. Пустое значение означает UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Policy собирает политику агрегата сметы.
func (c Config) Policy() quotation.Policy {
	return quotation.Policy{
		AutoRecomputeTotal: c.AutoRecomputeTotal,
		LockCompleted:      c.LockCompleted,
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func parseBool(key string, fallback bool, errs *[]error) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func parseInt(key string, fallback int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func parseDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}
