package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/app"
	"github.com/doceeser/orderboard/internal/version"
)

const (
	envHTTPAddr            = "BOARD_HTTP_ADDR"
	envGRPCAddr            = "BOARD_GRPC_ADDR"
	envMetricsAddr         = "BOARD_METRICS_ADDR"
	envStorageDriver       = "BOARD_STORAGE_DRIVER"
	envPostgresDSN         = "BOARD_POSTGRES_DSN"
	envPostgresAutoMigrate = "BOARD_POSTGRES_AUTO_MIGRATE"
	envMongoURI            = "BOARD_MONGO_URI"
	envMongoDatabase       = "BOARD_MONGO_DATABASE"
	envMongoCollection     = "BOARD_MONGO_COLLECTION"
	envSeedOrders          = "BOARD_SEED_ORDERS"
	envAdminPassword       = "BOARD_ADMIN_PASSWORD"
	envSessionSecret       = "BOARD_SESSION_SECRET"
	envSessionTTL          = "BOARD_SESSION_TTL"
	envBannerDuration      = "BOARD_BANNER_DURATION"
	envAnnounceExisting    = "BOARD_ANNOUNCE_EXISTING"
	envStatusTimeout       = "BOARD_STATUS_TIMEOUT"
	envCacheVersion        = "BOARD_CACHE_VERSION"
	envKafkaBrokers        = "KAFKA_BROKERS"
	envKafkaIntakeTopic    = "BOARD_KAFKA_INTAKE_TOPIC"
	envKafkaAlertTopic     = "BOARD_KAFKA_ALERT_TOPIC"
	envKafkaGroupID        = "BOARD_KAFKA_GROUP_ID"
	envAlertWebhookURL     = "BOARD_ALERT_WEBHOOK_URL"
	envLogLevel            = "BOARD_LOG_LEVEL"
	envLogFile             = "BOARD_LOG_FILE"
)

type envLookup func(key string) (string, bool)

// readConfigFromEnv собирает конфигурацию из окружения. Некорректные значения
// заменяются значениями по умолчанию и попадают в список предупреждений.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q ignored: %v", key, raw, err))
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			parsed, err := parseBool(v)
			if err != nil {
				warn(key, v, err)
				return
			}
			*dst = parsed
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			parsed, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
			if err != nil {
				warn(key, v, err)
				return
			}
			*dst = parsed
		}
	}

	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envGRPCAddr, &cfg.GRPCAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)

	if v, ok := lookup(envStorageDriver); ok && strings.TrimSpace(v) != "" {
		driver := app.StorageDriver(strings.ToLower(strings.TrimSpace(v)))
		if driver.Valid() {
			cfg.StorageDriver = driver
		} else {
			warn(envStorageDriver, v, errors.New("expected memory, postgres or mongo"))
		}
	}
	str(envPostgresDSN, &cfg.PostgresDSN)
	boolean(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	str(envMongoURI, &cfg.MongoURI)
	str(envMongoDatabase, &cfg.MongoDatabase)
	str(envMongoCollection, &cfg.MongoCollection)
	if v, ok := lookup(envSeedOrders); ok && strings.TrimSpace(v) != "" {
		n, err := parseInt(v, func(n int) bool { return n >= 0 }, "must be >= 0")
		if err != nil {
			warn(envSeedOrders, v, err)
		} else {
			cfg.SeedOrders = n
		}
	}

	if v, ok := lookup(envAdminPassword); ok {
		cfg.AdminPassword = v
	}
	str(envSessionSecret, &cfg.SessionSecret)
	duration(envSessionTTL, &cfg.SessionTTL)

	duration(envBannerDuration, &cfg.BannerDuration)
	boolean(envAnnounceExisting, &cfg.AnnounceExisting)
	duration(envStatusTimeout, &cfg.StatusTimeout)
	str(envCacheVersion, &cfg.CacheVersion)

	if v, ok := lookup(envKafkaBrokers); ok && strings.TrimSpace(v) != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	str(envKafkaIntakeTopic, &cfg.KafkaIntakeTopic)
	str(envKafkaAlertTopic, &cfg.KafkaAlertTopic)
	str(envKafkaGroupID, &cfg.KafkaGroupID)
	str(envAlertWebhookURL, &cfg.AlertWebhookURL)

	if v, ok := lookup(envLogLevel); ok && strings.TrimSpace(v) != "" {
		level := strings.ToLower(strings.TrimSpace(v))
		if _, err := log.ParseLevel(level); err != nil {
			warn(envLogLevel, v, err)
		} else {
			cfg.LogLevel = level
		}
	}
	str(envLogFile, &cfg.LogFile)

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("failed to load .env")
	}

	cfg, warnings := readConfigFromEnv(os.LookupEnv)

	closer, err := app.SetupLogging(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.WithError(err).Fatal("failed to set up logging")
	}
	defer closer.Close()

	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":      version.String(),
		"http_addr":    cfg.HTTPAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
	}).Info("запускаем доску заказов")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("приложение завершилось с ошибкой")
		closer.Close()
		os.Exit(1)
	}

	log.Info("доска заказов остановлена")
}
