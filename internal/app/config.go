package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/doceeser/orderboard/internal/messaging/kafka"
	"github.com/doceeser/orderboard/internal/version"
)

// StorageDriver выбирает реализацию хранилища заказов.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
	StorageDriverMongo    StorageDriver = "mongo"
)

// Valid сообщает, поддерживается ли драйвер.
func (d StorageDriver) Valid() bool {
	switch d {
	case StorageDriverMemory, StorageDriverPostgres, StorageDriverMongo:
		return true
	default:
		return false
	}
}

// Config описывает настройки запуска доски заказов.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool
	MongoURI            string
	MongoDatabase       string
	MongoCollection     string
	// SeedOrders — число демонстрационных заказов для memory-хранилища.
	SeedOrders int

	AdminPassword string
	SessionSecret string
	SessionTTL    time.Duration

	BannerDuration   time.Duration
	AnnounceExisting bool
	StatusTimeout    time.Duration
	CacheVersion     string

	KafkaBrokers     []string
	KafkaIntakeTopic string
	KafkaAlertTopic  string
	KafkaGroupID     string

	AlertWebhookURL string

	LogLevel string
	LogFile  string
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		MongoDatabase:       "doceeser",
		MongoCollection:     "doceeser_pedidos",
		SessionTTL:          12 * time.Hour,
		BannerDuration:      5 * time.Second,
		AnnounceExisting:    true,
		StatusTimeout:       5 * time.Second,
		CacheVersion:        "doceeser-cache-" + version.CacheTag(),
		KafkaIntakeTopic:    kafka.TopicOrderIntake,
		KafkaAlertTopic:     kafka.TopicOrderAlerts,
		KafkaGroupID:        "doceeser-orderboard",
		LogLevel:            "info",
	}
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if !c.StorageDriver.Valid() {
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	if c.StorageDriver == StorageDriverPostgres && c.PostgresDSN == "" {
		errs = append(errs, errors.New("postgres dsn is required for postgres storage"))
	}
	if c.StorageDriver == StorageDriverMongo && c.MongoURI == "" {
		errs = append(errs, errors.New("mongo uri is required for mongo storage"))
	}
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("admin password is required"))
	}
	if c.BannerDuration <= 0 {
		errs = append(errs, errors.New("banner duration must be > 0"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaGroupID == "" {
		errs = append(errs, errors.New("kafka group id is required when brokers are set"))
	}
	return errors.Join(errs...)
}
