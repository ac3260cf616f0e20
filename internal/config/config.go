package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DotEnvFile is read into the process environment when present. Variables
// already set in the environment win.
var DotEnvFile = ".env"

type Config struct {
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	GRPCPort        string        `mapstructure:"GRPC_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	PostgresHost          string `mapstructure:"POSTGRES_HOST"`
	PostgresPort          int    `mapstructure:"POSTGRES_PORT"`
	PostgresUser          string `mapstructure:"POSTGRES_USER"`
	PostgresPassword      string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB            string `mapstructure:"POSTGRES_DB"`
	PostgresMigrationsDir string `mapstructure:"POSTGRES_MIGRATIONS_DIR"`

	CatalogDBPath        string `mapstructure:"CATALOG_DB_PATH"`
	CatalogMigrationsDir string `mapstructure:"CATALOG_MIGRATIONS_DIR"`
	RegionsFile          string `mapstructure:"REGIONS_FILE"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`

	KafkaBrokers    []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string        `mapstructure:"KAFKA_TOPIC"`
	OutboxInterval  time.Duration `mapstructure:"OUTBOX_INTERVAL"`
	OutboxBatchSize int           `mapstructure:"OUTBOX_BATCH_SIZE"`
	OutboxEnabled   bool          `mapstructure:"OUTBOX_ENABLED"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	DeliveryOffset     time.Duration `mapstructure:"DELIVERY_OFFSET"`
	PaymentSuccessRate int           `mapstructure:"PAYMENT_SUCCESS_RATE"`

	BuyerPollInterval  time.Duration `mapstructure:"BUYER_POLL_INTERVAL"`
	SellerPollInterval time.Duration `mapstructure:"SELLER_POLL_INTERVAL"`
	APIBaseURL         string        `mapstructure:"API_BASE_URL"`
	WatchBuyerID       string        `mapstructure:"WATCH_BUYER_ID"`
	WatchGuestID       string        `mapstructure:"WATCH_GUEST_ID"`
	WatchSellerID      string        `mapstructure:"WATCH_SELLER_ID"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`
}

var defaults = map[string]any{
	"HTTP_PORT":        "8080",
	"GRPC_PORT":        "50051",
	"REQUEST_TIMEOUT":  30 * time.Second,
	"SHUTDOWN_TIMEOUT": 10 * time.Second,

	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           5432,
	"POSTGRES_USER":           "seasnacky",
	"POSTGRES_PASSWORD":       "seasnacky",
	"POSTGRES_DB":             "seasnacky",
	"POSTGRES_MIGRATIONS_DIR": "internal/repository/migrations",

	"CATALOG_DB_PATH":        "catalog.db",
	"CATALOG_MIGRATIONS_DIR": "internal/catalog/migrations",
	"REGIONS_FILE":           "",

	"MONGO_URI":      "mongodb://localhost:27017",
	"MONGO_DATABASE": "seasnacky",
	"REDIS_ADDR":     "localhost:6379",

	"KAFKA_BROKERS":     []string{"localhost:9092"},
	"KAFKA_TOPIC":       "order-events",
	"OUTBOX_INTERVAL":   time.Second,
	"OUTBOX_BATCH_SIZE": 100,
	"OUTBOX_ENABLED":    true,

	"JWT_SECRET": "",

	"DELIVERY_OFFSET":      72 * time.Hour,
	"PAYMENT_SUCCESS_RATE": 100,

	"BUYER_POLL_INTERVAL":  15 * time.Second,
	"SELLER_POLL_INTERVAL": 10 * time.Second,
	"API_BASE_URL":         "http://localhost:8080",
	"WATCH_BUYER_ID":       "",
	"WATCH_GUEST_ID":       "",
	"WATCH_SELLER_ID":      "",

	"LOG_LEVEL":  "info",
	"LOG_PRETTY": false,
}

// Load reads defaults, then the optional config file, then the environment
// (including DotEnvFile).
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", DotEnvFile, err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.PaymentSuccessRate < 0 || c.PaymentSuccessRate > 100 {
		return fmt.Errorf("PAYMENT_SUCCESS_RATE must be within 0..100, got %d", c.PaymentSuccessRate)
	}
	if c.BuyerPollInterval <= 0 || c.SellerPollInterval <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	return nil
}
