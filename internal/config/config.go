package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	StoreFile      = "file"
	StoreSQLite    = "sqlite"
	StoreMongo     = "mongo"
	StoreFirestore = "firestore"
)

// Position drivers.
const (
	PositionMemory = "memory"
	PositionRedis  = "redis"
)

// Event drivers.
const (
	EventsNone     = "none"
	EventsRabbitMQ = "rabbitmq"
	EventsKafka    = "kafka"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string `mapstructure:"PORT"`
	GinMode   string `mapstructure:"GIN_MODE"`
	ClientURL string `mapstructure:"CLIENT_URL"`

	StoreDriver                      string `mapstructure:"STORE_DRIVER"`
	DataFile                         string `mapstructure:"DATA_FILE"`
	SQLitePath                       string `mapstructure:"SQLITE_PATH"`
	MongoURI                         string `mapstructure:"MONGO_URI"`
	MongoDB                          string `mapstructure:"MONGO_DB"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	TokenTTL     time.Duration `mapstructure:"TOKEN_TTL"`
	AuthRequired bool          `mapstructure:"AUTH_REQUIRED"`

	CatalogPath string `mapstructure:"CATALOG_PATH"`

	PositionDriver  string `mapstructure:"POSITION_DRIVER"`
	PositionHistory int    `mapstructure:"POSITION_HISTORY"`
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int    `mapstructure:"REDIS_DB"`

	EventsDriver string `mapstructure:"EVENTS_DRIVER"`
	RabbitMQURL  string `mapstructure:"RABBITMQ_URL"`
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	EventsTopic  string `mapstructure:"EVENTS_TOPIC"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`

	AuthRatePerMinute int  `mapstructure:"AUTH_RATE_PER_MINUTE"`
	MetricsEnabled    bool `mapstructure:"METRICS_ENABLED"`
}

// keys lists every environment variable the server reads. viper.AutomaticEnv only
// resolves keys it already knows about, so each one is bound explicitly.
var keys = []string{
	"PORT", "GIN_MODE", "CLIENT_URL",
	"STORE_DRIVER", "DATA_FILE", "SQLITE_PATH", "MONGO_URI", "MONGO_DB",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"JWT_SECRET", "TOKEN_TTL", "AUTH_REQUIRED",
	"CATALOG_PATH",
	"POSITION_DRIVER", "POSITION_HISTORY", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"EVENTS_DRIVER", "RABBITMQ_URL", "KAFKA_BROKERS", "EVENTS_TOPIC",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM",
	"AUTH_RATE_PER_MINUTE", "METRICS_ENABLED",
}

// devSecret signs tokens when JWT_SECRET is unset outside release mode.
const devSecret = "luxdrive-dev-secret"

// LoadDotEnv loads a .env file outside release mode. In production, environment
// variables should be set directly. A missing file is not an error and variables
// already present in the environment win.
func LoadDotEnv(paths ...string) error {
	if os.Getenv("GIN_MODE") == "release" {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_DRIVER", StoreFile)
	v.SetDefault("DATA_FILE", "data/data.json")
	v.SetDefault("SQLITE_PATH", "data/luxdrive.db")
	v.SetDefault("MONGO_DB", "luxdrive")
	v.SetDefault("TOKEN_TTL", "72h")
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("POSITION_DRIVER", PositionMemory)
	v.SetDefault("POSITION_HISTORY", 20)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("EVENTS_DRIVER", EventsNone)
	v.SetDefault("EVENTS_TOPIC", "bookings")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("AUTH_RATE_PER_MINUTE", 30)
	v.SetDefault("METRICS_ENABLED", true)

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.PositionDriver = strings.ToLower(cfg.PositionDriver)
	cfg.EventsDriver = strings.ToLower(cfg.EventsDriver)

	switch cfg.StoreDriver {
	case StoreFile:
		if cfg.DataFile == "" {
			return errors.New("DATA_FILE is required for the file store")
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	case StoreFirestore:
		if cfg.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required for the firestore store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	switch cfg.PositionDriver {
	case PositionMemory, PositionRedis:
	default:
		return fmt.Errorf("unknown POSITION_DRIVER %q", cfg.PositionDriver)
	}
	if cfg.PositionHistory <= 0 {
		return errors.New("POSITION_HISTORY must be positive")
	}

	switch cfg.EventsDriver {
	case EventsNone:
	case EventsRabbitMQ:
		if cfg.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required for the rabbitmq events driver")
		}
	case EventsKafka:
		if cfg.KafkaBrokers == "" {
			return errors.New("KAFKA_BROKERS is required for the kafka events driver")
		}
	default:
		return fmt.Errorf("unknown EVENTS_DRIVER %q", cfg.EventsDriver)
	}

	if cfg.JWTSecret == "" {
		if strings.ToLower(cfg.GinMode) == "release" {
			return errors.New("JWT_SECRET is required in release mode")
		}
		cfg.JWTSecret = devSecret
	}
	if cfg.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if cfg.AuthRatePerMinute <= 0 {
		return errors.New("AUTH_RATE_PER_MINUTE must be positive")
	}
	return nil
}

// MailEnabled reports whether booking confirmations should be mailed.
func (cfg *Config) MailEnabled() bool {
	return cfg.SMTPHost != "" && cfg.MailFrom != ""
}

// ClientOrigins splits CLIENT_URL into the list of allowed browser origins.
func (cfg *Config) ClientOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(cfg.ClientURL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
