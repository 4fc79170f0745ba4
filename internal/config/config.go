package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Драйверы хранилища
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// EnvConfigPath переменная окружения с путем к конфигурации
const EnvConfigPath = "CONFIG_PATH"

// Переменные окружения с секретами, перекрывают значения из файла
const (
	EnvAdminToken    = "ADMIN_TOKEN"
	EnvPaymentsToken = "PAYMENTS_TOKEN"
	EnvDBPassword    = "DB_PASSWORD"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Logs     LogsConfig     `toml:"logs"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Admin    AdminConfig    `toml:"admin"`
	Payments PaymentsConfig `toml:"payments"`
	Kafka    KafkaConfig    `toml:"kafka"`
	Expiry   ExpiryConfig   `toml:"expiry"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

type StorageConfig struct {
	Driver string `toml:"driver"` // postgres | memory
}

type LogsConfig struct {
	File  string `toml:"file"` // Пусто - stdout
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type AdminConfig struct {
	Token string `toml:"token"`
}

type PaymentsConfig struct {
	Token string `toml:"token"`
}

type KafkaConfig struct {
	Enabled        bool     `toml:"enabled"`
	Brokers        []string `toml:"brokers"`
	Topic          string   `toml:"topic"`
	GroupID        string   `toml:"group_id"`
	MinBytes       int      `toml:"min_bytes"`
	MaxBytes       int      `toml:"max_bytes"`
	MaxWaitMs      int      `toml:"max_wait_ms"`
	CommitInterval int      `toml:"commit_interval_ms"`
	MaxRetries     int      `toml:"max_retries"`
	RetryBackoffMs int      `toml:"retry_backoff_ms"`
}

type ExpiryConfig struct {
	PendingTTL int `toml:"pending_ttl"` // секунды, 0 - заявки не истекают
	Interval   int `toml:"interval"`    // секунды
	BatchSize  int `toml:"batch_size"`
}

// DSN возвращает строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Path возвращает путь к конфигурации: CONFIG_PATH или значение по умолчанию
func Path(defaultPath string) string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return defaultPath
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию и проверяет ее
func Load(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown keys: %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "rental-service",
		},
		Kafka: KafkaConfig{
			Topic:          "payments.events",
			GroupID:        "rental-service",
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWaitMs:      500,
			CommitInterval: 0,
			MaxRetries:     3,
			RetryBackoffMs: 200,
		},
		Expiry: ExpiryConfig{
			Interval:  60,
			BatchSize: 100,
		},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAdminToken); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv(EnvPaymentsToken); v != "" {
		c.Payments.Token = v
	}
	if v := os.Getenv(EnvDBPassword); v != "" {
		c.Database.Password = v
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, "server.http_port must be in 1..65535")
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			problems = append(problems, "database.host, database.dbname and database.user are required for postgres storage")
		}
	case StorageDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.driver must be %q or %q", StorageDriverPostgres, StorageDriverMemory))
	}

	switch c.Logs.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, "logs.level must be one of debug, info, warn, error")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, "metrics.path must start with /")
	}

	if c.Admin.Token == "" {
		problems = append(problems, "admin.token is required")
	}
	if c.Payments.Token == "" {
		problems = append(problems, "payments.token is required")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" || c.Kafka.GroupID == "" {
			problems = append(problems, "kafka.brokers, kafka.topic and kafka.group_id are required when kafka is enabled")
		}
	}

	if c.Expiry.PendingTTL < 0 {
		problems = append(problems, "expiry.pending_ttl must not be negative")
	}
	if c.Expiry.PendingTTL > 0 && c.Expiry.Interval <= 0 {
		problems = append(problems, "expiry.interval must be positive when expiry is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
