package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // часовые пояса без системной zoneinfo

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix префикс переменных окружения, переопределяющих файл: QUEUE_DATABASE_HOST и т.п.
	// Теги envconfig не используются: с ними envconfig читает и имя без префикса (USER, PATH).
	EnvPrefix = "QUEUE"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var (
	// ErrReadConfig возвращается, когда файл конфигурации не удалось разобрать
	ErrReadConfig = errors.New("config: failed to read config")

	// ErrInvalidConfig возвращается при некорректных значениях
	ErrInvalidConfig = errors.New("config: invalid config")
)

// Config конфигурация сервиса
type Config struct {
	Server   ServerConfig   `toml:"server" split_words:"true"`
	Database DatabaseConfig `toml:"database" split_words:"true"`
	Logs     LogsConfig     `toml:"logs" split_words:"true"`
	Metrics  MetricsConfig  `toml:"metrics" split_words:"true"`
	Redis    RedisConfig    `toml:"redis" split_words:"true"`
	Kafka    KafkaConfig    `toml:"kafka" split_words:"true"`
	Queue    QueueConfig    `toml:"queue" split_words:"true"`
}

// ServerConfig настройки HTTP сервера. Таймауты в секундах.
type ServerConfig struct {
	HTTPPort        int      `toml:"http_port" split_words:"true"`
	ReadTimeout     int      `toml:"read_timeout" split_words:"true"`
	WriteTimeout    int      `toml:"write_timeout" split_words:"true"`
	IdleTimeout     int      `toml:"idle_timeout" split_words:"true"`
	ShutdownTimeout int      `toml:"shutdown_timeout" split_words:"true"`
	AllowedOrigins  []string `toml:"allowed_origins" split_words:"true"` // для websocket, пусто = тот же хост
}

// DatabaseConfig настройки хранилища
type DatabaseConfig struct {
	Driver          string `toml:"driver" split_words:"true"` // postgres | memory
	Host            string `toml:"host" split_words:"true"`
	Port            int    `toml:"port" split_words:"true"`
	User            string `toml:"user" split_words:"true"`
	Password        string `toml:"password" split_words:"true"`
	DBName          string `toml:"dbname" split_words:"true"`
	SSLMode         string `toml:"sslmode" split_words:"true"`
	MaxOpenConns    int    `toml:"max_open_conns" split_words:"true"`
	MaxIdleConns    int    `toml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" split_words:"true"` // секунды
	MigrateOnStart  bool   `toml:"migrate_on_start" split_words:"true"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level" split_words:"true"`
	File  string `toml:"file" split_words:"true"` // пусто = только stdout
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" split_words:"true"`
	ServiceName string `toml:"service_name" split_words:"true"`
	Path        string `toml:"path" split_words:"true"`
}

// RedisConfig рассылка событий между экземплярами
type RedisConfig struct {
	Enabled  bool   `toml:"enabled" split_words:"true"`
	Addr     string `toml:"addr" split_words:"true"`
	Password string `toml:"password" split_words:"true"`
	DB       int    `toml:"db" split_words:"true"`
	Channel  string `toml:"channel" split_words:"true"`
}

// KafkaConfig поток событий жизненного цикла для сервиса уведомлений
type KafkaConfig struct {
	Enabled bool     `toml:"enabled" split_words:"true"`
	Brokers []string `toml:"brokers" split_words:"true"`
	Topic   string   `toml:"topic" split_words:"true"`
}

// QueueConfig настройки очереди
type QueueConfig struct {
	Timezone          string `toml:"timezone" split_words:"true"`           // IANA, в нем считается "сегодня"
	ReconcileInterval int    `toml:"reconcile_interval" split_words:"true"` // секунды, 0 = сверка выключена
}

// Default значения по умолчанию, поверх них накладываются файл и окружение
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			MigrateOnStart:  true,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			ServiceName: "smc_queue_service",
			Path:        "/metrics",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Channel: "queue-events",
		},
		Kafka: KafkaConfig{
			Topic: "appointment-notifications",
		},
		Queue: QueueConfig{
			Timezone:          "UTC",
			ReconcileInterval: 5,
		},
	}
}

// Load читает TOML файл, затем применяет переменные окружения с префиксом QUEUE.
// Отсутствующий файл не ошибка: используются значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrReadConfig, path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: process env: %v", ErrReadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные поля и диапазоны
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("%w: database.host, database.dbname and database.user are required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("%w: kafka.brokers and kafka.topic are required when kafka is enabled", ErrInvalidConfig)
	}
	if c.Queue.ReconcileInterval < 0 {
		return fmt.Errorf("%w: queue.reconcile_interval must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Queue.Location(); err != nil {
		return fmt.Errorf("%w: queue.timezone: %v", ErrInvalidConfig, err)
	}

	return nil
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL строка подключения для golang-migrate
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Location часовой пояс очереди
func (q QueueConfig) Location() (*time.Location, error) {
	return time.LoadLocation(q.Timezone)
}

// ReconcileEvery интервал сверки очередей
func (q QueueConfig) ReconcileEvery() time.Duration {
	return time.Duration(q.ReconcileInterval) * time.Second
}
