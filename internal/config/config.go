package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	NotifierAMQP = "amqp"
	NotifierHTTP = "http"
	NotifierLog  = "log"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Redis     RedisConfig     `yaml:"redis"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Processor ProcessorConfig `yaml:"processor"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
}

type MySQLConfig struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local", c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig is optional; an empty Addr disables the cache and the tick lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

type NotifierConfig struct {
	Kind     string        `yaml:"kind"`
	AMQPURL  string        `yaml:"amqpURL"`
	Exchange string        `yaml:"exchange"`
	HTTPURL  string        `yaml:"httpURL"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ProcessorConfig drives the background order processor. Enabled is false
// unless configured.
type ProcessorConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Interval     time.Duration `yaml:"interval"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	TickTimeout  time.Duration `yaml:"tickTimeout"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8080", ShutdownTimeout: 10 * time.Second},
		Log:    LogConfig{Level: "info", Service: "order-lifecycle"},
		Store:  StoreConfig{Driver: StoreMySQL},
		MySQL: MySQLConfig{
			Host:            "localhost",
			Port:            "3306",
			MaxOpenConns:    100,
			MaxIdleConns:    20,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{CacheTTL: 10 * time.Second},
		Notifier: NotifierConfig{
			Kind:     NotifierLog,
			Exchange: "order.exchange",
			Timeout:  2 * time.Second,
		},
		Processor: ProcessorConfig{
			Enabled:      false,
			Interval:     30 * time.Second,
			InitialDelay: 15 * time.Second,
			TickTimeout:  25 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if
// path is not empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Store.Driver, "STORE_DRIVER")

	setString(&cfg.MySQL.User, "MYSQL_USER")
	setString(&cfg.MySQL.Password, "MYSQL_PASSWORD")
	setString(&cfg.MySQL.Host, "MYSQL_HOST")
	setString(&cfg.MySQL.Port, "MYSQL_PORT")
	setString(&cfg.MySQL.Database, "MYSQL_DATABASE")

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis.Addr = host + ":6379"
	}
	setString(&cfg.Redis.Addr, "REDIS_ADDR")

	setString(&cfg.Notifier.Kind, "NOTIFIER")
	setString(&cfg.Notifier.AMQPURL, "RABBITMQ_URL")
	setString(&cfg.Notifier.Exchange, "RABBITMQ_EXCHANGE")
	setString(&cfg.Notifier.HTTPURL, "NOTIFICATION_SERVICE_URL")

	if err := setBool(&cfg.Processor.Enabled, "ORDERS_CRON_ACTIVE"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Processor.Interval, "ORDERS_CRON_INTERVAL"); err != nil {
		return err
	}
	return setDuration(&cfg.Processor.InitialDelay, "ORDERS_CRON_INITIAL_DELAY")
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case StoreMySQL, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	switch c.Notifier.Kind {
	case NotifierAMQP:
		if c.Notifier.AMQPURL == "" {
			errs = append(errs, errors.New("notifier amqp requires RABBITMQ_URL"))
		}
	case NotifierHTTP:
		if c.Notifier.HTTPURL == "" {
			errs = append(errs, errors.New("notifier http requires NOTIFICATION_SERVICE_URL"))
		}
	case NotifierLog:
	default:
		errs = append(errs, fmt.Errorf("unknown notifier %q", c.Notifier.Kind))
	}
	if c.Processor.Interval <= 0 {
		errs = append(errs, errors.New("processor interval must be positive"))
	}
	if c.Processor.InitialDelay < 0 {
		errs = append(errs, errors.New("processor initial delay must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}
