package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Evolution EvolutionConfig `mapstructure:"evolution"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// EvolutionConfig describes how to reach the Evolution API server.
// Servers holds optional named connections selectable via --connection;
// unset fields of a named server fall back to the primary values.
type EvolutionConfig struct {
	BaseURL  string                     `mapstructure:"base_url"`
	APIKey   string                     `mapstructure:"api_key"`
	Instance string                     `mapstructure:"instance"`
	Timeout  time.Duration              `mapstructure:"timeout"`
	Servers  map[string]EvolutionServer `mapstructure:"servers"`
}

type EvolutionServer struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Server resolves a named connection. Empty name means the primary server.
func (e EvolutionConfig) Server(name string) (EvolutionServer, error) {
	if name == "" {
		return EvolutionServer{BaseURL: e.BaseURL, APIKey: e.APIKey}, nil
	}
	s, ok := e.Servers[name]
	if !ok {
		return EvolutionServer{}, fmt.Errorf("evolution server %q is not configured", name)
	}
	if s.BaseURL == "" {
		s.BaseURL = e.BaseURL
	}
	if s.APIKey == "" {
		s.APIKey = e.APIKey
	}
	return s, nil
}

type WebhookConfig struct {
	Path            string `mapstructure:"path"`
	VerifySignature bool   `mapstructure:"verify_signature"`
	Secret          string `mapstructure:"secret"`
	Queue           bool   `mapstructure:"queue"`
	RateLimit       int    `mapstructure:"rate_limit"` // requests per minute, 0 disables
}

type QueueConfig struct {
	Connection   string          `mapstructure:"connection"` // redis or sync
	Queue        string          `mapstructure:"queue"`
	MaxTries     int             `mapstructure:"max_tries"`
	Backoff      []time.Duration `mapstructure:"backoff"`
	PollInterval time.Duration   `mapstructure:"poll_interval"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: EVOBRIDGE_.
// Nested keys use underscore: EVOBRIDGE_EVOLUTION_API_KEY, EVOBRIDGE_WEBHOOK_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("evolution.base_url", "")
	v.SetDefault("evolution.api_key", "")
	v.SetDefault("evolution.instance", "")
	v.SetDefault("evolution.timeout", "10s")
	v.SetDefault("webhook.path", "/webhook/evolution")
	v.SetDefault("webhook.verify_signature", false)
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.queue", false)
	v.SetDefault("webhook.rate_limit", 0)
	v.SetDefault("queue.connection", "redis")
	v.SetDefault("queue.queue", "default")
	v.SetDefault("queue.max_tries", 3)
	v.SetDefault("queue.backoff", []string{"60s", "300s", "900s"})
	v.SetDefault("queue.poll_interval", "1s")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "evolution_bridge")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: EVOBRIDGE_DATABASE_HOST -> database.host
	v.SetEnvPrefix("EVOBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Reading the file is optional, env vars can carry the whole config.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
