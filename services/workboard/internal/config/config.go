package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is read when Load is called without a path.
const ConfigPath = "config.yaml"

// Event publisher drivers.
const (
	EventsNone  = "none"
	EventsAMQP  = "amqp"
	EventsRedis = "redis"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                    string   `yaml:"port"`
	LogLevel                string   `yaml:"logLevel"`
	StoreDriver             string   `yaml:"storeDriver"`
	DatabaseURL             string   `yaml:"databaseURL"`
	MongoURI                string   `yaml:"mongoURI"`
	MongoDatabase           string   `yaml:"mongoDatabase"`
	RedisAddr               string   `yaml:"redisAddr"`
	RedisPassword           string   `yaml:"redisPassword"`
	WriteRateLimitPerMinute int      `yaml:"writeRateLimitPerMinute"`
	TrustedProxyCIDRs       []string `yaml:"trustedProxyCIDRs"`
	EventsDriver            string   `yaml:"eventsDriver"`
	AMQPURL                 string   `yaml:"amqpURL"`
	AMQPExchange            string   `yaml:"amqpExchange"`
	EventsStream            string   `yaml:"eventsStream"`
}

func defaults() FileConfig {
	return FileConfig{
		Port:         "8000",
		LogLevel:     "info",
		StoreDriver:  "memory",
		EventsDriver: EventsNone,
	}
}

// Load reads config from path, then applies environment overrides. With an
// empty path ConfigPath is tried and may be absent; an explicit path must exist.
func Load(path string) (FileConfig, error) {
	cfg := defaults()
	explicit := path != ""
	if !explicit {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("WORKBOARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WORKBOARD_STORE_DRIVER"); v != "" {
		cfg.StoreDriver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.MongoURI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.MongoDatabase = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("WORKBOARD_WRITE_RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("config: WORKBOARD_WRITE_RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.WriteRateLimitPerMinute = n
	}
	if v := os.Getenv("WORKBOARD_TRUSTED_PROXY_CIDRS"); v != "" {
		cfg.TrustedProxyCIDRs = splitCSV(v)
	}
	if v := os.Getenv("WORKBOARD_EVENTS_DRIVER"); v != "" {
		cfg.EventsDriver = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("AMQP_EXCHANGE"); v != "" {
		cfg.AMQPExchange = v
	}
	if v := os.Getenv("WORKBOARD_EVENTS_STREAM"); v != "" {
		cfg.EventsStream = v
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.EventsDriver = strings.ToLower(strings.TrimSpace(cfg.EventsDriver))

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	switch cfg.StoreDriver {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required for the postgres store (set in config.yaml or DATABASE_URL)")
		}
	case "mongo":
		if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
			return errors.New("config: mongoURI and mongoDatabase are required for the mongo store")
		}
	default:
		return fmt.Errorf("config: unknown storeDriver %q (memory, postgres, mongo)", cfg.StoreDriver)
	}
	if cfg.WriteRateLimitPerMinute < 0 {
		return errors.New("config: writeRateLimitPerMinute must be >= 0")
	}
	if cfg.WriteRateLimitPerMinute > 0 && cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required when writeRateLimitPerMinute is set")
	}
	switch cfg.EventsDriver {
	case "", EventsNone:
	case EventsAMQP:
		if cfg.AMQPURL == "" {
			return errors.New("config: amqpURL is required for the amqp events driver (set in config.yaml or AMQP_URL)")
		}
	case EventsRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis events driver")
		}
	default:
		return fmt.Errorf("config: unknown eventsDriver %q (none, amqp, redis)", cfg.EventsDriver)
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
