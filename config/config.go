package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"commerce-graph/internal/auth"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
	Auth     AuthConfig
	Business BusinessConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	URI             string
	Name            string
	UseTransactions bool
}

// RedisConfig is optional; an empty Addr disables order locks and event
// deduplication
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicEvents   string
	ConsumerGroup string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

type AuthConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int
	Policy     auth.Policy
}

type BusinessConfig struct {
	LowStockThreshold   int
	RecentActivityLimit int
	OrderLockTTL        time.Duration
}

// Load reads .env, then an optional YAML file (CONFIG_FILE, default
// config.yaml), then the environment. Later sources win. YAML keys are the
// lower-cased variable names, e.g. mongo_uri.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("load env variables: %w", err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	r := reader{k: k}

	orderRule, err := auth.ParseOrderUpdateRule(r.str("authz_order_update", string(auth.OrderUpdateClientOrOrder)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     r.str("port", "8080"),
			Env:      r.str("env", "development"),
			LogLevel: r.str("log_level", ""),
		},
		Database: DatabaseConfig{
			URI:             r.str("mongo_uri", "mongodb://localhost:27017"),
			Name:            r.str("mongo_database", "commerce"),
			UseTransactions: r.boolean("mongo_transactions", false),
		},
		Redis: RedisConfig{
			Addr:     r.str("redis_addr", ""),
			Password: r.str("redis_password", ""),
			DB:       r.integer("redis_db", 0),
		},
		Kafka: KafkaConfig{
			Enabled:       r.boolean("kafka_enabled", false),
			Brokers:       r.list("kafka_brokers", "localhost:9092"),
			TopicEvents:   r.str("kafka_topic_commerce_events", "commerce-events"),
			ConsumerGroup: r.str("kafka_consumer_group", "commerce-graph-group"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: r.str("jaeger_endpoint", ""),
		},
		Auth: AuthConfig{
			JWTSecret:  r.str("jwt_secret", ""),
			JWTExpiry:  r.duration("jwt_expires_in", time.Hour),
			BcryptCost: r.integer("bcrypt_cost", 10),
			Policy: auth.Policy{
				OrderUpdate:      orderRule,
				ProductOwnership: r.boolean("authz_product_ownership", false),
			},
		},
		Business: BusinessConfig{
			LowStockThreshold:   r.integer("low_stock_threshold", 5),
			RecentActivityLimit: r.integer("recent_activity_limit", 10),
			OrderLockTTL:        time.Duration(r.integer("order_lock_ttl_seconds", 10)) * time.Second,
		},
	}

	if r.err != nil {
		return nil, r.err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	return cfg, nil
}

// reader pulls typed values out of koanf and keeps the first parse error
type reader struct {
	k   *koanf.Koanf
	err error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.k.String(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) boolean(key string, def bool) bool {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) list(key, def string) []string {
	var out []string
	for _, part := range strings.Split(r.str(key, def), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// duration accepts Go durations plus a day suffix, e.g. "7d"
func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			r.fail(key, raw, err)
			return def
		}
		return time.Duration(n) * 24 * time.Hour
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) fail(key, raw string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s=%q: %w", strings.ToUpper(key), raw, err)
	}
}
