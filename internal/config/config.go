package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

type SearchConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

func (s SearchConfig) Enabled() bool { return s.URL != "" }

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

func (r RateLimitConfig) Interval() time.Duration {
	if r.PerMinute <= 0 {
		return 0
	}
	return time.Minute / time.Duration(r.PerMinute)
}

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string
	JWTSecret   []byte

	SMTP   SMTPConfig
	S3     S3Config
	Search SearchConfig

	KafkaBrokers []string
	CORSOrigins  []string

	AuthRateLimit RateLimitConfig

	MailWorkers   int
	MailQueueSize int
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

// required collects every missing key so startup reports them all at once.
type required struct {
	missing []string
}

func (r *required) get(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *required) err() error {
	if len(r.missing) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.missing))
	for _, k := range r.missing {
		errs = append(errs, fmt.Errorf("missing required env %s", k))
	}
	return errors.Join(errs...)
}

// LoadDotenv reads .env when present. A missing file is not an error.
func LoadDotenv(path string) {
	if err := godotenv.Load(path); err != nil {
		log.Printf("Notice: %s file not found: %v. Using system environment variables", path, err)
	}
}

func Load() (*Config, error) {
	req := &required{}

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "tasklists"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: req.get("DATABASE_URL"),
		JWTSecret:   []byte(req.get("JWT_SECRET")),

		SMTP: SMTPConfig{
			Host:     req.get("SMTP_HOST"),
			Port:     EnvIntDefault("SMTP_PORT", 587),
			Username: req.get("SMTP_USER"),
			Password: req.get("SMTP_PASSWORD"),
		},

		S3: S3Config{
			Endpoint:  req.get("S3_ENDPOINT"),
			Region:    EnvDefault("S3_REGION", "us-east-1"),
			AccessKey: req.get("S3_ACCESS_KEY"),
			SecretKey: req.get("S3_SECRET_KEY"),
			Bucket:    req.get("S3_BUCKET"),
		},

		Search: SearchConfig{
			URL:      os.Getenv("ES_URL"),
			Username: os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    EnvDefault("ES_INDEX", "lists"),
		},

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		CORSOrigins:  CSV(os.Getenv("CORS_ALLOW_ORIGINS")),

		AuthRateLimit: RateLimitConfig{
			PerMinute: EnvIntDefault("RATE_LIMIT_AUTH_PER_MIN", 5),
			Burst:     EnvIntDefault("RATE_LIMIT_AUTH_BURST", 5),
		},

		MailWorkers:   EnvIntDefault("MAIL_WORKERS", 2),
		MailQueueSize: EnvIntDefault("MAIL_QUEUE_SIZE", 100),
	}

	if err := req.err(); err != nil {
		return nil, err
	}

	cfg.SMTP.From = EnvDefault("SMTP_FROM", cfg.SMTP.Username)
	cfg.S3.PublicURL = strings.TrimRight(
		EnvDefault("S3_PUBLIC_URL", strings.TrimRight(cfg.S3.Endpoint, "/")+"/"+cfg.S3.Bucket),
		"/",
	)

	return cfg, nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
