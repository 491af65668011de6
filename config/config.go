// Package config loads settings from defaults, an optional YAML file and
// the environment, in increasing order of precedence. Keys use the
// environment spelling (APP_PORT, DB_HOST, ...) in every source.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort string
	WebPort string

	// WebSecureCookies marks the front end's cookies Secure; set it when
	// the pages are served over HTTPS.
	WebSecureCookies bool

	DB DB

	ESAddr  string
	ESIndex string

	RedisAddr string
	RedisDB   int
	CacheTTL  int // seconds

	APIBaseURL string
	APITimeout time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	S3 S3

	ThumbnailMaxBytes int64

	LogLevel  string
	LogFormat string
}

type DB struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL is the pgx connection string.
func (d DB) URL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type S3 struct {
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	Endpoint  string
	PublicURL string
}

var defaults = map[string]any{
	"APP_PORT":            "8080",
	"WEB_PORT":            "3000",
	"WEB_SECURE_COOKIES":  false,
	"DB_HOST":             "postgres",
	"DB_PORT":             "5432",
	"DB_USER":             "blog",
	"DB_PASSWORD":         "blogpass",
	"DB_NAME":             "blogdb",
	"DB_SSLMODE":          "disable",
	"ES_ADDR":             "http://elasticsearch:9200",
	"ES_INDEX":            "posts",
	"REDIS_ADDR":          "redis:6379",
	"REDIS_DB":            0,
	"CACHE_TTL_SECONDS":   300,
	"API_BASE_URL":        "http://localhost:8080",
	"API_TIMEOUT_SECONDS": 10,
	"JWT_SECRET":          "",
	"JWT_TTL":             "24h",
	"S3_ACCESS_KEY":       "",
	"S3_SECRET_KEY":       "",
	"S3_REGION":           "us-east-1",
	"S3_BUCKET":           "inkblog",
	"S3_ENDPOINT":         "",
	"S3_PUBLIC_URL":       "",
	"THUMBNAIL_MAX_BYTES": 5 << 20,
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "text",
}

// Load reads the config file at path when path is non-empty and applies
// environment overrides on top.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		AppPort: v.GetString("APP_PORT"),
		WebPort: v.GetString("WEB_PORT"),

		WebSecureCookies: v.GetBool("WEB_SECURE_COOKIES"),

		DB: DB{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		ESAddr:     v.GetString("ES_ADDR"),
		ESIndex:    v.GetString("ES_INDEX"),
		RedisAddr:  v.GetString("REDIS_ADDR"),
		RedisDB:    v.GetInt("REDIS_DB"),
		CacheTTL:   v.GetInt("CACHE_TTL_SECONDS"),
		APIBaseURL: v.GetString("API_BASE_URL"),
		APITimeout: time.Duration(v.GetInt("API_TIMEOUT_SECONDS")) * time.Second,
		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTTTL:     v.GetDuration("JWT_TTL"),
		S3: S3{
			AccessKey: v.GetString("S3_ACCESS_KEY"),
			SecretKey: v.GetString("S3_SECRET_KEY"),
			Region:    v.GetString("S3_REGION"),
			Bucket:    v.GetString("S3_BUCKET"),
			Endpoint:  v.GetString("S3_ENDPOINT"),
			PublicURL: v.GetString("S3_PUBLIC_URL"),
		},
		ThumbnailMaxBytes: v.GetInt64("THUMBNAIL_MAX_BYTES"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
	}
	return cfg, nil
}

// ValidateAPI checks the settings only the api process needs.
func (c *Config) ValidateAPI() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.ThumbnailMaxBytes <= 0 {
		errs = append(errs, errors.New("THUMBNAIL_MAX_BYTES must be positive"))
	}
	return errors.Join(errs...)
}
