package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig selects the record store and holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Driver             string `yaml:"driver"`
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Name               string `yaml:"name"`
	SSLMode            string `yaml:"sslmode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
	ConnectTimeoutSec  int    `yaml:"connect_timeout_sec"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI               string `yaml:"uri"`
	Database          string `yaml:"database"`
	Collection        string `yaml:"collection"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
}

// StorageConfig selects the blob store backend.
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	UploadDir string `yaml:"upload_dir"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	// PublicURL overrides the base of generated object URLs (e.g. a CDN in front of the bucket).
	PublicURL string `yaml:"public_url"`
}

// HTTPConfig holds settings of the HTTP layer.
type HTTPConfig struct {
	CORSAllowOrigins string        `yaml:"cors_allow_origins"`
	BodyLimitMB      int           `yaml:"body_limit_mb"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig holds settings of the bearer-token authenticator. An empty secret disables it.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ReconcileConfig holds settings of the orphaned-asset sweeper. An empty schedule disables it.
type ReconcileConfig struct {
	Schedule string        `yaml:"schedule"`
	Grace    time.Duration `yaml:"grace"`
}

// AppConfig is the centralized configuration struct for the application.
// Defaults may come from a YAML file (CONFIG_PATH); environment variables take precedence.
type AppConfig struct {
	// AppHost is the interface the HTTP server binds to; empty binds all interfaces.
	AppHost       string          `yaml:"app_host"`
	Port          string          `yaml:"port"`
	PublicBaseURL string          `yaml:"public_base_url"`
	Timezone      string          `yaml:"timezone"`
	LogLevel      string          `yaml:"log_level"`
	Database      DatabaseConfig  `yaml:"database"`
	Mongo         MongoConfig     `yaml:"mongo"`
	Storage       StorageConfig   `yaml:"storage"`
	MinIO         MinIOConfig     `yaml:"minio"`
	HTTP          HTTPConfig      `yaml:"http"`
	Auth          AuthConfig      `yaml:"auth"`
	Reconcile     ReconcileConfig `yaml:"reconcile"`
}

// Default returns the configuration used when neither a file nor the environment set a value.
func Default() *AppConfig {
	return &AppConfig{
		Port:          "8080",
		PublicBaseURL: "http://localhost:8080",
		Timezone:      "UTC",
		LogLevel:      "info",
		Database: DatabaseConfig{
			Driver:             "mongo",
			Port:               "5432",
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       5,
			ConnMaxLifetimeSec: 300,
			ConnectTimeoutSec:  5,
		},
		Mongo: MongoConfig{
			URI:               "mongodb://localhost:27017",
			Database:          "propertyapi",
			Collection:        "properties",
			ConnectTimeoutSec: 10,
		},
		Storage: StorageConfig{
			Driver:    "local",
			UploadDir: "./uploads",
		},
		HTTP: HTTPConfig{
			CORSAllowOrigins: "*",
			BodyLimitMB:      32,
			ShutdownTimeout:  15 * time.Second,
		},
		Reconcile: ReconcileConfig{
			Grace: time.Hour,
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file named by CONFIG_PATH,
// then environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() (*AppConfig, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(c *AppConfig) {
	c.AppHost = getEnv("APP_HOST", c.AppHost)
	c.Port = getEnv("PORT", c.Port)
	c.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", c.PublicBaseURL), "/")
	c.Timezone = getEnv("TZ", c.Timezone)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetimeSec = getEnvInt("DB_CONN_MAX_LIFETIME_SEC", c.Database.ConnMaxLifetimeSec)
	c.Database.ConnectTimeoutSec = getEnvInt("DB_CONNECT_TIMEOUT_SEC", c.Database.ConnectTimeoutSec)

	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DATABASE", c.Mongo.Database)
	c.Mongo.Collection = getEnv("MONGO_COLLECTION", c.Mongo.Collection)
	c.Mongo.ConnectTimeoutSec = getEnvInt("MONGO_CONNECT_TIMEOUT_SEC", c.Mongo.ConnectTimeoutSec)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)

	c.MinIO.Endpoint = getEnv("MINIO_ENDPOINT", c.MinIO.Endpoint)
	c.MinIO.AccessKey = getEnv("MINIO_ACCESS_KEY", c.MinIO.AccessKey)
	c.MinIO.SecretKey = getEnv("MINIO_SECRET_KEY", c.MinIO.SecretKey)
	c.MinIO.Bucket = getEnv("MINIO_BUCKET", c.MinIO.Bucket)
	c.MinIO.UseSSL = getEnvBool("MINIO_USE_SSL", c.MinIO.UseSSL)
	c.MinIO.PublicURL = strings.TrimRight(getEnv("MINIO_PUBLIC_URL", c.MinIO.PublicURL), "/")

	c.HTTP.CORSAllowOrigins = getEnv("CORS_ALLOW_ORIGINS", c.HTTP.CORSAllowOrigins)
	c.HTTP.BodyLimitMB = getEnvInt("BODY_LIMIT_MB", c.HTTP.BodyLimitMB)
	c.HTTP.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)

	c.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", c.Auth.JWTSecret)

	c.Reconcile.Schedule = getEnv("RECONCILE_SCHEDULE", c.Reconcile.Schedule)
	c.Reconcile.Grace = getEnvDuration("RECONCILE_GRACE", c.Reconcile.Grace)
}

// ListenAddr returns the address the HTTP server listens on.
func (c *AppConfig) ListenAddr() string {
	return net.JoinHostPort(c.AppHost, c.Port)
}

// Location returns the configured time zone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
