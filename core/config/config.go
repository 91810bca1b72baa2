package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	GoogleAPI GoogleAPIConfig `mapstructure:"google_api"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type GoogleAPIConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	// Endpoint overrides the Calendar API base URL; empty means Google's.
	Endpoint string `mapstructure:"endpoint"`
}

type CalendarConfig struct {
	ProviderTimeout    time.Duration `mapstructure:"provider_timeout"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"`
	LockWait           time.Duration `mapstructure:"lock_wait"`
	ReverseSyncDays    int           `mapstructure:"reverse_sync_days"`
	ReconcileCron      string        `mapstructure:"reconcile_cron"`
	DefaultTimezone    string        `mapstructure:"default_timezone"`
	TokenEncryptionKey string        `mapstructure:"token_encryption_key"`
}

type StorageConfig struct {
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	mu       sync.RWMutex
	instance *Config
)

var defaults = map[string]any{
	"server.host":             "0.0.0.0",
	"server.port":             7070,
	"server.shutdown_timeout": 10 * time.Second,

	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "",
	"database.name":              "meeting_sync",
	"database.sslmode":           "disable",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": 30,
	"database.auto_migrate":      true,

	"redis.enabled":  false,
	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret": "",

	"google_api.client_id":     "",
	"google_api.client_secret": "",
	"google_api.redirect_uri":  "",
	"google_api.endpoint":      "",

	"calendar.provider_timeout":     15 * time.Second,
	"calendar.lock_ttl":             30 * time.Second,
	"calendar.lock_wait":            5 * time.Second,
	"calendar.reverse_sync_days":    30,
	"calendar.reconcile_cron":       "*/30 * * * *",
	"calendar.default_timezone":     "UTC",
	"calendar.token_encryption_key": "",

	"storage.region":            "us-east-1",
	"storage.bucket":            "",
	"storage.endpoint":          "",
	"storage.access_key_id":     "",
	"storage.secret_access_key": "",
	"storage.url_expiry":        7 * 24 * time.Hour,

	"queue.concurrency": 5,

	"log.level":  "info",
	"log.format": "text",
}

// Init loads .env (when present) and the process environment into Config.
// Keys map to env vars by upper-casing and replacing "." with "_", e.g.
// calendar.provider_timeout -> CALENDAR_PROVIDER_TIMEOUT.
func Init() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	Set(&cfg)
	return &cfg, nil
}

// Set installs cfg as the process configuration.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config not initialized")
	}
	return cfg
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
