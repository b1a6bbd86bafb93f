package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Timetable TimetableConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig tunes the generation and editing engine.
type TimetableConfig struct {
	// OracleTimeout bounds a single per-grade oracle call. Zero disables
	// the wrapper and the call inherits the request context deadline.
	OracleTimeout time.Duration
	// HistoryLimit caps the undo stack per session. Zero means unbounded.
	HistoryLimit int
}

// ExportConfig tunes the timetable export pipeline.
type ExportConfig struct {
	// Dir is the base directory for rendered export files.
	Dir string
	// SignSecret signs download tokens. Empty disables downloads.
	SignSecret string
	// DownloadTTL bounds how long a download token stays valid.
	DownloadTTL time.Duration
	// Workers sizes the render worker pool.
	Workers int
	// FileTTL is how long rendered files are kept before cleanup.
	FileTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		OracleTimeout: parseDuration(v.GetString("TIMETABLE_ORACLE_TIMEOUT"), 90*time.Second),
		HistoryLimit:  v.GetInt("TIMETABLE_HISTORY_LIMIT"),
	}

	cfg.Export = ExportConfig{
		Dir:         v.GetString("EXPORT_DIR"),
		SignSecret:  v.GetString("EXPORT_SIGN_SECRET"),
		DownloadTTL: parseDuration(v.GetString("EXPORT_DOWNLOAD_TTL"), 24*time.Hour),
		Workers:     v.GetInt("EXPORT_WORKERS"),
		FileTTL:     parseDuration(v.GetString("EXPORT_FILE_TTL"), 72*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMETABLE_ORACLE_TIMEOUT", "90s")
	v.SetDefault("TIMETABLE_HISTORY_LIMIT", 0)

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_SIGN_SECRET", "")
	v.SetDefault("EXPORT_DOWNLOAD_TTL", "24h")
	v.SetDefault("EXPORT_WORKERS", 2)
	v.SetDefault("EXPORT_FILE_TTL", "72h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
