package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	defaultPort               = "8080"
	defaultDatabasePath       = "gymtrack.db"
	defaultSessionSecret      = "gymtrack-dev-secret"
	defaultGinMode            = "release"
	defaultUploadDir          = "web/static/uploads"
	defaultUploadURLPath      = "/static/uploads"
	defaultLogLevel           = "info"
	defaultStaleWorkoutAfter  = 12 * time.Hour
	defaultStaleSweepInterval = 30 * time.Minute
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr         string        `toml:"listen_addr"`
	Port               string        `toml:"port"`
	DatabasePath       string        `toml:"database_path"`
	SessionSecret      string        `toml:"session_secret"`
	GinMode            string        `toml:"gin_mode"`
	UploadDir          string        `toml:"upload_dir"`
	UploadURLPath      string        `toml:"upload_url_path"`
	LogLevel           string        `toml:"log_level"`
	LogFile            string        `toml:"log_file"`
	LogToStdout        bool          `toml:"log_to_stdout"`
	LogJSON            bool          `toml:"log_json"`
	StaleWorkoutAfter  time.Duration `toml:"-"`
	StaleSweepInterval time.Duration `toml:"-"`
	SeedCatalog        bool          `toml:"seed_catalog"`
}

// fileConfig 是 TOML 文件中的可选项，时长以 Go duration 字符串书写
type fileConfig struct {
	AppConfig
	StaleWorkoutAfter  string `toml:"stale_workout_after"`
	StaleSweepInterval string `toml:"stale_sweep_interval"`
}

// Load 依次读取 .env、CONFIG_FILE 指向的 TOML 文件与环境变量，后者覆盖前者，
// 并为缺失项提供安全的默认值。
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := AppConfig{LogToStdout: true, SeedCatalog: true}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return AppConfig{}, err
		}
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.ListenAddr, "LISTEN_ADDR")
	overrideString(&cfg.DatabasePath, "DATABASE_PATH")
	overrideString(&cfg.SessionSecret, "SESSION_SECRET")
	overrideString(&cfg.GinMode, "GIN_MODE")
	overrideString(&cfg.UploadDir, "UPLOAD_DIR")
	overrideString(&cfg.UploadURLPath, "UPLOAD_URL_PATH")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideString(&cfg.LogFile, "LOG_FILE")
	if err := overrideBool(&cfg.LogToStdout, "LOG_TO_STDOUT"); err != nil {
		return AppConfig{}, err
	}
	if err := overrideBool(&cfg.LogJSON, "LOG_JSON"); err != nil {
		return AppConfig{}, err
	}
	if err := overrideBool(&cfg.SeedCatalog, "SEED_CATALOG"); err != nil {
		return AppConfig{}, err
	}
	if err := overrideDuration(&cfg.StaleWorkoutAfter, "STALE_WORKOUT_AFTER"); err != nil {
		return AppConfig{}, err
	}
	if err := overrideDuration(&cfg.StaleSweepInterval, "STALE_SWEEP_INTERVAL"); err != nil {
		return AppConfig{}, err
	}

	applyDefaults(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	file := fileConfig{AppConfig: *cfg}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	*cfg = file.AppConfig
	if err := parseDuration(&cfg.StaleWorkoutAfter, "stale_workout_after", file.StaleWorkoutAfter); err != nil {
		return err
	}
	return parseDuration(&cfg.StaleSweepInterval, "stale_sweep_interval", file.StaleSweepInterval)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = defaultSessionSecret
	}
	if cfg.GinMode == "" {
		cfg.GinMode = defaultGinMode
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = defaultUploadDir
	}
	if cfg.UploadURLPath == "" {
		cfg.UploadURLPath = defaultUploadURLPath
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.StaleWorkoutAfter <= 0 {
		cfg.StaleWorkoutAfter = defaultStaleWorkoutAfter
	}
	if cfg.StaleSweepInterval <= 0 {
		cfg.StaleSweepInterval = defaultStaleSweepInterval
	}
}

func overrideString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func overrideBool(dst *bool, key string) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func overrideDuration(dst *time.Duration, key string) error {
	return parseDuration(dst, key, os.Getenv(key))
}

func parseDuration(dst *time.Duration, key, raw string) error {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = parsed
	return nil
}
