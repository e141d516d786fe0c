package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Images   ImageConfig
	Log      LogConfig
}

type HTTPConfig struct {
	Addr            string        `default:":8080"`
	ShutdownTimeout time.Duration `default:"10s"`
}

type DatabaseConfig struct {
	// DSN takes precedence over the discrete connection fields when set.
	DSN             string
	Host            string        `default:"localhost"`
	Port            int           `default:"5432"`
	User            string        `default:"postgres"`
	Password        string
	Name            string        `default:"restaurant"`
	SSLMode         string        `default:"disable"`
	MaxOpenConns    int           `default:"10"`
	MaxIdleConns    int           `default:"5"`
	ConnMaxLifetime time.Duration `default:"30m"`
	AutoMigrate     bool          `default:"true"`
}

type ImageConfig struct {
	Dir        string `default:"./public/images"`
	PublicPath string `default:"/images"`
	MaxBytes   int64  `default:"10485760"`
}

type LogConfig struct {
	Level       string `default:"info"`
	Format      string `default:"json"`
	Development bool
}

// ConnString returns the libpq connection string for the database.
func (c DatabaseConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// Load reads an optional .env file and then the process environment on top of
// the defaults.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to set config defaults: %w", err)
	}

	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setDuration(&cfg.HTTP.ShutdownTimeout, "SHUTDOWN_TIMEOUT")

	setString(&cfg.Database.DSN, "POSTGRES_DSN")
	setString(&cfg.Database.Host, "POSTGRES_HOST")
	setInt(&cfg.Database.Port, "POSTGRES_PORT")
	setString(&cfg.Database.User, "POSTGRES_USER")
	setString(&cfg.Database.Password, "POSTGRES_PASSWORD")
	setString(&cfg.Database.Name, "POSTGRES_DB")
	setString(&cfg.Database.SSLMode, "POSTGRES_SSLMODE")
	setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&cfg.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS")
	setDuration(&cfg.Database.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME")
	setBool(&cfg.Database.AutoMigrate, "DB_AUTO_MIGRATE")

	setString(&cfg.Images.Dir, "IMAGE_DIR")
	setString(&cfg.Images.PublicPath, "IMAGE_PUBLIC_PATH")
	if v, ok := os.LookupEnv("IMAGE_MAX_BYTES"); ok {
		cfg.Images.MaxBytes = cast.ToInt64(v)
	}

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setBool(&cfg.Log.Development, "LOG_DEVELOPMENT")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("HTTP_ADDR must not be empty")
	}
	if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return errors.New("either POSTGRES_DSN or POSTGRES_HOST and POSTGRES_DB must be set")
	}
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.Images.Dir == "" || c.Images.PublicPath == "" {
		return errors.New("IMAGE_DIR and IMAGE_PUBLIC_PATH must not be empty")
	}
	if c.Images.MaxBytes <= 0 {
		return errors.New("IMAGE_MAX_BYTES must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = cast.ToInt(v)
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = cast.ToBool(v)
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = cast.ToDuration(v)
	}
}
