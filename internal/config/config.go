package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/wordtrail/internal/database"
	"github.com/example/wordtrail/internal/spaced_repetition"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env       string    `mapstructure:"env"` // local, dev, production
	DB        DB        `mapstructure:"database"`
	Learning  Learning  `mapstructure:"learning"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	HTTP      HTTP      `mapstructure:"http"`
	Telegram  Telegram  `mapstructure:"telegram"`
}

// DB contains database-related configuration parameters.
type DB struct {
	Type         string `mapstructure:"type"` // sqlite or postgres
	Path         string `mapstructure:"path"` // sqlite file
	URL          string `mapstructure:"-"`    // postgres connection string loaded from environment
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// Options converts the section into database.Options.
func (db DB) Options() database.Options {
	return database.Options{
		Type:         db.Type,
		Path:         db.Path,
		URL:          db.URL,
		MaxOpenConns: db.MaxOpenConns,
	}
}

// Learning configures the review engine.
type Learning struct {
	Intervals    []int  `mapstructure:"intervals"` // days per review stage
	MaxBatchSize int    `mapstructure:"max_batch_size"`
	Timezone     string `mapstructure:"timezone"` // IANA name used for calendar days
}

// Table builds the interval table.
func (l Learning) Table() (spaced_repetition.IntervalTable, error) {
	return spaced_repetition.NewIntervalTable(l.Intervals...)
}

// Location loads the configured time zone.
func (l Learning) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid learning.timezone %q: %w", l.Timezone, err)
	}
	return loc, nil
}

// Scheduler configures the periodic jobs.
type Scheduler struct {
	Enabled           bool   `mapstructure:"enabled"`
	SweepTime         string `mapstructure:"sweep_time"` // HH:MM, local to learning.timezone
	ReminderStartHour int    `mapstructure:"reminder_start_hour"`
	ReminderEndHour   int    `mapstructure:"reminder_end_hour"`
	Workers           int    `mapstructure:"workers"`
}

// HTTP configures the API server.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// Telegram configures the bot. An empty token disables it.
type Telegram struct {
	Token    string  `mapstructure:"-"`
	AdminIDs []int64 `mapstructure:"admin_ids"`
}

// Load reads configuration from .env, config files and environment variables.
// Files are searched in ./config unless path names one explicitly.
func Load(path string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}

	v.SetDefault("env", "local")
	v.SetDefault("database.type", database.TypeSQLite)
	v.SetDefault("database.path", "data/wordtrail.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("learning.intervals", spaced_repetition.DefaultIntervals)
	v.SetDefault("learning.max_batch_size", 200)
	v.SetDefault("learning.timezone", "UTC")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.sweep_time", "00:05")
	v.SetDefault("scheduler.reminder_start_hour", 9)
	v.SetDefault("scheduler.reminder_end_hour", 21)
	v.SetDefault("scheduler.workers", 4)
	v.SetDefault("http.addr", ":8080")

	v.SetEnvPrefix("WORDTRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("telegram_token", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("database.type", "WORDTRAIL_DATABASE_TYPE", "DB_TYPE")
	_ = v.BindEnv("env", "WORDTRAIL_ENV", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.Telegram.Token = v.GetString("telegram_token")
	cfg.DB.URL = v.GetString("database_url")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.DB.Type {
	case database.TypeSQLite:
	case database.TypePostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres: %w", ErrMissingEnvironmentVariables)
		}
	default:
		return fmt.Errorf("unsupported database.type %q", c.DB.Type)
	}
	if _, err := c.Learning.Table(); err != nil {
		return fmt.Errorf("invalid learning.intervals: %w", err)
	}
	if _, err := c.Learning.Location(); err != nil {
		return err
	}
	if c.Learning.MaxBatchSize <= 0 {
		return fmt.Errorf("learning.max_batch_size must be positive, got %d", c.Learning.MaxBatchSize)
	}
	if _, err := time.Parse("15:04", c.Scheduler.SweepTime); err != nil {
		return fmt.Errorf("invalid scheduler.sweep_time %q: %w", c.Scheduler.SweepTime, err)
	}
	s := c.Scheduler
	if s.ReminderStartHour < 0 || s.ReminderEndHour > 24 || s.ReminderStartHour >= s.ReminderEndHour {
		return fmt.Errorf("invalid reminder window %d-%d", s.ReminderStartHour, s.ReminderEndHour)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("scheduler.workers must be positive, got %d", s.Workers)
	}
	return nil
}
