package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Workflow WorkflowConfig
	Report   ReportConfig
}

type AppConfig struct {
	Port       string
	Env        string
	CORSOrigin string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	TimeZone string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// WorkflowConfig holds the business-rule toggles of the appointment workflow.
type WorkflowConfig struct {
	// AutoBillWalkIn composes a billing transaction as part of walk-in
	// registration. Off means billing waits for an admin.
	AutoBillWalkIn bool
	// DuplicateCheck rejects a second booking for the same patient,
	// specialist, date and time.
	DuplicateCheck bool
	// DefaultStaffID is the last fallback for a visit's attending staff.
	DefaultStaffID uint
}

type ReportConfig struct {
	CacheTTL time.Duration
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_CORS_ORIGIN", "*")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_TIMEZONE", "Asia/Manila")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	v.SetDefault("WORKFLOW_AUTO_BILL_WALK_IN", false)
	v.SetDefault("WORKFLOW_DUPLICATE_CHECK", true)
	v.SetDefault("WORKFLOW_DEFAULT_STAFF_ID", 1)
	v.SetDefault("REPORT_CACHE_TTL", "5m")

	// A missing .env is fine, the environment alone can carry the config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(v.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	cacheTTL, err := time.ParseDuration(v.GetString("REPORT_CACHE_TTL"))
	if err != nil {
		cacheTTL = 5 * time.Minute
	}

	config := &Config{
		App: AppConfig{
			Port:       v.GetString("APP_PORT"),
			Env:        v.GetString("APP_ENV"),
			CORSOrigin: v.GetString("APP_CORS_ORIGIN"),
		},
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			TimeZone: v.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: accessExpiry,
		},
		Workflow: WorkflowConfig{
			AutoBillWalkIn: v.GetBool("WORKFLOW_AUTO_BILL_WALK_IN"),
			DuplicateCheck: v.GetBool("WORKFLOW_DUPLICATE_CHECK"),
			DefaultStaffID: v.GetUint("WORKFLOW_DEFAULT_STAFF_ID"),
		},
		Report: ReportConfig{
			CacheTTL: cacheTTL,
		},
	}

	return config, nil
}
