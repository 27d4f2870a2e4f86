package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

// ScheduleConfig bounds open-ended revenue projection. Horizons are counted in
// billing periods (months for monthly contracts, years for yearly ones).
type ScheduleConfig struct {
	MonthlyHorizon int
	YearlyHorizon  int
	RunwayMonths   int
	ExtendMonths   int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Schedule    ScheduleConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Schedule: ScheduleConfig{
			MonthlyHorizon: v.GetInt("SCHEDULE_MONTHLY_HORIZON"),
			YearlyHorizon:  v.GetInt("SCHEDULE_YEARLY_HORIZON"),
			RunwayMonths:   v.GetInt("SCHEDULE_RUNWAY_MONTHS"),
			ExtendMonths:   v.GetInt("SCHEDULE_EXTEND_MONTHS"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	applyScheduleDefaults(&cfg.Schedule)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.MonthlyHorizon <= 0 {
		s.MonthlyHorizon = 24
	}
	if s.YearlyHorizon <= 0 {
		s.YearlyHorizon = 10
	}
	if s.RunwayMonths <= 0 {
		s.RunwayMonths = 6
	}
	if s.ExtendMonths <= 0 {
		s.ExtendMonths = 12
	}
}

// Default returns a config with schedule defaults and no external wiring,
// for tests and tooling that bypass Load.
func Default() *Config {
	cfg := &Config{Environment: "development"}
	applyScheduleDefaults(&cfg.Schedule)
	return cfg
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}
