package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/weather-telegram-report/internal/store"
	"github.com/i474232898/weather-telegram-report/internal/weather"
)

// Run modes.
const (
	RunOnce   = "once"
	RunDaemon = "daemon"
)

// AppConfig is the validated startup configuration.
// Each field can come from the YAML file named by WEATHER_CONFIG_FILE and is overridden by its env variable.
type AppConfig struct {
	Provider          string `yaml:"provider" env:"WEATHER_PROVIDER" validate:"required"`
	OpenWeatherAPIKey string `yaml:"openweather_api_key" env:"OPENWEATHER_API_KEY"`

	TelegramBotToken string `yaml:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN" validate:"required"`
	TelegramChatID   string `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID" validate:"required"`

	City       string             `yaml:"city" env:"CITY" validate:"required"`
	Timezone   string             `yaml:"timezone" env:"TIMEZONE"`
	ReportType weather.ReportType `yaml:"report_type" env:"REPORT_TYPE" validate:"oneof=morning evening auto"`

	// DataDir holds the readings and morning forecast files.
	DataDir       string `yaml:"data_dir" env:"DATA_DIR" validate:"required"`
	RetentionDays int    `yaml:"retention_days" env:"RETENTION_DAYS" validate:"gte=1"`

	HTTPTimeout    time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT" validate:"gt=0"`
	HTTPMaxRetries uint64        `yaml:"http_max_retries" env:"HTTP_MAX_RETRIES" validate:"lte=5"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" validate:"oneof=console json"`

	RunMode     string `yaml:"run_mode" env:"RUN_MODE" validate:"oneof=once daemon"`
	MorningTime string `yaml:"morning_time" env:"MORNING_TIME" validate:"datetime=15:04"`
	EveningTime string `yaml:"evening_time" env:"EVENING_TIME" validate:"datetime=15:04"`
	Port        string `yaml:"port" env:"PORT" validate:"required,numeric"`

	GoogleGeocoderAPIKey string `yaml:"google_geocoder_api_key" env:"GOOGLE_GEOCODER_API_KEY"`
	ForecastSlots        int    `yaml:"forecast_slots" env:"FORECAST_SLOTS" validate:"gte=0,lte=40"`
}

// ReadingsPath is the readings file inside DataDir.
func (c *AppConfig) ReadingsPath() string {
	return filepath.Join(c.DataDir, store.ReadingsFile)
}

// ForecastsPath is the morning forecast file inside DataDir.
func (c *AppConfig) ForecastsPath() string {
	return filepath.Join(c.DataDir, store.ForecastsFile)
}

func defaults() *AppConfig {
	return &AppConfig{
		Provider:      "open_meteo",
		City:          "London",
		Timezone:      "UTC",
		ReportType:    weather.ReportAuto,
		DataDir:       ".",
		RetentionDays: store.DefaultRetentionDays,
		HTTPTimeout:   15 * time.Second,
		LogLevel:      "info",
		LogFormat:     "console",
		RunMode:       RunOnce,
		MorningTime:   "07:00",
		EveningTime:   "20:00",
		Port:          "8080",
		ForecastSlots: 4,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report problems by the variable the user actually sets.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads .env (if present), the optional YAML file and the environment, then validates the result.
// Every failure wraps weather.ErrConfig.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: loading .env: %v", weather.ErrConfig, err)
	}

	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("WEATHER_CONFIG_FILE")); path != "" {
		if err := readFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, validationError(err)
	}
	return cfg, nil
}

func readFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading config file: %v", weather.ErrConfig, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parsing config file %s: %v", weather.ErrConfig, path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	envString(&cfg.Provider, "WEATHER_PROVIDER")
	envString(&cfg.OpenWeatherAPIKey, "OPENWEATHER_API_KEY")
	envString(&cfg.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	envString(&cfg.TelegramChatID, "TELEGRAM_CHAT_ID")
	envString(&cfg.City, "CITY")
	envString(&cfg.Timezone, "TIMEZONE")
	envString(&cfg.DataDir, "DATA_DIR")
	envString(&cfg.LogLevel, "LOG_LEVEL")
	envString(&cfg.LogFormat, "LOG_FORMAT")
	envString(&cfg.RunMode, "RUN_MODE")
	envString(&cfg.MorningTime, "MORNING_TIME")
	envString(&cfg.EveningTime, "EVENING_TIME")
	envString(&cfg.Port, "PORT")
	envString(&cfg.GoogleGeocoderAPIKey, "GOOGLE_GEOCODER_API_KEY")

	if v, ok := lookup("REPORT_TYPE"); ok {
		cfg.ReportType = weather.ReportType(v)
	}

	if err := envInt(&cfg.RetentionDays, "RETENTION_DAYS"); err != nil {
		return err
	}
	if err := envInt(&cfg.ForecastSlots, "FORECAST_SLOTS"); err != nil {
		return err
	}
	if v, ok := lookup("HTTP_MAX_RETRIES"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid HTTP_MAX_RETRIES %q", weather.ErrConfig, v)
		}
		cfg.HTTPMaxRetries = n
	}
	if v, ok := lookup("HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: invalid HTTP_TIMEOUT: %v", weather.ErrConfig, err)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}

func (c *AppConfig) normalize() error {
	c.Provider = strings.ToLower(c.Provider)
	c.LogFormat = strings.ToLower(c.LogFormat)
	c.RunMode = strings.ToLower(c.RunMode)

	rt, err := weather.ParseReportType(string(c.ReportType))
	if err != nil {
		return err
	}
	c.ReportType = rt
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", weather.ErrConfig, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s=%v fails %s", fe.Field(), fe.Value(), constraint(fe)))
	}
	return fmt.Errorf("%w: %s", weather.ErrConfig, strings.Join(problems, "; "))
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// lookup returns the trimmed value of key when it is set and non-blank.
func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: invalid %s %q", weather.ErrConfig, key, v)
	}
	*dst = n
	return nil
}
