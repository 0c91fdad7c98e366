package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development production test"`
	APIPort         string        `mapstructure:"API_PORT" validate:"required,numeric"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required,url"`

	JWTSecret       string        `mapstructure:"JWT_SECRET" validate:"required"`
	JWTExpire       time.Duration `mapstructure:"JWT_EXPIRE" validate:"gt=0"`
	JWTCookieExpire int           `mapstructure:"JWT_COOKIE_EXPIRE" validate:"gte=1"` // days

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT" validate:"gte=1,lte=65535"`
	SMTPEmail    string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	FromEmail    string `mapstructure:"FROM_EMAIL" validate:"required,email"`
	FromName     string `mapstructure:"FROM_NAME"`

	GeocoderProvider string `mapstructure:"GEOCODER_PROVIDER" validate:"oneof=mapquest"`
	GeocoderAPIKey   string `mapstructure:"GEOCODER_API_KEY"`
	GeocoderBaseURL  string `mapstructure:"GEOCODER_BASE_URL" validate:"required,url"`

	FileUploadPath string `mapstructure:"FILE_UPLOAD_PATH" validate:"required"`
	MaxFileUpload  int64  `mapstructure:"MAX_FILE_UPLOAD" validate:"gt=0"` // bytes

	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB" validate:"gte=0"`

	RateLimitWindow time.Duration `mapstructure:"RATE_LIMIT_WINDOW" validate:"gt=0"`
	RateLimitMax    int           `mapstructure:"RATE_LIMIT_MAX" validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var defaults = map[string]interface{}{
	"APP_ENV":           "development",
	"API_PORT":          "5000",
	"SHUTDOWN_TIMEOUT":  "15s",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "json",
	"DATABASE_URL":      "",
	"JWT_SECRET":        "",
	"JWT_EXPIRE":        "720h",
	"JWT_COOKIE_EXPIRE": 30,
	"SMTP_HOST":         "",
	"SMTP_PORT":         587,
	"SMTP_EMAIL":        "",
	"SMTP_PASSWORD":     "",
	"FROM_EMAIL":        "noreply@devcamper.io",
	"FROM_NAME":         "DevCamper",
	"GEOCODER_PROVIDER": "mapquest",
	"GEOCODER_API_KEY":  "",
	"GEOCODER_BASE_URL": "https://www.mapquestapi.com",
	"FILE_UPLOAD_PATH":  "./public/uploads",
	"MAX_FILE_UPLOAD":   1000000,
	"REDIS_ADDR":        "",
	"REDIS_PASSWORD":    "",
	"REDIS_DB":          0,
	"RATE_LIMIT_WINDOW": "10m",
	"RATE_LIMIT_MAX":    100,
}

// Load reads .env if present, then the process environment, and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	// Every key needs a default or an explicit binding for Unmarshal to see
	// values that only exist in the environment.
	for key, val := range defaults {
		v.SetDefault(key, val)
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CookieTTL is how long the browser keeps the session cookie.
func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.JWTCookieExpire) * 24 * time.Hour
}

// MailEnabled reports whether an SMTP relay is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
