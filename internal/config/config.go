package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"KodiPay"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"kodipay"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	}

	Mpesa struct {
		ConsumerKey    string `envconfig:"MPESA_CONSUMER_KEY"`
		ConsumerSecret string `envconfig:"MPESA_CONSUMER_SECRET"`
		ShortCode      string `envconfig:"MPESA_SHORTCODE" default:"174379"`
		Passkey        string `envconfig:"MPESA_PASSKEY"`
		CallbackURL    string `envconfig:"MPESA_CALLBACK_URL"`
		Environment    string `envconfig:"MPESA_ENV" default:"sandbox"`
	}

	Twilio struct {
		AccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
		AuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
		FromNumber string `envconfig:"TWILIO_PHONE_NUMBER"`
	}
}

// SMSEnabled reports whether Twilio delivery is configured. Without it the
// service falls back to log-only notifications.
func (c *Config) SMSEnabled() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.FromNumber != ""
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
