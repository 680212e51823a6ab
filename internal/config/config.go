package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const (
	defaultPort         = "8080"
	defaultSMTPPort     = 587
	defaultSweepWorkers = 8
	defaultAppURL       = "https://imstillhere.app"
	defaultResendFrom   = "I'm Still Here <alerts@imstillhere.app>"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

type Config struct {
	port                   string
	cloudSQLUnixSocketPath string
	dBPassword             string
	dBUsername             string
	sentryDSN              string
	cronSecret             string
	appURL                 string
	smtp                   SMTPConfig
	resendAPIKey           string
	resendFrom             string
	twilio                 TwilioConfig
	sweepWorkers           int
	googleCloudProject     string
	env                    environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) CloudSQLUnixSocketPath() string {
	return c.cloudSQLUnixSocketPath
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// CronSecret is the shared secret the external scheduler presents when triggering a sweep
func (c *Config) CronSecret() string {
	return c.cronSecret
}

func (c *Config) AppURL() string {
	return c.appURL
}

// SMTP returns the SMTP settings. Host is empty if SMTP is not configured.
func (c *Config) SMTP() SMTPConfig {
	return c.smtp
}

func (c *Config) ResendAPIKey() string {
	return c.resendAPIKey
}

func (c *Config) ResendFrom() string {
	return c.resendFrom
}

// Twilio returns the Twilio settings. AccountSID is empty if SMS is not configured.
func (c *Config) Twilio() TwilioConfig {
	return c.twilio
}

func (c *Config) SweepWorkers() int {
	return c.sweepWorkers
}

func (c *Config) GoogleCloudProject() string {
	return c.googleCloudProject
}

func (c *Config) Environment() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, smtp: %t, resend: %t, twilio: %t, sweepWorkers: %d, ...}",
		string(c.env),
		c.port,
		c.smtp.Host != "",
		c.resendAPIKey != "",
		c.twilio.AccountSID != "",
		c.sweepWorkers,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	if os.Getenv("STILLHERE_ENVIRONMENT") == string(development) {
		// Does not override variables that are already set
		_ = godotenv.Load()
	}

	var env environment
	rawEnv, ok := os.LookupEnv("STILLHERE_ENVIRONMENT")
	if !ok {
		return missingKey("STILLHERE_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: STILLHERE_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	positiveInt := func(key string, fallback int) (int, error) {
		raw := os.Getenv(key)
		if raw == "" {
			return fallback, nil
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			return 0, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, raw)
		}
		return value, nil
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = defaultAppURL
	}

	smtpPort, err := positiveInt("SMTP_PORT", defaultSMTPPort)
	if err != nil {
		return Config{}, err
	}
	smtp := SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     os.Getenv("SMTP_FROM"),
	}
	if smtp.From == "" {
		smtp.From = smtp.Username
	}
	if smtp.Host != "" && smtp.From == "" {
		return missingKey("SMTP_FROM")
	}

	resendFrom := os.Getenv("RESEND_FROM")
	if resendFrom == "" {
		resendFrom = defaultResendFrom
	}

	twilio := TwilioConfig{
		AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
	}
	if twilio.AccountSID != "" {
		if twilio.AuthToken == "" {
			return missingKey("TWILIO_AUTH_TOKEN")
		}
		if twilio.FromNumber == "" {
			return missingKey("TWILIO_FROM_NUMBER")
		}
	}

	sweepWorkers, err := positiveInt("SWEEP_WORKERS", defaultSweepWorkers)
	if err != nil {
		return Config{}, err
	}

	cloudSQLUnixSocketPath := os.Getenv("CLOUDSQL_UNIX_SOCKET")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	cronSecret := os.Getenv("CRON_SECRET")
	resendAPIKey := os.Getenv("RESEND_API_KEY")

	if env == production || env == staging {
		if cloudSQLUnixSocketPath == "" {
			return missingKey("CLOUDSQL_UNIX_SOCKET")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if cronSecret == "" {
			return missingKey("CRON_SECRET")
		}
		if smtp.Host == "" && resendAPIKey == "" {
			return missingKey("SMTP_HOST or RESEND_API_KEY")
		}
	}

	return Config{
		port:                   port,
		cloudSQLUnixSocketPath: cloudSQLUnixSocketPath,
		dBPassword:             dbPassword,
		dBUsername:             dbUsername,
		sentryDSN:              sentryDSN,
		cronSecret:             cronSecret,
		appURL:                 appURL,
		smtp:                   smtp,
		resendAPIKey:           resendAPIKey,
		resendFrom:             resendFrom,
		twilio:                 twilio,
		sweepWorkers:           sweepWorkers,
		googleCloudProject:     os.Getenv("GOOGLE_CLOUD_PROJECT"),
		env:                    env,
	}, nil
}
