package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/LixenWraith/logger"
	"github.com/LixenWraith/tinytoml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"contactgate/internal/mailer"
)

const (
	defaultConfigBase = "/usr/local/etc"
	envPrefix         = "CONTACT_"
)

type ServerConfig struct {
	Addr           string        `toml:"addr" validate:"required"`
	Timeout        time.Duration `toml:"timeout" validate:"gt=0"`
	MaxBodyBytes   int64         `toml:"max_body_bytes" validate:"gt=0"`
	AllowedOrigins []string      `toml:"allowed_origins"`
}

type MailConfig struct {
	Provider  string `toml:"provider" validate:"oneof=smtp sendgrid ses log"`
	From      string `toml:"from" validate:"required"`
	Recipient string `toml:"recipient" validate:"required,email"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port" validate:"omitempty,numeric"`
	AuthUser string `toml:"auth_user"`
	AuthPass string `toml:"auth_pass"`
}

type SendGridConfig struct {
	APIKey string `toml:"api_key"`
	Host   string `toml:"host" validate:"omitempty,url"`
}

type SESConfig struct {
	Region string `toml:"region"`
}

type RateLimitConfig struct {
	MaxRequests int           `toml:"max_requests" validate:"gt=0"`
	Window      time.Duration `toml:"window" validate:"gt=0"`
	SweepSpec   string        `toml:"sweep_spec"`
}

// RedisConfig switches the rate limiter to a shared store when URL is set.
type RedisConfig struct {
	URL string `toml:"url" validate:"omitempty,url"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Mail      MailConfig      `toml:"mail"`
	SMTP      SMTPConfig      `toml:"smtp"`
	SendGrid  SendGridConfig  `toml:"sendgrid"`
	SES       SESConfig       `toml:"ses"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Redis     RedisConfig     `toml:"redis"`
	Logging   logger.Config   `toml:"logging"`
}

var validate = validator.New()

// Default returns the built-in configuration for the named service.
func Default(name string) Config {
	return Config{
		Server: ServerConfig{
			Addr:           "localhost:8845",
			Timeout:        30 * time.Second,
			MaxBodyBytes:   64 << 10,
			AllowedOrigins: []string{"https://example.com", "http://example.com"},
		},
		Mail: MailConfig{
			Provider:  mailer.ProviderSMTP,
			From:      "Formularz kontaktowy <formularz@example.com>",
			Recipient: "biuro@example.com",
		},
		SMTP: SMTPConfig{
			Host: "smtp.gmail.com",
			Port: "587",
		},
		RateLimit: RateLimitConfig{
			MaxRequests: 5,
			Window:      time.Minute,
			SweepSpec:   "@every 5m",
		},
		Logging: logger.Config{
			Level:          logger.LevelDebug,
			Name:           name,
			Directory:      filepath.Join("/var/log", name),
			BufferSize:     1000,
			MaxSizeMB:      100,
			MaxTotalSizeMB: 1000,
			MinDiskFreeMB:  500,
		},
	}
}

// Path is where Load looks for the named service's configuration.
func Path(name string) string {
	return filepath.Join(defaultConfigBase, name, name+".toml")
}

// Load reads the configuration from the default location.
func Load(name string) (*Config, bool, error) {
	return LoadFile(Path(name), name)
}

// LoadFile starts from the defaults, merges the TOML file at path when it
// exists, loads .env from the working directory and applies CONTACT_*
// environment overrides. The boolean reports whether the file existed.
func LoadFile(path, name string) (*Config, bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, false, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := Default(name)

	configExists := false
	if _, err := os.Stat(path); err == nil {
		configExists = true
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, configExists, fmt.Errorf("failed to read config file: %w", err)
		}

		// Unmarshal into config, overwriting only specified values
		if err := tinytoml.Unmarshal(data, &config); err != nil {
			return nil, configExists, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, configExists, err
	}
	if err := applyEnv(&config); err != nil {
		return nil, configExists, err
	}

	if err := Validate(&config); err != nil {
		return nil, configExists, err
	}

	return &config, configExists, nil
}

// loadDotEnv fills the process environment from path without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func applyEnv(config *Config) error {
	strs := map[string]*string{
		"ADDR":             &config.Server.Addr,
		"MAIL_PROVIDER":    &config.Mail.Provider,
		"MAIL_FROM":        &config.Mail.From,
		"MAIL_RECIPIENT":   &config.Mail.Recipient,
		"SMTP_HOST":        &config.SMTP.Host,
		"SMTP_PORT":        &config.SMTP.Port,
		"SMTP_USER":        &config.SMTP.AuthUser,
		"SMTP_PASS":        &config.SMTP.AuthPass,
		"SENDGRID_API_KEY": &config.SendGrid.APIKey,
		"SES_REGION":       &config.SES.Region,
		"REDIS_URL":        &config.Redis.URL,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "ALLOWED_ORIGINS"); ok {
		config.Server.AllowedOrigins = splitList(v)
	}

	if v, ok := os.LookupEnv(envPrefix + "RATE_LIMIT_MAX"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT_MAX: %w", envPrefix, err)
		}
		config.RateLimit.MaxRequests = n
	}

	if v, ok := os.LookupEnv(envPrefix + "RATE_LIMIT_WINDOW"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT_WINDOW: %w", envPrefix, err)
		}
		config.RateLimit.Window = d
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the structure of config. Mail credentials are not
// required here; a sender without them reports itself as disabled.
func Validate(config *Config) error {
	if err := validate.Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("invalid configuration: %s fails %q", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Logging.Directory == "" || config.Logging.BufferSize <= 0 {
		return fmt.Errorf("invalid logging configuration")
	}

	return nil
}

// Mailer returns the provider selection for mailer.New.
func (c *Config) Mailer() mailer.Config {
	return mailer.Config{
		Provider: c.Mail.Provider,
		SMTP: mailer.SMTPConfig{
			Host:     c.SMTP.Host,
			Port:     c.SMTP.Port,
			AuthUser: c.SMTP.AuthUser,
			AuthPass: c.SMTP.AuthPass,
		},
		SendGridAPIKey: c.SendGrid.APIKey,
		SendGridHost:   c.SendGrid.Host,
		SESRegion:      c.SES.Region,
	}
}

// Save writes config to the default location.
func Save(config *Config, name string) error {
	return SaveFile(config, Path(name))
}

func SaveFile(config *Config, path string) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	data, err := tinytoml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
