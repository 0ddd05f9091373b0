package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactgate/internal/mailer"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contactd", "contactd.toml")

	cfg, exists, err := LoadFile(path, "contactd")
	require.NoError(t, err)
	assert.False(t, exists)

	want := Default("contactd")
	assert.Equal(t, want, *cfg)
	assert.Equal(t, "/var/log/contactd", cfg.Logging.Directory)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.DirExists(t, filepath.Dir(path))
}

func TestLoadFile_MergesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "contactd.toml", `
[mail]
provider = "log"
recipient = "kontakt@example.pl"

[rate_limit]
max_requests = 10
`)

	cfg, exists, err := LoadFile(path, "contactd")
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, "log", cfg.Mail.Provider)
	assert.Equal(t, "kontakt@example.pl", cfg.Mail.Recipient)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)

	// untouched keys keep their defaults
	assert.Equal(t, Default("contactd").Mail.From, cfg.Mail.From)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("CONTACT_SMTP_USER", "formularz@example.pl")
	t.Setenv("CONTACT_SMTP_PASS", " s3cret ")
	t.Setenv("CONTACT_SENDGRID_API_KEY", "SG.key")
	t.Setenv("CONTACT_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CONTACT_ALLOWED_ORIGINS", "https://a.pl, ,https://b.pl")
	t.Setenv("CONTACT_RATE_LIMIT_MAX", "3")
	t.Setenv("CONTACT_RATE_LIMIT_WINDOW", "2m")

	cfg, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"), "contactd")
	require.NoError(t, err)

	assert.Equal(t, "formularz@example.pl", cfg.SMTP.AuthUser)
	assert.Equal(t, "s3cret", cfg.SMTP.AuthPass)
	assert.Equal(t, "SG.key", cfg.SendGrid.APIKey)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, []string{"https://a.pl", "https://b.pl"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window)
}

func TestLoadFile_BadEnv(t *testing.T) {
	t.Setenv("CONTACT_RATE_LIMIT_WINDOW", "soon")

	_, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"), "contactd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTACT_RATE_LIMIT_WINDOW")
}

func TestLoadFile_InvalidResult(t *testing.T) {
	t.Setenv("CONTACT_MAIL_PROVIDER", "pigeon")

	_, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"), "contactd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provider")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"missing credentials allowed", func(c *Config) { c.SMTP.AuthPass = "" }, true},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, false},
		{"bad recipient", func(c *Config) { c.Mail.Recipient = "nobody" }, false},
		{"zero limit", func(c *Config) { c.RateLimit.MaxRequests = 0 }, false},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }, false},
		{"bad port", func(c *Config) { c.SMTP.Port = "smtp" }, false},
		{"no log buffer", func(c *Config) { c.Logging.BufferSize = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("contactd")
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "CONTACT_DOTENV_FRESH=from-file\nCONTACT_DOTENV_SET=from-file\n")

	// register cleanup for a variable godotenv will create
	t.Setenv("CONTACT_DOTENV_FRESH", "")
	require.NoError(t, os.Unsetenv("CONTACT_DOTENV_FRESH"))
	t.Setenv("CONTACT_DOTENV_SET", "from-env")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("CONTACT_DOTENV_FRESH"))
	assert.Equal(t, "from-env", os.Getenv("CONTACT_DOTENV_SET"))

	assert.NoError(t, loadDotEnv(filepath.Join(dir, "absent.env")))
}

func TestMailer(t *testing.T) {
	cfg := Default("contactd")
	cfg.Mail.Provider = mailer.ProviderSES
	cfg.SMTP.AuthUser = "u"
	cfg.SMTP.AuthPass = "p"
	cfg.SendGrid.APIKey = "k"
	cfg.SES.Region = "eu-central-1"

	got := cfg.Mailer()
	assert.Equal(t, mailer.Config{
		Provider:       mailer.ProviderSES,
		SMTP:           mailer.SMTPConfig{Host: "smtp.gmail.com", Port: "587", AuthUser: "u", AuthPass: "p"},
		SendGridAPIKey: "k",
		SESRegion:      "eu-central-1",
	}, got)
}

func TestSaveFile_Nil(t *testing.T) {
	assert.Error(t, SaveFile(nil, filepath.Join(t.TempDir(), "x.toml")))
}
