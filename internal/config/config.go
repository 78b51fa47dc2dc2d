package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	StaticTokens []string `env:"STATIC_TOKENS" envSeparator:","`
	JWTSecret    string   `env:"JWT_HMAC_SECRET"`

	// Sheet mirroring is optional: with no spreadsheet configured the
	// service runs on the local store alone.
	SpreadsheetID   string        `env:"SHEETS_SPREADSHEET_ID"`
	CredentialsFile string        `env:"SHEETS_CREDENTIALS_FILE"`
	SheetRange      string        `env:"SHEETS_RANGE" envDefault:"requests!A2:N"`
	SyncInterval    time.Duration `env:"SYNC_INTERVAL" envDefault:"30s"`

	SMTPAddr string `env:"SMTP_ADDR"` // host:port; empty disables mail
	MailFrom string `env:"MAIL_FROM" envDefault:"recruiting@example.com"`

	DirectoryCacheSize int `env:"DIRECTORY_CACHE_SIZE" envDefault:"512"`
}

func (c *Config) SheetsEnabled() bool {
	return c.SpreadsheetID != "" && c.CredentialsFile != ""
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
