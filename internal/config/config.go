// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// PublicURL is used for absolute links in emails and notifications.
	PublicURL string `yaml:"public_url"`
	// TrustedProxies are CIDRs or addresses allowed to set X-Forwarded-For.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	SecureOnly bool          `yaml:"secure_cookie"`
}

// PersistenceConfig selects the relational store behind the submission client.
type PersistenceConfig struct {
	Driver   string        `yaml:"driver"`   // supabase | postgres
	Required bool          `yaml:"required"` // fail submissions when the store is not configured
	Table    string        `yaml:"table"`
	Timeout  time.Duration `yaml:"timeout"`

	Supabase SupabaseConfig `yaml:"supabase"`
	Database DatabaseConfig `yaml:"database"`
}

type SupabaseConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"`
}

type AirtableConfig struct {
	BaseID        string        `yaml:"base_id"`
	Table         string        `yaml:"table"`
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	DefaultRegion string        `yaml:"default_region"` // phone parsing region for the mirror
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type MailConfig struct {
	SendGridKey string        `yaml:"sendgrid_key"`
	BaseURL     string        `yaml:"base_url"`
	FromName    string        `yaml:"from_name"`
	FromEmail   string        `yaml:"from_email"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
	// Endpoint overrides the Bot API endpoint format (tests, self-hosted bot API).
	Endpoint string `yaml:"endpoint"`
}

type FormConfig struct {
	RequireConsent bool          `yaml:"require_consent"`
	StateTTL       time.Duration `yaml:"state_ttl"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
	RateLimit      int           `yaml:"rate_limit"` // submissions per window per client
	RateWindow     time.Duration `yaml:"rate_window"`
	ModalDelay     time.Duration `yaml:"modal_delay"`
}

// OfferConfig holds the promotional terms shown next to an issued code.
type OfferConfig struct {
	Percent      int      `yaml:"percent"`
	ValidityDays int      `yaml:"validity_days"`
	Exclusions   []string `yaml:"exclusions"`
}

// WorkerConfig sizes the pool that sends customer emails and staff
// notifications after a code is issued.
type WorkerConfig struct {
	Count       int           `yaml:"count"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
}

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Log         LogConfig         `yaml:"log"`
	Admin       AdminConfig       `yaml:"admin"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Airtable    AirtableConfig    `yaml:"airtable"`
	Redis       RedisConfig       `yaml:"redis"`
	Mail        MailConfig        `yaml:"mail"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Form        FormConfig        `yaml:"form"`
	Offer       OfferConfig       `yaml:"offer"`
	Worker      WorkerConfig      `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (a missing file is allowed), then
// applies environment overrides from the process and an optional .env file.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional in every environment.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setStr(&cfg.Persistence.Supabase.URL, "SUPABASE_URL")
	setStr(&cfg.Persistence.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	setStr(&cfg.Persistence.Database.URL, "DATABASE_URL")
	setStr(&cfg.Persistence.Driver, "PERSISTENCE_DRIVER")
	setStr(&cfg.Airtable.BaseID, "AIRTABLE_BASE_ID")
	setStr(&cfg.Airtable.Table, "AIRTABLE_TABLE_NAME")
	setStr(&cfg.Airtable.APIKey, "AIRTABLE_API_KEY")
	setStr(&cfg.Redis.URL, "REDIS_URL")
	setStr(&cfg.Mail.SendGridKey, "SENDGRID_API_KEY")
	setStr(&cfg.Mail.FromEmail, "SENDGRID_FROM_EMAIL")
	setStr(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Admin.APIKey, "ADMIN_API_KEY")
	setStr(&cfg.Admin.JWTSecret, "ADMIN_JWT_SECRET")
	setStr(&cfg.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv("TRUSTED_PROXIES")); v != "" {
		cfg.HTTP.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Persistence.Driver == "" {
		cfg.Persistence.Driver = "supabase"
	}
	cfg.Persistence.Driver = strings.ToLower(cfg.Persistence.Driver)
	if cfg.Persistence.Table == "" {
		cfg.Persistence.Table = "form_submissions"
	}
	if cfg.Persistence.Timeout <= 0 {
		cfg.Persistence.Timeout = 10 * time.Second
	}
	if cfg.Persistence.Database.MaxConns <= 0 {
		cfg.Persistence.Database.MaxConns = 10
	}
	if cfg.Airtable.Table == "" {
		cfg.Airtable.Table = "Form Submissions"
	}
	if cfg.Airtable.BaseURL == "" {
		cfg.Airtable.BaseURL = "https://api.airtable.com/v0"
	}
	if cfg.Airtable.Timeout <= 0 {
		cfg.Airtable.Timeout = 10 * time.Second
	}
	if cfg.Airtable.DefaultRegion == "" {
		cfg.Airtable.DefaultRegion = "GB"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Mail.BaseURL == "" {
		cfg.Mail.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.Mail.FromName == "" {
		cfg.Mail.FromName = "TNT Services"
	}
	if cfg.Mail.Timeout <= 0 {
		cfg.Mail.Timeout = 10 * time.Second
	}
	if cfg.Form.StateTTL <= 0 {
		cfg.Form.StateTTL = 24 * time.Hour
	}
	if cfg.Form.LockTTL <= 0 {
		cfg.Form.LockTTL = 30 * time.Second
	}
	if cfg.Form.RateLimit <= 0 {
		cfg.Form.RateLimit = 5
	}
	if cfg.Form.RateWindow <= 0 {
		cfg.Form.RateWindow = time.Minute
	}
	if cfg.Form.ModalDelay <= 0 {
		cfg.Form.ModalDelay = time.Second
	}
	if cfg.Offer.Percent <= 0 {
		cfg.Offer.Percent = 10
	}
	if cfg.Offer.ValidityDays <= 0 {
		cfg.Offer.ValidityDays = 30
	}
	if cfg.Worker.Count <= 0 {
		cfg.Worker.Count = 2
	}
	if cfg.Worker.TaskTimeout <= 0 {
		cfg.Worker.TaskTimeout = 2 * cfg.Mail.Timeout
	}
	if cfg.Offer.Exclusions == nil {
		cfg.Offer.Exclusions = []string{"memberships"}
	}
}

func (c *Config) validate() error {
	switch c.Persistence.Driver {
	case "supabase", "postgres":
	default:
		return fmt.Errorf("persistence.driver %q is not supported", c.Persistence.Driver)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.Admin.APIKey != "" && len(c.Admin.JWTSecret) < 16 {
		return errors.New("admin.jwt_secret must be at least 16 bytes when admin.api_key is set")
	}
	return nil
}

// SupabaseConfigured reports whether both Supabase values are present.
func (c *Config) SupabaseConfigured() bool {
	return c.Persistence.Supabase.URL != "" && c.Persistence.Supabase.AnonKey != ""
}

// AirtableConfigured reports whether the automation hub can be reached.
func (c *Config) AirtableConfigured() bool {
	return c.Airtable.BaseID != "" && c.Airtable.APIKey != ""
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
