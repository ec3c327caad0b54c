package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	NATS      NATSConfig
	Auth      AuthConfig
	Email     EmailConfig
	Push      PushConfig
	Web       WebConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
	BusyTimeout  time.Duration
	WAL          bool
}

type NATSConfig struct {
	URL string // empty selects the in-process bus
}

type AuthConfig struct {
	Secret     string
	SessionTTL time.Duration
	CookieName string
}

// Mail send types accepted in MAIL_SENDTYPE.
const (
	MailClient = "client"
	MailDirect = "direct"
	MailAPI    = "api"
	MailDev    = "dev"
)

type EmailConfig struct {
	SendType      string // as configured, may be empty
	SMTPServer    string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	FromName      string
	MailerSendKey string
}

type PushConfig struct {
	PublicKey      string
	PrivateKey     string
	PublicKeyFile  string
	PrivateKeyFile string
	Subject        string
	TTL            int
}

type WebConfig struct {
	BaseURL   string
	StaticDir string
	PagesDir  string
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type RateLimitConfig struct {
	PerMinute float64
	Burst     int
	// TrustProxy keys clients on X-Forwarded-For / X-Real-IP. Only enable it
	// behind a reverse proxy that overwrites those headers.
	TrustProxy bool
}

func Load() *Config {
	cfg := &Config{
		Env: getEnv("ENV", "prod"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			CORSOrigins:  getList("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Path:         getEnv("DATABASE_PATH", "./party.db"),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 4),
			BusyTimeout:  getDuration("DB_BUSY_TIMEOUT", 5*time.Second),
			WAL:          getBool("DB_WAL", true),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Auth: AuthConfig{
			Secret:     getEnv("AUTH_SECRET", DevAuthSecret),
			SessionTTL: getDuration("AUTH_SESSION_TTL", 90*24*time.Hour),
			CookieName: "auth_token",
		},
		Email: EmailConfig{
			SendType:      strings.ToLower(getEnv("MAIL_SENDTYPE", "")),
			SMTPServer:    getEnv("SMTP_SERVER", ""),
			SMTPPort:      getInt("SMTP_PORT", 587),
			SMTPUsername:  getEnv("SMTP_USERNAME", ""),
			SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
			SMTPFrom:      getEnv("SMTP_FROM", ""),
			FromName:      getEnv("MAIL_FROM_NAME", "Party Hub"),
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
		},
		Push: PushConfig{
			PublicKey:      getEnv("VAPID_PUBLIC_KEY", ""),
			PrivateKey:     getEnv("VAPID_PRIVATE_KEY", ""),
			PublicKeyFile:  getEnv("VAPID_PUBLIC_KEY_FILE", "public_vapid_key.pem"),
			PrivateKeyFile: getEnv("VAPID_PRIVATE_KEY_FILE", "private_vapid_key.pem"),
			Subject:        getEnv("VAPID_SUBJECT", ""),
			TTL:            getInt("PUSH_TTL", 86400),
		},
		Web: WebConfig{
			BaseURL:   strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
			StaticDir: getEnv("STATIC_DIR", "static"),
			PagesDir:  getEnv("PAGES_DIR", "pages"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getInt("LOG_MAX_BACKUPS", 3),
		},
		RateLimit: RateLimitConfig{
			PerMinute:  getFloat("RATE_LIMIT_PER_MINUTE", 10),
			Burst:      getInt("RATE_LIMIT_BURST", 5),
			TrustProxy: getBool("RATE_LIMIT_TRUST_PROXY", false),
		},
	}
	if cfg.Push.Subject == "" && cfg.Email.SMTPFrom != "" {
		cfg.Push.Subject = "mailto:" + cfg.Email.SMTPFrom
	}
	return cfg
}

// DevAuthSecret is the fallback cookie signing key. Production deployments must override it.
const DevAuthSecret = "dev-only-secret-change-in-prod"

// IsDev reports whether ENV=dev, which drops the Secure flag from cookies.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// SMTPClientConfigured mirrors the requirements of the authenticated relay mode.
func (e EmailConfig) SMTPClientConfigured() bool {
	return e.SMTPServer != "" && e.SMTPUsername != "" && e.SMTPPassword != "" && e.SMTPFrom != ""
}

func (e EmailConfig) DirectConfigured() bool {
	return e.SMTPFrom != ""
}

func (e EmailConfig) APIConfigured() bool {
	return e.MailerSendKey != "" && e.SMTPFrom != ""
}

// Mode resolves the effective send type. An explicit MAIL_SENDTYPE wins even
// when it is not fully configured; the mailer reports that at startup.
func (e EmailConfig) Mode() string {
	switch e.SendType {
	case MailClient, MailDirect, MailAPI, MailDev:
		return e.SendType
	}
	switch {
	case e.SMTPClientConfigured():
		return MailClient
	case e.APIConfigured():
		return MailAPI
	case e.DirectConfigured():
		return MailDirect
	default:
		return MailDev
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
