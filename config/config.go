package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once in main and passed down by reference. Handlers and
// the eligibility/telegram packages never read the environment themselves.
type Config struct {
	Port           string
	Env            string
	AllowedOrigins []string

	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string
	DBDSN     string // explicit override, wins over the individual fields

	RedisAddr string
	RedisPass string
	RedisDB   int

	BotToken string
	// VerifyInitData is the auditable switch for launch-payload signature
	// checks. Disabling it is an operator decision, never a code change.
	VerifyInitData bool
	InitDataMaxAge time.Duration

	JWTSecret  string
	SessionTTL time.Duration

	// AdViewMinInterval throttles how often one user can be credited an ad
	// view for the same gift. Zero disables the throttle.
	AdViewMinInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            strings.ToLower(getEnv("ENV", "development")),
		AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DBHost:    getEnv("DB_HOST", "127.0.0.1"),
		DBPort:    getEnv("DB_PORT", "5432"),
		DBUser:    getEnv("DB_USER", "postgres"),
		DBPass:    getEnv("DB_PASS", ""),
		DBName:    getEnv("DB_NAME", "giftapp"),
		DBSSLMode: getEnv("DB_SSLMODE", "require"),
		DBDSN:     os.Getenv("DB_DSN"),

		RedisAddr: strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPass: os.Getenv("REDIS_PASS"),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		VerifyInitData: getEnvAsBool("TELEGRAM_VERIFY_INITDATA", true),
		InitDataMaxAge: getEnvAsDuration("TELEGRAM_INITDATA_MAX_AGE", 24*time.Hour),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		AdViewMinInterval: getEnvAsDuration("AD_VIEW_MIN_INTERVAL", 5*time.Second),
	}
}

// Validate fails fast on configuration the service cannot run without.
func (c *Config) Validate() error {
	if c.DBDSN == "" && c.DBName == "" {
		return errors.New("config: DB_NAME or DB_DSN must be set")
	}
	if c.VerifyInitData && c.BotToken == "" {
		return errors.New("config: TELEGRAM_VERIFY_INITDATA is on but TELEGRAM_BOT_TOKEN is empty")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			return v
		}
	}
	return def
}

// getEnvAsDuration accepts Go duration syntax ("30m") or plain seconds.
func getEnvAsDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if v, err := strconv.Atoi(s); err == nil {
		return time.Duration(v) * time.Second
	}
	return def
}

func getEnvAsSlice(key string, def []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
