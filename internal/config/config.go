package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for the server.
type Config struct {
	Port string `env:"PORT" envDefault:"3000"`
	Env  string `env:"NODE_ENV" envDefault:"development"`

	// PostgreSQL
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"light_heart_game"`

	// Redis cache / queue backend. Leave RedisAddr empty to run on the
	// in-memory cache backend (single-node development mode).
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// WeChat mini-program credentials for the code2session exchange.
	// When empty (development) the login derives a deterministic openid
	// from the code instead of calling WeChat.
	WechatAppID  string `env:"WECHAT_APP_ID"`
	WechatSecret string `env:"WECHAT_SECRET"`

	// Session tokens
	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret"`
	JWTExpire time.Duration `env:"JWT_EXPIRE" envDefault:"168h"`

	// Shared secret for the score submission HMAC (anti-cheat gate).
	ScoreSecret string `env:"SCORE_SECRET" envDefault:"dev-score-secret"`

	// Base URL embedded in rescue share links.
	ShareBaseURL string `env:"SHARE_BASE_URL" envDefault:"https://game.example.com"`

	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	// Rate limiting
	IPRateLimit       int           `env:"IP_RATE_LIMIT" envDefault:"100"`
	IPRateWindow      time.Duration `env:"IP_RATE_WINDOW" envDefault:"15m"`
	PlayerRateLimit   int           `env:"PLAYER_RATE_LIMIT" envDefault:"30"`
	PlayerRateWindow  time.Duration `env:"PLAYER_RATE_WINDOW" envDefault:"1m"`
	CriticalRateLimit int           `env:"CRITICAL_RATE_LIMIT" envDefault:"10"`
	CriticalRateWin   time.Duration `env:"CRITICAL_RATE_WINDOW" envDefault:"5m"`
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	// .env is optional; environment variables win in production.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("could not parse environment: %w", err)
	}

	return &cfg, nil
}

// DatabaseURL builds the postgres connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}
