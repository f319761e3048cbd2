// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Rate Limit（1分あたりのリクエスト数）
	RateLimitGeneral int `env:"RATE_LIMIT_GENERAL" envDefault:"120"`
	RateLimitPublic  int `env:"RATE_LIMIT_PUBLIC" envDefault:"60"`

	// Session
	SessionCookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"amisag.session_token"`
	SessionCacheTTL        time.Duration `env:"SESSION_CACHE_TTL" envDefault:"5m"`
	SessionCacheMaxSize    int           `env:"SESSION_CACHE_MAX_SIZE" envDefault:"500"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`
	SessionRetention       time.Duration `env:"SESSION_RETENTION" envDefault:"24h"`
	CookieDomain           string        `env:"COOKIE_DOMAIN"`

	// Redis（空の場合はインメモリキャッシュを使う）
	RedisURL string `env:"REDIS_URL"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// BaseURLから導出する
	CookieSecure bool
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は不足している名前を列挙したエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		if missing := missingVars(err); len(missing) > 0 {
			return nil, fmt.Errorf("required environment variables are not set: %v", missing)
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.SessionCleanupInterval <= 0 {
		return nil, fmt.Errorf("SESSION_CLEANUP_INTERVAL must be positive: %s", cfg.SessionCleanupInterval)
	}
	if cfg.RateLimitGeneral <= 0 || cfg.RateLimitPublic <= 0 {
		return nil, errors.New("RATE_LIMIT_GENERAL and RATE_LIMIT_PUBLIC must be positive")
	}

	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	return cfg, nil
}

func missingVars(err error) []string {
	var aggErr env.AggregateError
	if !errors.As(err, &aggErr) {
		return nil
	}
	var missing []string
	for _, e := range aggErr.Errors {
		var req env.VarIsNotSetError
		if errors.As(e, &req) {
			missing = append(missing, req.Key)
			continue
		}
		var empty env.EmptyVarError
		if errors.As(e, &empty) {
			missing = append(missing, empty.Key)
		}
	}
	return missing
}
