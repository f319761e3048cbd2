package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/amisag/internal/model"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookie。フロントエンドが読むためHttpOnlyにしない。
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"

	defaultCSRFTokenTTL = 24 * time.Hour
)

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	// SessionCookieName が設定されている場合、そのCookieを持つリクエストのみ検証する。
	// 空の場合は状態変更リクエスト全てを検証する。
	SessionCookieName string
	CookieSecure      bool
	CookieDomain      string
	// TokenTTL はCSRFトークンCookieの有効期間。0の場合は24時間。
	TokenTTL time.Duration
}

func (c CSRFConfig) tokenCookie(token string) *http.Cookie {
	ttl := c.TokenTTL
	if ttl <= 0 {
		ttl = defaultCSRFTokenTTL
	}
	return &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.CookieDomain,
		MaxAge:   int(ttl / time.Second),
		Secure:   c.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// needsCheck はリクエストがブラウザの自動送信Cookieに依存して状態を変更するかを判定する。
// Authorizationヘッダーはブラウザが自動で付与しないため対象外。
func (c CSRFConfig) needsCheck(r *http.Request) bool {
	if isSafeMethod(r.Method) || r.Header.Get("Authorization") != "" {
		return false
	}
	if c.SessionCookieName == "" {
		return true
	}
	_, err := r.Cookie(c.SessionCookieName)
	return err == nil
}

// NewCSRFMiddleware はセッションCookieで認証されるリクエスト向けのダブルサブミットCSRF検証ミドルウェアを返す。
// 安全なメソッドではトークンCookieを未発行なら発行する。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				if _, err := r.Cookie(csrfCookieName); err != nil {
					if token, err := generateCSRFToken(); err == nil {
						http.SetCookie(w, config.tokenCookie(token))
					} else {
						slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			if !config.needsCheck(r) {
				next.ServeHTTP(w, r)
				return
			}

			if reason := verifyCSRFToken(r); reason != "" {
				slog.Warn("CSRF validation failed",
					slog.String("reason", reason),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)
				writeCSRFError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// verifyCSRFToken はCookieとヘッダーのトークンを照合し、不一致の理由を返す。一致すれば空文字。
func verifyCSRFToken(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil || cookie.Value == "" {
		return "missing_cookie"
	}
	header := r.Header.Get(csrfHeaderName)
	if header == "" {
		return "missing_header"
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return "mismatch"
	}
	return ""
}

// NewCSRFTokenHandler はCSRFトークンを返すハンドラー。
// GET /api/auth/csrf
// 既存のトークンCookieがあればそれを返す。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(csrfCookieName); err == nil {
			token = c.Value
		}
		if token == "" {
			var err error
			if token, err = generateCSRFToken(); err != nil {
				slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
				WriteInternalServerError(w)
				return
			}
			http.SetCookie(w, config.tokenCookie(token))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
}

func writeCSRFError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
		Code:     model.ErrCodeCSRFFailed,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "GET /api/auth/csrf でトークンを取得し、X-CSRF-Tokenヘッダーに設定してください。",
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
