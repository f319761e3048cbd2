// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/amisag/internal/auth"
	"github.com/hitoshi/amisag/internal/middleware"
	"github.com/hitoshi/amisag/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	CurrentToken(r *http.Request) (*auth.TokenInfo, error)
	Logout(r *http.Request) (auth.CredentialSource, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	SessionCookieName string
	CookieSecure      bool
	CookieDomain      string
}

// AuthHandler はセッショントークン関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Token は現在のセッションのBearerトークンを返す。
// 期限切れのセッションにはトークンを返さない。
// GET /api/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.CurrentToken(r)
	if err != nil {
		writeAuthFailure(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     info.Token,
		UserID:    info.UserID,
		ExpiresAt: info.ExpiresAt,
	})
}

// Logout はセッションを削除し、セッションCookieをクリアする。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	source, err := h.service.Logout(r)
	if err != nil {
		writeAuthFailure(w, r, err)
		return
	}

	if source == auth.SourceCookie {
		h.clearSessionCookie(w)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "ログアウトしました"})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeAuthFailure は認証失敗を401、ストア障害を500 AUTHENTICATION_FAILEDとして返す。
func writeAuthFailure(w http.ResponseWriter, r *http.Request, err error) {
	if authErr, ok := auth.AsAuthError(err); ok {
		slog.Warn("authentication failed",
			slog.String("reason", string(authErr.Reason)),
			slog.String("path", r.URL.Path),
		)
		writeAPIErrorResponse(w, http.StatusUnauthorized, authErr.APIError())
		return
	}

	slog.Error("session lookup failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewAuthenticationFailedError())
}
