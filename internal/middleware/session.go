// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/amisag/internal/auth"
	"github.com/hitoshi/amisag/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// SessionValidator はBearerトークンの検証に必要なインターフェース。
// auth.Validatorが実装する。
type SessionValidator interface {
	Validate(r *http.Request) (*model.Session, error)
}

// NewBearerAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みユーザーIDをリクエストコンテキストに注入するミドルウェアを返す。
//
// 認証失敗は理由別のコードで401を返す。セッション検索自体が失敗した場合は
// 詳細をログに残し、500 AUTHENTICATION_FAILEDのみを返す。
func NewBearerAuthMiddleware(validator SessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := validator.Validate(r)
			if err != nil {
				if authErr, ok := auth.AsAuthError(err); ok {
					slog.Warn("認証に失敗しました",
						slog.String("reason", string(authErr.Reason)),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					WriteErrorResponse(w, http.StatusUnauthorized, authErr.APIError())
					return
				}

				slog.Error("セッションの検証に失敗しました",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusInternalServerError, model.NewAuthenticationFailedError())
				return
			}

			ctx := ContextWithUserID(r.Context(), session.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// 外側のロギングミドルウェアにもユーザーIDを伝える。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if st := requestStateFromContext(ctx); st != nil {
		st.setUserID(userID)
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}
