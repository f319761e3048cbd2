package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// TokenInfo はCookieセッションから取り出したBearerトークンの情報。
type TokenInfo struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	Source    CredentialSource
}

// Service はトークンの取得とログアウトを提供する。
type Service struct {
	store     SessionStore
	validator *Validator
	chain     *Chain
}

// NewService はServiceを生成する。
// chainはCookieを優先し、次にBearerヘッダーを試す順序で構成すること。
func NewService(store SessionStore, validator *Validator, chain *Chain) *Service {
	return &Service{
		store:     store,
		validator: validator,
		chain:     chain,
	}
}

// CurrentToken はリクエストの資格情報から有効なセッションを解決し、そのトークンを返す。
// 期限切れのセッションに対してはトークンを返さずErrSessionExpiredを返す。
func (s *Service) CurrentToken(r *http.Request) (*TokenInfo, error) {
	session, source, err := s.chain.Authenticate(r)
	if err != nil {
		return nil, err
	}
	return &TokenInfo{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		Source:    source,
	}, nil
}

// Logout はリクエストの資格情報に対応するセッションを削除し、キャッシュも破棄する。
// 期限切れのセッションでもログアウトは成功させる。
func (s *Service) Logout(r *http.Request) (CredentialSource, error) {
	cred, err := s.chain.Credential(r)
	if err != nil {
		return "", err
	}
	return cred.Source, s.revoke(r.Context(), cred.Token)
}

// revoke は行を削除してからキャッシュを破棄する。
// 逆順だと削除前の検証がキャッシュを再投入し、TTLの間トークンが有効なまま残る。
func (s *Service) revoke(ctx context.Context, token string) error {
	if err := s.store.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	s.validator.Invalidate(ctx, token)
	slog.Info("セッションを削除しました")
	return nil
}
