// Package auth はBearerセッションの検証と、資格情報の解決を提供する。
// セッションの発行は外部の認証サービスが行い、このパッケージは
// 保存済みのトークンとの照合と有効期限の判定のみを行う。
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/amisag/internal/model"
)

const bearerPrefix = "Bearer "

// SessionStore はセッション検索・削除に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionStore interface {
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteByToken(ctx context.Context, token string) error
}

// Recorder は認証まわりのメトリクス記録先。
type Recorder interface {
	RecordAuthFailure(reason string)
	RecordSessionCacheHit()
	RecordSessionCacheMiss()
}

// Validator はBearerトークンを検証し、有効なセッションを返す。
// 全ての保護ルートがこの1つの検証ロジックを共有する。
type Validator struct {
	store    SessionStore
	cache    SessionCache
	recorder Recorder
	now      func() time.Time
	group    singleflight.Group
}

// ValidatorOption はValidatorの任意設定。
type ValidatorOption func(*Validator)

// WithCache はセッションキャッシュを設定する。
func WithCache(c SessionCache) ValidatorOption {
	return func(v *Validator) { v.cache = c }
}

// WithRecorder はメトリクス記録先を設定する。
func WithRecorder(r Recorder) ValidatorOption {
	return func(v *Validator) { v.recorder = r }
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// NewValidator はValidatorを生成する。
func NewValidator(store SessionStore, opts ...ValidatorOption) *Validator {
	v := &Validator{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ParseBearer はAuthorizationヘッダーの値からトークンを取り出す。
// "Bearer "の完全一致を要求し、トークン部分の前後の空白を除去する。
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMalformedAuthHeader
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// Validate はリクエストのAuthorizationヘッダーを検証し、有効なセッションを返す。
// 形式不正の場合はDBにアクセスせずに失敗する。
func (v *Validator) Validate(r *http.Request) (*model.Session, error) {
	token, err := ParseBearer(r.Header.Get("Authorization"))
	if err != nil {
		v.recordFailure(err)
		return nil, err
	}
	return v.ValidateToken(r.Context(), token)
}

// ValidateToken はトークンに対応するセッションを検索し、有効期限を確認する。
// 認証失敗は*Errorで返し、それ以外のエラー（DB障害など）はラップして返す。
func (v *Validator) ValidateToken(ctx context.Context, token string) (*model.Session, error) {
	session, err := v.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		v.recordFailure(ErrInvalidToken)
		return nil, ErrInvalidToken
	}
	if session.IsExpired(v.now()) {
		v.recordFailure(ErrSessionExpired)
		return nil, ErrSessionExpired
	}
	// キャッシュ上の値を呼び出し側に共有しない
	valid := *session
	valid.Token = token
	return &valid, nil
}

// Invalidate はキャッシュ上のセッションを破棄する。ログアウト時に呼ぶ。
func (v *Validator) Invalidate(ctx context.Context, token string) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Delete(ctx, cacheKey(token)); err != nil {
		slog.Warn("セッションキャッシュの削除に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// lookup はキャッシュ、DBの順にセッションを検索する。
// 同一トークンの同時検索はsingleflightで1回のDBアクセスにまとめる。
func (v *Validator) lookup(ctx context.Context, token string) (*model.Session, error) {
	key := cacheKey(token)

	if v.cache != nil {
		session, err := v.cache.Get(ctx, key)
		switch {
		case err == nil:
			v.recordCache(true)
			return session, nil
		case errors.Is(err, ErrCacheMiss):
			v.recordCache(false)
		default:
			// キャッシュ障害時はDBにフォールバックする
			v.recordCache(false)
			slog.Warn("セッションキャッシュの取得に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}

	ch := v.group.DoChan(key, func() (any, error) {
		return v.store.FindByToken(context.WithoutCancel(ctx), token)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", res.Err)
	}

	session, _ := res.Val.(*model.Session)
	if session != nil && v.cache != nil {
		if err := v.cache.Set(ctx, key, session); err != nil {
			slog.Warn("セッションキャッシュの保存に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}
	return session, nil
}

func (v *Validator) recordFailure(err error) {
	if v.recorder == nil {
		return
	}
	if authErr, ok := AsAuthError(err); ok {
		v.recorder.RecordAuthFailure(string(authErr.Reason))
	}
}

func (v *Validator) recordCache(hit bool) {
	if v.recorder == nil {
		return
	}
	if hit {
		v.recorder.RecordSessionCacheHit()
	} else {
		v.recorder.RecordSessionCacheMiss()
	}
}

// cacheKey はトークンのSHA-256ハッシュをキャッシュキーとして返す。
// 生のトークンをキャッシュに保存しない。
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
