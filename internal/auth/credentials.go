package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hitoshi/amisag/internal/model"
)

// CredentialSource は資格情報の取得元。
type CredentialSource string

const (
	SourceBearer CredentialSource = "bearer"
	SourceCookie CredentialSource = "cookie"
)

// Credential はリクエストから取り出したトークン。
type Credential struct {
	Token  string
	Source CredentialSource
}

// errNoCredential は戦略が対象とする資格情報がリクエストに存在しないことを表す。
// Chainはこのエラーを受けると次の戦略へ進む。
var errNoCredential = errors.New("no credential present")

// CredentialStrategy はリクエストから資格情報を取り出す1つの方法。
type CredentialStrategy interface {
	Resolve(r *http.Request) (Credential, error)
}

// BearerStrategy はAuthorizationヘッダーのBearerトークンを取り出す。
type BearerStrategy struct{}

// Resolve はBearerトークンを返す。ヘッダーがない場合は次の戦略に委ねる。
func (BearerStrategy) Resolve(r *http.Request) (Credential, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Credential{}, errNoCredential
	}
	token, err := ParseBearer(header)
	if err != nil {
		return Credential{}, err
	}
	return Credential{Token: token, Source: SourceBearer}, nil
}

// CookieStrategy はセッションCookieの値をトークンとして取り出す。
type CookieStrategy struct {
	Name string
}

// Resolve はCookieのトークンを返す。Cookieがない場合は次の戦略に委ねる。
func (s CookieStrategy) Resolve(r *http.Request) (Credential, error) {
	c, err := r.Cookie(s.Name)
	if err != nil {
		return Credential{}, errNoCredential
	}
	token := strings.TrimSpace(c.Value)
	if token == "" {
		return Credential{}, ErrEmptyToken
	}
	return Credential{Token: token, Source: SourceCookie}, nil
}

// Chain は資格情報の取得戦略を順に試し、最初に成功したものを採用する。
type Chain struct {
	strategies []CredentialStrategy
	validator  *Validator
}

// NewChain はChainを生成する。strategiesは試行順に並べる。
func NewChain(validator *Validator, strategies ...CredentialStrategy) *Chain {
	return &Chain{strategies: strategies, validator: validator}
}

// Credential は最初に見つかった資格情報を返す。セッションの有効性は確認しない。
func (c *Chain) Credential(r *http.Request) (Credential, error) {
	var lastErr error
	for _, s := range c.strategies {
		cred, err := s.Resolve(r)
		if err == nil {
			return cred, nil
		}
		if !errors.Is(err, errNoCredential) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return Credential{}, lastErr
	}
	return Credential{}, ErrMissingAuthHeader
}

// Authenticate は戦略を順に試し、有効なセッションが得られた時点で返す。
// ある戦略のトークンが無効・期限切れの場合は次の戦略へフォールバックする。
// 全て失敗した場合は最後の認証エラーを返す。DB障害は即座に返す。
func (c *Chain) Authenticate(r *http.Request) (*model.Session, CredentialSource, error) {
	var lastErr error
	for _, s := range c.strategies {
		cred, err := s.Resolve(r)
		if errors.Is(err, errNoCredential) {
			continue
		}
		if err != nil {
			lastErr = err
			continue
		}

		session, err := c.validator.ValidateToken(r.Context(), cred.Token)
		if err == nil {
			return session, cred.Source, nil
		}
		if _, ok := AsAuthError(err); !ok {
			return nil, "", err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrMissingAuthHeader
	}
	return nil, "", lastErr
}
