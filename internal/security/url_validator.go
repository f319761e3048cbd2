package security

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// forbiddenSchemes はリンクとして保存させないスキーム。
// プロフィール画面でhrefに埋め込まれるためスクリプト実行につながるものを拒否する。
var forbiddenSchemes = map[string]bool{
	"javascript": true,
	"vbscript":   true,
	"data":       true,
}

// URLValidator は外部リンク項目の検証を行う。
type URLValidator struct {
	validate *validator.Validate
}

// NewURLValidator はURLValidatorを生成する。
func NewURLValidator() *URLValidator {
	return &URLValidator{validate: validator.New()}
}

// IsValid は raw がスキームを持つ絶対URLとして解釈できる場合にtrueを返す。
func (v *URLValidator) IsValid(raw string) bool {
	if raw == "" || strings.TrimSpace(raw) != raw {
		return false
	}
	if err := v.validate.Var(raw, "required,url"); err != nil {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}
	return !forbiddenSchemes[strings.ToLower(u.Scheme)]
}
