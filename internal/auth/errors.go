package auth

import (
	"errors"

	"github.com/hitoshi/amisag/internal/model"
)

// Reason は認証失敗の種別を表す。
type Reason string

const (
	ReasonMissingAuthHeader   Reason = "missing_auth_header"
	ReasonMalformedAuthHeader Reason = "malformed_auth_header"
	ReasonEmptyToken          Reason = "empty_token"
	ReasonInvalidToken        Reason = "invalid_token"
	ReasonSessionExpired      Reason = "session_expired"
)

// Error は認証失敗を表す型付きエラー。HTTPでは常に401に対応する。
type Error struct {
	Reason Reason
}

func (e *Error) Error() string {
	return "authentication failed: " + string(e.Reason)
}

// APIError はクライアントに返すエラー表現に変換する。
func (e *Error) APIError() *model.APIError {
	switch e.Reason {
	case ReasonMissingAuthHeader:
		return model.NewMissingAuthHeaderError()
	case ReasonMalformedAuthHeader:
		return model.NewMalformedAuthHeaderError()
	case ReasonEmptyToken:
		return model.NewEmptyTokenError()
	case ReasonSessionExpired:
		return model.NewSessionExpiredError()
	default:
		return model.NewInvalidTokenError()
	}
}

var (
	ErrMissingAuthHeader   = &Error{Reason: ReasonMissingAuthHeader}
	ErrMalformedAuthHeader = &Error{Reason: ReasonMalformedAuthHeader}
	ErrEmptyToken          = &Error{Reason: ReasonEmptyToken}
	ErrInvalidToken        = &Error{Reason: ReasonInvalidToken}
	ErrSessionExpired      = &Error{Reason: ReasonSessionExpired}
)

// AsAuthError はerrが認証失敗であればその値を返す。
// DB障害などそれ以外のエラーの場合はfalseを返す。
func AsAuthError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
