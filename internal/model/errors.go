// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, profile, project, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 認証エラーコード
const (
	ErrCodeMissingAuthHeader    = "MISSING_AUTH_HEADER"
	ErrCodeMalformedAuthHeader  = "MALFORMED_AUTH_HEADER"
	ErrCodeEmptyToken           = "EMPTY_TOKEN"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeSessionExpired       = "SESSION_EXPIRED"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
)

// 入力検証エラーコード
const (
	ErrCodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	ErrCodeInvalidFieldType   = "INVALID_FIELD_TYPE"
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeInvalidJSONArray   = "INVALID_JSON_ARRAY"
	ErrCodeInvalidURL         = "INVALID_URL"
	ErrCodeNoValidFields      = "NO_VALID_FIELDS"
	ErrCodeInvalidName        = "INVALID_NAME"
	ErrCodeInvalidRole        = "INVALID_ROLE"
	ErrCodeInvalidDescription = "INVALID_DESCRIPTION"
	ErrCodeInvalidCategory    = "INVALID_CATEGORY"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeInvalidLink        = "INVALID_LINK"
	ErrCodeUserIDNotAllowed   = "USER_ID_NOT_ALLOWED"
	ErrCodeNoUpdates          = "NO_UPDATES"
	ErrCodeInvalidID          = "INVALID_ID"
	ErrCodeInvalidUserID      = "INVALID_USER_ID"
	ErrCodeInvalidLimit       = "INVALID_LIMIT"
	ErrCodeInvalidOffset      = "INVALID_OFFSET"
	ErrCodeInvalidSortOrder   = "INVALID_SORT_ORDER"
	ErrCodeInvalidSortField   = "INVALID_SORT_FIELD"
)

// リソース・システムエラーコード
const (
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeProjectNotFound   = "PROJECT_NOT_FOUND"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeCSRFFailed        = "CSRF_VALIDATION_FAILED"
)

func newAuthError(code, message string) *APIError {
	return &APIError{
		Code:     code,
		Message:  message,
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewMissingAuthHeaderError はAuthorizationヘッダーが存在しない場合のエラーを生成する。
func NewMissingAuthHeaderError() *APIError {
	return newAuthError(ErrCodeMissingAuthHeader, "Authorizationヘッダーがありません。")
}

// NewMalformedAuthHeaderError はBearer形式でないAuthorizationヘッダーのエラーを生成する。
func NewMalformedAuthHeaderError() *APIError {
	return newAuthError(ErrCodeMalformedAuthHeader, "Authorizationヘッダーの形式が不正です。")
}

// NewEmptyTokenError はトークンが空の場合のエラーを生成する。
func NewEmptyTokenError() *APIError {
	return newAuthError(ErrCodeEmptyToken, "トークンが空です。")
}

// NewInvalidTokenError はトークンに対応するセッションが存在しない場合のエラーを生成する。
func NewInvalidTokenError() *APIError {
	return newAuthError(ErrCodeInvalidToken, "トークンが無効です。")
}

// NewSessionExpiredError はセッションの有効期限切れエラーを生成する。
func NewSessionExpiredError() *APIError {
	return newAuthError(ErrCodeSessionExpired, "セッションの有効期限が切れています。")
}

// NewAuthenticationFailedError はセッション検証中の内部エラーを表す。
// 原因の詳細はログにのみ記録し、クライアントには返さない。
func NewAuthenticationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthenticationFailed,
		Message:  "認証処理に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(code, message string) *APIError {
	return &APIError{
		Code:     code,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", field),
		Category: "validation",
		Action:   "https:// などのスキームを含む完全なURLを入力してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "profile",
		Action:   "ログインし直してください。",
	}
}

// NewProjectNotFoundError はプロジェクトが存在しない、または所有者でない場合のエラーを生成する。
// 他ユーザーのプロジェクトの存在を漏らさないため、両者を区別しない。
func NewProjectNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  "プロジェクトが見つかりません。",
		Category: "project",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewInternalError は内部サーバーエラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
