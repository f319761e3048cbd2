package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/amisag/internal/auth"
	"github.com/hitoshi/amisag/internal/middleware"
	"github.com/hitoshi/amisag/internal/model"
)

// maxBodyBytes はJSONリクエストボディの上限。
const maxBodyBytes = 1 << 20

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeJSON はステータスコードとともにJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeUnauthorized は認証済みユーザーがコンテキストにない場合の401を返す。
// 認証ミドルウェアを通っていればここには来ない。
func writeUnauthorized(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewMissingAuthHeaderError())
}

// decodeBody はリクエストボディをJSONオブジェクトとして読み込む。
// フィールドの型検証はサービス層で行うため、値は未解釈のまま返す。
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.NewValidationError(model.ErrCodeInvalidRequestBody, "リクエストボディが空です")
		}
		return nil, model.NewValidationError(model.ErrCodeInvalidRequestBody, "リクエストボディの解析に失敗しました")
	}
	if body == nil {
		return nil, model.NewValidationError(model.ErrCodeInvalidRequestBody, "リクエストボディはJSONオブジェクトである必要があります")
	}
	return body, nil
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外の詳細はログにのみ残し、クライアントには汎用メッセージを返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if authErr, ok := auth.AsAuthError(err); ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, authErr.APIError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingAuthHeader, model.ErrCodeMalformedAuthHeader,
		model.ErrCodeEmptyToken, model.ErrCodeInvalidToken, model.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case model.ErrCodeUserNotFound, model.ErrCodeProjectNotFound:
		return http.StatusNotFound
	case model.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case model.ErrCodeCSRFFailed:
		return http.StatusForbidden
	case model.ErrCodeAuthenticationFailed, model.ErrCodeInternal:
		return http.StatusInternalServerError
	}
	if apiErr.Category == "validation" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
