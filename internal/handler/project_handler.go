package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/amisag/internal/middleware"
	"github.com/hitoshi/amisag/internal/model"
	"github.com/hitoshi/amisag/internal/project"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
// 取得・更新・削除はすべて所有者条件付きで行われる。
type ProjectServiceInterface interface {
	Create(ctx context.Context, userID string, body map[string]json.RawMessage) (*model.Project, error)
	Get(ctx context.Context, userID string, id int64) (*model.Project, error)
	ListOwn(ctx context.Context, userID string, values url.Values) ([]*model.Project, error)
	ListByUser(ctx context.Context, userID string, values url.Values) ([]*model.Project, error)
	Update(ctx context.Context, userID string, id int64, body map[string]json.RawMessage) (*model.Project, error)
	Delete(ctx context.Context, userID string, id int64) error
}

// ProjectHandler はプロジェクト管理のHTTPハンドラー。
type ProjectHandler struct {
	service ProjectServiceInterface
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// CreateProject はプロジェクトを作成する。
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	body, err := decodeBody(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	p, err := h.service.Create(r.Context(), userID, body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(p))
}

// ListOwnProjects は本人のプロジェクト一覧を返す。
// GET /api/projects, GET /api/projects/me
func (h *ProjectHandler) ListOwnProjects(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	projects, err := h.service.ListOwn(r.Context(), userID, r.URL.Query())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponses(projects))
}

// ListUserProjects は指定ユーザーのプロジェクト一覧を返す。認証不要。
// GET /api/projects/user/{userId}
func (h *ProjectHandler) ListUserProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListByUser(r.Context(), chi.URLParam(r, "userId"), r.URL.Query())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponses(projects))
}

// GetProject は本人のプロジェクトを1件返す。
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// UpdateProject は本人のプロジェクトを部分更新する。
// PATCH /api/projects/{id}
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	body, err := decodeBody(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	p, err := h.service.Update(r.Context(), userID, id, body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

// DeleteProject は本人のプロジェクトを削除する。
// DELETE /api/projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Message: "プロジェクトを削除しました",
		ID:      id,
	})
}

func (h *ProjectHandler) ownerAndID(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return "", 0, false
	}

	id, err := project.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return "", 0, false
	}
	return userID, id, true
}
