package handler

import (
	"encoding/json"
	"time"

	"github.com/hitoshi/amisag/internal/model"
)

// profileResponse はプロフィールのAPIレスポンス。
// リスト項目は保存済みのJSON配列をそのまま埋め込む。
type profileResponse struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	EmailVerified bool            `json:"emailVerified"`
	Image         *string         `json:"image"`
	Bio           *string         `json:"bio"`
	Location      *string         `json:"location"`
	Role          *string         `json:"role"`
	Company       *string         `json:"company"`
	Skills        json.RawMessage `json:"skills"`
	Goals         json.RawMessage `json:"goals"`
	Industries    json.RawMessage `json:"industries"`
	LinkedinURL   *string         `json:"linkedinUrl"`
	PortfolioURL  *string         `json:"portfolioUrl"`
	ProfileImage  *string         `json:"profileImage"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// projectResponse はプロジェクトのAPIレスポンス。
type projectResponse struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Link        *string   `json:"link"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// deleteResponse はプロジェクト削除の確認レスポンス。
type deleteResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// tokenResponse はトークン取得のレスポンス。
type tokenResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toProfileResponse(u *model.User) profileResponse {
	return profileResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
		Bio:           u.Bio,
		Location:      u.Location,
		Role:          u.Role,
		Company:       u.Company,
		Skills:        listField(u.Skills),
		Goals:         listField(u.Goals),
		Industries:    listField(u.Industries),
		LinkedinURL:   u.LinkedinURL,
		PortfolioURL:  u.PortfolioURL,
		ProfileImage:  u.ProfileImage,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// listField は保存済みのJSON配列文字列を返す。
// 旧データなど配列として解釈できない値はnullとして返す。
func listField(s *string) json.RawMessage {
	if s == nil {
		return json.RawMessage("null")
	}
	var items []string
	if err := json.Unmarshal([]byte(*s), &items); err != nil {
		return json.RawMessage("null")
	}
	return json.RawMessage(*s)
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Role:        p.Role,
		Description: p.Description,
		Category:    p.Category,
		Status:      p.Status,
		Link:        p.Link,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProjectResponses(projects []*model.Project) []projectResponse {
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	return out
}
