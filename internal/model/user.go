// Package model はドメインモデルを定義する。
package model

import "time"

// User はプロフィール情報を含むユーザーを表す。
// skills、goals、industriesはJSON配列文字列として保存される。
type User struct {
	ID            string
	Email         string
	Name          string
	EmailVerified bool
	Image         *string
	Bio           *string
	Location      *string
	Role          *string
	Company       *string
	Skills        *string
	Goals         *string
	Industries    *string
	LinkedinURL   *string
	PortfolioURL  *string
	ProfileImage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session は発行済みのBearerトークン1件を表す。
// 発行は外部の認証サービスが行い、このサービスからは参照と削除のみを行う。
type Session struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired は指定時刻においてセッションが期限切れかどうかを返す。
// now <= ExpiresAt の間のみ有効とする。
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// ProfileColumn はプロフィール更新で書き込み可能なusersテーブルのカラム名。
type ProfileColumn string

const (
	ProfileColumnBio          ProfileColumn = "bio"
	ProfileColumnLocation     ProfileColumn = "location"
	ProfileColumnRole         ProfileColumn = "role"
	ProfileColumnCompany      ProfileColumn = "company"
	ProfileColumnSkills       ProfileColumn = "skills"
	ProfileColumnGoals        ProfileColumn = "goals"
	ProfileColumnIndustries   ProfileColumn = "industries"
	ProfileColumnLinkedinURL  ProfileColumn = "linkedin_url"
	ProfileColumnPortfolioURL ProfileColumn = "portfolio_url"
	ProfileColumnProfileImage ProfileColumn = "profile_image"
	ProfileColumnName         ProfileColumn = "name"
	ProfileColumnImage        ProfileColumn = "image"
)

// ProfileChange はプロフィールの1カラム分の更新内容。
// Valueがnilの場合はNULLを書き込む。
type ProfileChange struct {
	Column ProfileColumn
	Value  *string
}
