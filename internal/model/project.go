package model

import "time"

// DefaultProjectStatus は作成時にstatusが省略された場合の値。
const DefaultProjectStatus = "active"

// Project はユーザーが所有するポートフォリオ項目を表す。
type Project struct {
	ID          int64
	UserID      string
	Name        string
	Role        string
	Description string
	Category    string
	Status      string
	Link        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectColumn はプロジェクト更新で書き込み可能なカラム名。
type ProjectColumn string

const (
	ProjectColumnName        ProjectColumn = "name"
	ProjectColumnRole        ProjectColumn = "role"
	ProjectColumnDescription ProjectColumn = "description"
	ProjectColumnCategory    ProjectColumn = "category"
	ProjectColumnStatus      ProjectColumn = "status"
	ProjectColumnLink        ProjectColumn = "link"
)

// ProjectChange はプロジェクトの1カラム分の更新内容。
type ProjectChange struct {
	Column ProjectColumn
	Value  *string
}

// SortOrder は一覧の並び順。
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ProjectSortField は一覧で指定可能なソートキー（APIでの名前）。
type ProjectSortField string

const (
	ProjectSortID        ProjectSortField = "id"
	ProjectSortName      ProjectSortField = "name"
	ProjectSortRole      ProjectSortField = "role"
	ProjectSortCategory  ProjectSortField = "category"
	ProjectSortStatus    ProjectSortField = "status"
	ProjectSortCreatedAt ProjectSortField = "createdAt"
	ProjectSortUpdatedAt ProjectSortField = "updatedAt"
)

// ProjectQuery はプロジェクト一覧の検索条件。
// Limitは1〜MaxProjectLimitに正規化済みであること。
type ProjectQuery struct {
	UserID   string
	Search   string
	Status   string
	Category string
	Sort     ProjectSortField
	Order    SortOrder
	Limit    int
	Offset   int
}

const (
	// DefaultProjectLimit は一覧のデフォルト取得件数。
	DefaultProjectLimit = 10
	// MaxProjectLimit は一覧の最大取得件数。
	MaxProjectLimit = 100
)
