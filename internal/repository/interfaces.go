// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/amisag/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// UpdateProfile は指定カラムのみを更新し、updated_atを打刻した行を返す。
	// 対象ユーザーが存在しない場合はnilを返す。
	UpdateProfile(ctx context.Context, id string, changes []model.ProfileChange, updatedAt time.Time) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションの発行は外部の認証サービスが行う。
type SessionRepository interface {
	// FindByToken はトークンが完全一致するセッションを取得する。
	// 期限切れかどうかに関わらず返す。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	// DeleteByToken は指定トークンのセッションを削除する。
	DeleteByToken(ctx context.Context, token string) error
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
// 更新・削除・単体取得は常にidとuser_idの両方を条件にした単一クエリで行う。
type ProjectRepository interface {
	// Create はプロジェクトを作成し、採番されたIDとタイムスタンプを設定する。
	Create(ctx context.Context, project *model.Project) error
	// FindOwned は指定ユーザーが所有するプロジェクトを取得する。
	// 存在しない、または所有者でない場合はnilを返す。
	FindOwned(ctx context.Context, id int64, userID string) (*model.Project, error)
	// List は検索条件に一致するプロジェクト一覧を返す。
	List(ctx context.Context, q model.ProjectQuery) ([]*model.Project, error)
	// UpdateOwned は所有者のプロジェクトの指定カラムを更新し、更新後の行を返す。
	// 存在しない、または所有者でない場合はnilを返す。
	UpdateOwned(ctx context.Context, id int64, userID string, changes []model.ProjectChange, updatedAt time.Time) (*model.Project, error)
	// DeleteOwned は所有者のプロジェクトを削除する。
	// 削除した行がない場合はfalseを返す。
	DeleteOwned(ctx context.Context, id int64, userID string) (bool, error)
}
