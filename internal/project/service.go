// Package project はユーザーが所有するプロジェクトのドメインロジックを提供する。
//
// 更新・削除・単体取得はすべてidと所有者IDを同時に条件にしたクエリで行い、
// 存在しない場合と他人の所有物である場合を区別せずPROJECT_NOT_FOUNDとする。
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/amisag/internal/model"
	"github.com/hitoshi/amisag/internal/repository"
)

// MutationRecorder はプロジェクト変更操作の計測インターフェース。
type MutationRecorder interface {
	RecordProjectMutation(op string)
}

// Service はプロジェクト管理のサービス層。
type Service struct {
	repo      repository.ProjectRepository
	urls      URLChecker
	sanitizer Sanitizer
	parser    *QueryParser
	recorder  MutationRecorder
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(repo repository.ProjectRepository, urls URLChecker, sanitizer Sanitizer, recorder MutationRecorder) *Service {
	return &Service{
		repo:      repo,
		urls:      urls,
		sanitizer: sanitizer,
		parser:    NewQueryParser(),
		recorder:  recorder,
		now:       time.Now,
	}
}

// ParseID はパスパラメータのプロジェクトIDを解釈する。
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(model.ErrCodeInvalidID, "有効なプロジェクトIDを指定してください")
	}
	return id, nil
}

// Create は検証済みセッションのユーザーを所有者としてプロジェクトを作成する。
func (s *Service) Create(ctx context.Context, userID string, body map[string]json.RawMessage) (*model.Project, error) {
	p, err := BuildNewProject(userID, body, s.urls, s.sanitizer)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}

	s.record("create")
	slog.Info("プロジェクトを作成しました",
		slog.String("user_id", userID),
		slog.Int64("project_id", p.ID),
	)
	return p, nil
}

// Get は所有者のプロジェクトを1件取得する。
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Project, error) {
	p, err := s.repo.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProjectNotFoundError()
	}
	return p, nil
}

// ListOwn は本人のプロジェクト一覧を返す。不正なクエリパラメータは既定値で置き換える。
func (s *Service) ListOwn(ctx context.Context, userID string, values url.Values) ([]*model.Project, error) {
	q := s.parser.ParseLenient(userID, values)
	return s.list(ctx, q)
}

// ListByUser は指定ユーザーの公開プロジェクト一覧を返す。
// 不正なクエリパラメータは入力検証エラーとする。
func (s *Service) ListByUser(ctx context.Context, userID string, values url.Values) ([]*model.Project, error) {
	q, err := s.parser.ParseStrict(userID, values)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q)
}

func (s *Service) list(ctx context.Context, q model.ProjectQuery) ([]*model.Project, error) {
	projects, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	return projects, nil
}

// Update は所有者のプロジェクトを部分更新する。
// 全項目の検証が通った後に、所有者条件付きの単一UPDATEで書き込む。
func (s *Service) Update(ctx context.Context, userID string, id int64, body map[string]json.RawMessage) (*model.Project, error) {
	changes, err := BuildProjectChanges(body, s.urls, s.sanitizer)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.UpdateOwned(ctx, id, userID, changes, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの更新に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewProjectNotFoundError()
	}

	s.record("update")
	return p, nil
}

// Delete は所有者のプロジェクトを削除する。
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	deleted, err := s.repo.DeleteOwned(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewProjectNotFoundError()
	}

	s.record("delete")
	slog.Info("プロジェクトを削除しました",
		slog.String("user_id", userID),
		slog.Int64("project_id", id),
	)
	return nil
}

func (s *Service) record(op string) {
	if s.recorder != nil {
		s.recorder.RecordProjectMutation(op)
	}
}
