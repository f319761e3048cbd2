// Package user はプロフィールの参照と更新のドメインロジックを提供する。
package user

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/amisag/internal/model"
	"github.com/hitoshi/amisag/internal/repository"
)

// Service はプロフィール管理のサービス層。
// 操作対象のユーザーIDは常に検証済みセッションから渡される。
type Service struct {
	userRepo  repository.UserRepository
	urls      URLChecker
	sanitizer Sanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, urls URLChecker, sanitizer Sanitizer) *Service {
	return &Service{
		userRepo:  userRepo,
		urls:      urls,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// GetProfile は指定ユーザーのプロフィールを取得する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}

// UpdateProfile はリクエストボディのうち許可された項目だけでプロフィールを更新する。
// updated_atはサーバー側で現在時刻を打刻する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, body map[string]json.RawMessage) (*model.User, error) {
	changes, err := BuildProfileChanges(body, s.urls, s.sanitizer)
	if err != nil {
		return nil, err
	}

	u, err := s.userRepo.UpdateProfile(ctx, userID, changes, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("プロフィールを更新しました",
		slog.String("user_id", userID),
		slog.Int("fields", len(changes)),
	)
	return u, nil
}
