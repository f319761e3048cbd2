package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/amisag/internal/model"
)

const userColumns = `id, email, name, email_verified, image, bio, location, role, company,
	skills, goals, industries, linkedin_url, portfolio_url, profile_image, created_at, updated_at`

// profileColumns は更新を許可するカラムの集合。
// 動的に組み立てるSET句にはこの集合に含まれる名前しか使わない。
var profileColumns = map[model.ProfileColumn]bool{
	model.ProfileColumnBio:          true,
	model.ProfileColumnLocation:     true,
	model.ProfileColumnRole:         true,
	model.ProfileColumnCompany:      true,
	model.ProfileColumnSkills:       true,
	model.ProfileColumnGoals:        true,
	model.ProfileColumnIndustries:   true,
	model.ProfileColumnLinkedinURL:  true,
	model.ProfileColumnPortfolioURL: true,
	model.ProfileColumnProfileImage: true,
	model.ProfileColumnName:         true,
	model.ProfileColumnImage:        true,
}

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// UpdateProfile は指定カラムのみを更新し、更新後の行を返す。
// 対象ユーザーが存在しない場合はnilを返す。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, id string, changes []model.ProfileChange, updatedAt time.Time) (*model.User, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("no profile changes given")
	}

	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+2)
	for _, c := range changes {
		if !profileColumns[c.Column] {
			return nil, fmt.Errorf("profile column not allowed: %s", c.Column)
		}
		args = append(args, c.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.Column, len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING `+userColumns,
		strings.Join(sets, ", "), len(args))

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.EmailVerified, &u.Image,
		&u.Bio, &u.Location, &u.Role, &u.Company,
		&u.Skills, &u.Goals, &u.Industries,
		&u.LinkedinURL, &u.PortfolioURL, &u.ProfileImage,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
