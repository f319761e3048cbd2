package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/amisag/internal/model"
)

const projectColumns = `id, user_id, name, role, description, category, status, link, created_at, updated_at`

// projectSortColumns はAPIのソートキーとカラム名の対応表。
// ORDER BY句にはこの表から引いた値しか埋め込まない。
var projectSortColumns = map[model.ProjectSortField]string{
	model.ProjectSortID:        "id",
	model.ProjectSortName:      "name",
	model.ProjectSortRole:      "role",
	model.ProjectSortCategory:  "category",
	model.ProjectSortStatus:    "status",
	model.ProjectSortCreatedAt: "created_at",
	model.ProjectSortUpdatedAt: "updated_at",
}

var projectUpdatableColumns = map[model.ProjectColumn]bool{
	model.ProjectColumnName:        true,
	model.ProjectColumnRole:        true,
	model.ProjectColumnDescription: true,
	model.ProjectColumnCategory:    true,
	model.ProjectColumnStatus:      true,
	model.ProjectColumnLink:        true,
}

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// Create はプロジェクトを作成する。
// ID、CreatedAt、UpdatedAtはDBが採番した値で上書きされる。
func (r *PostgresProjectRepo) Create(ctx context.Context, p *model.Project) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO projects (user_id, name, role, description, category, status, link, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.Name, p.Role, p.Description, p.Category, p.Status, p.Link, p.CreatedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// FindOwned は指定ユーザーが所有するプロジェクトを取得する。
func (r *PostgresProjectRepo) FindOwned(ctx context.Context, id int64, userID string) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return p, nil
}

// List は検索条件に一致するプロジェクト一覧を返す。
// searchはname、role、description、categoryのいずれかへの部分一致（大文字小文字を区別しない）。
func (r *PostgresProjectRepo) List(ctx context.Context, q model.ProjectQuery) ([]*model.Project, error) {
	query, args, err := buildProjectListQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// buildProjectListQuery は一覧取得のSQLとパラメータを組み立てる。
func buildProjectListQuery(q model.ProjectQuery) (string, []any, error) {
	sortColumn, ok := projectSortColumns[q.Sort]
	if !ok {
		return "", nil, fmt.Errorf("sort field not allowed: %s", q.Sort)
	}
	direction := "DESC"
	if q.Order == model.SortAsc {
		direction = "ASC"
	}

	args := []any{q.UserID}
	conds := []string{"user_id = $1"}

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE $%d OR role ILIKE $%d OR description ILIKE $%d OR category ILIKE $%d)",
			n, n, n, n))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Category != "" {
		args = append(args, q.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	args = append(args, q.Limit, q.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM projects WHERE %s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		projectColumns, strings.Join(conds, " AND "),
		sortColumn, direction, direction,
		len(args)-1, len(args),
	)
	return query, args, nil
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// UpdateOwned は所有者のプロジェクトの指定カラムを更新する。
// 所有者確認と更新を1つのUPDATE文で行う。
func (r *PostgresProjectRepo) UpdateOwned(ctx context.Context, id int64, userID string, changes []model.ProjectChange, updatedAt time.Time) (*model.Project, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("no project changes given")
	}

	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+3)
	for _, c := range changes {
		if !projectUpdatableColumns[c.Column] {
			return nil, fmt.Errorf("project column not allowed: %s", c.Column)
		}
		args = append(args, c.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", c.Column, len(args)))
	}
	args = append(args, updatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id, userID)

	query := fmt.Sprintf(
		`UPDATE projects SET %s WHERE id = $%d AND user_id = $%d RETURNING `+projectColumns,
		strings.Join(sets, ", "), len(args)-1, len(args))

	p, err := scanProject(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// DeleteOwned は所有者のプロジェクトを削除する。
func (r *PostgresProjectRepo) DeleteOwned(ctx context.Context, id int64, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func scanProject(row rowScanner) (*model.Project, error) {
	p := &model.Project{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Role, &p.Description,
		&p.Category, &p.Status, &p.Link, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
