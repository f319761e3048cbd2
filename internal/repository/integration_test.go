//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/hitoshi/amisag/internal/database"
	"github.com/hitoshi/amisag/internal/model"
	"github.com/hitoshi/amisag/internal/repository"
	"github.com/hitoshi/amisag/internal/worker/cleanup"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "amisag_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/amisag_test?sslmode=disable", host, port.Port())

	if err := database.RunMigrations(dsn); err != nil {
		panic(err)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertUser(t *testing.T, db *sql.DB) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO users (id, name, email) VALUES ($1, $2, $3)`,
		id, "User "+id[:8], id+"@example.com",
	)
	require.NoError(t, err)
	return id
}

func insertSession(t *testing.T, db *sql.DB, userID string, expiresAt time.Time) string {
	t.Helper()
	token := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO sessions (id, token, user_id, expires_at) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), token, userID, expiresAt,
	)
	require.NoError(t, err)
	return token
}

func TestUserRepo_UpdateProfile_WritesOnlyGivenColumns(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users := repository.NewPostgresUserRepo(db)
	userID := insertUser(t, db)

	bio := "hello"
	now := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := users.UpdateProfile(ctx, userID, []model.ProfileChange{
		{Column: model.ProfileColumnBio, Value: &bio},
		{Column: model.ProfileColumnLocation, Value: nil},
	}, now)
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)
	assert.Nil(t, updated.Location)
	assert.True(t, updated.UpdatedAt.Equal(now))

	got, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, updated.Name, got.Name)

	missing, err := users.FindByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionRepo_FindAndDeleteByToken(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	sessions := repository.NewPostgresSessionRepo(db)
	userID := insertUser(t, db)
	token := insertSession(t, db, userID, time.Now().Add(time.Hour))

	s, err := sessions.FindByToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, userID, s.UserID)

	require.NoError(t, sessions.DeleteByToken(ctx, token))

	s, err = sessions.FindByToken(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestProjectRepo_OwnershipScopedLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	projects := repository.NewPostgresProjectRepo(db)
	owner := insertUser(t, db)
	other := insertUser(t, db)

	p := &model.Project{
		UserID: owner, Name: "Portfolio 100%", Role: "Engineer", Description: "site",
		Category: "Tech", Status: model.DefaultProjectStatus, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, projects.Create(ctx, p))
	require.NotZero(t, p.ID)

	// 所有者以外からは見えない
	got, err := projects.FindOwned(ctx, p.ID, other)
	require.NoError(t, err)
	assert.Nil(t, got)

	name := "Renamed"
	updated, err := projects.UpdateOwned(ctx, p.ID, other, []model.ProjectChange{
		{Column: model.ProjectColumnName, Value: &name},
	}, time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, updated)

	deleted, err := projects.DeleteOwned(ctx, p.ID, other)
	require.NoError(t, err)
	assert.False(t, deleted)

	// LIKEのワイルドカードはリテラルとして扱われる
	list, err := projects.List(ctx, model.ProjectQuery{
		UserID: owner, Search: "100%", Sort: model.ProjectSortCreatedAt,
		Order: model.SortDesc, Limit: model.DefaultProjectLimit,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = projects.List(ctx, model.ProjectQuery{
		UserID: owner, Search: "1_0", Sort: model.ProjectSortCreatedAt,
		Order: model.SortDesc, Limit: model.DefaultProjectLimit,
	})
	require.NoError(t, err)
	assert.Empty(t, list)

	updated, err = projects.UpdateOwned(ctx, p.ID, owner, []model.ProjectChange{
		{Column: model.ProjectColumnName, Value: &name},
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Renamed", updated.Name)

	deleted, err = projects.DeleteOwned(ctx, p.ID, owner)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestCleanupJob_PurgesOnlySessionsPastRetention(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	sessions := repository.NewPostgresSessionRepo(db)
	userID := insertUser(t, db)

	stale := insertSession(t, db, userID, time.Now().Add(-48*time.Hour))
	recent := insertSession(t, db, userID, time.Now().Add(-time.Hour))
	live := insertSession(t, db, userID, time.Now().Add(time.Hour))

	job := cleanup.NewCleanupJob(db, slog.New(slog.NewJSONHandler(io.Discard, nil)), nil)
	_, err := job.Run(ctx)
	require.NoError(t, err)

	s, err := sessions.FindByToken(ctx, stale)
	require.NoError(t, err)
	assert.Nil(t, s)

	for _, token := range []string{recent, live} {
		s, err := sessions.FindByToken(ctx, token)
		require.NoError(t, err)
		assert.NotNil(t, s)
	}
}
