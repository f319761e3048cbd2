package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionRowColumns = []string{"id", "token", "user_id", "expires_at", "created_at"}

// 期限切れの判定はValidatorの責務なので、リポジトリは期限切れの行もそのまま返す
func TestPostgresSessionRepo_FindByToken_ReturnsExpiredRow(t *testing.T) {
	_, sessions, _, mock := newMockDB(t)
	expired := time.Now().Add(-time.Hour).UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions") + `\s+WHERE token = \$1`).
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow("sess-1", "tok-1", "user-1", expired, expired.Add(-time.Hour)))

	s, err := sessions.FindByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "user-1", s.UserID)
	assert.True(t, s.IsExpired(time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionRepo_FindByToken_NotFound(t *testing.T) {
	_, sessions, _, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(sessionRowColumns))

	s, err := sessions.FindByToken(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestPostgresSessionRepo_DeleteByToken(t *testing.T) {
	_, sessions, _, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE token = $1")).
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, sessions.DeleteByToken(context.Background(), "tok-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
