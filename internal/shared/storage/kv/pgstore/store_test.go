package pgstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeai-backend/internal/shared/storage/kv"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestGlobToLike(t *testing.T) {
	tests := map[string]string{
		"resume:*":   "resume:%",
		"resume:?":   "resume:_",
		"50%_off\\*": "50\\%\\_off\\\\%",
		"plain":      "plain",
	}
	for in, want := range tests {
		assert.Equal(t, want, globToLike(in), in)
	}
}

func TestGet(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_records WHERE key = $1`)).
		WithArgs("resume:1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"id":"1"}`))
	val, found, err := s.Get(ctx, "resume:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":"1"}`, val)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_records WHERE key = $1`)).
		WithArgs("resume:2").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, found, err = s.Get(ctx, "resume:2")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetUpserts(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(`(?s)INSERT INTO kv_records .* ON CONFLICT \(key\) DO UPDATE`).
		WithArgs("resume:1", "v").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Set(context.Background(), "resume:1", "v"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithValues(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value FROM kv_records WHERE key LIKE $1`)).
		WithArgs("resume:%").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("resume:a", "A").
			AddRow("resume:b", "B"))

	items, err := s.List(context.Background(), "resume:*", true)
	require.NoError(t, err)
	assert.Equal(t, []kv.Item{{Key: "resume:a", Value: "A"}, {Key: "resume:b", Value: "B"}}, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListKeysOnly(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key FROM kv_records WHERE key LIKE $1`)).
		WithArgs("%").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("resume:a"))

	items, err := s.List(context.Background(), "*", false)
	require.NoError(t, err)
	assert.Equal(t, []kv.Item{{Key: "resume:a"}}, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelReportsExistence(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_records WHERE key = $1`)).
		WithArgs("resume:1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := s.Del(ctx, "resume:1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_records WHERE key = $1`)).
		WithArgs("resume:1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = s.Del(ctx, "resume:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlush(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_records`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
