package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorder(t *testing.T) (*PostgresRecorder, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := NewPostgresRecorder(db, logger.NewTestLogger(t))
	r.now = func() time.Time { return time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC) }
	return r, mock
}

// ==========================
// Record Tests
// ==========================

func TestRecord_Success(t *testing.T) {
	r, mock := newRecorder(t)

	mock.ExpectExec(`INSERT INTO console_audit`).
		WithArgs(
			sqlmock.AnyArg(), // generated id
			ActionDelete,
			"admin",
			"employee",
			"42",
			"partial",
			[]byte(`{"step":"credentials"}`),
			time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.Record(context.Background(), Entry{
		Action:       ActionDelete,
		Actor:        "admin",
		ResourceType: "employee",
		ResourceID:   "42",
		Outcome:      "partial",
		Details:      map[string]interface{}{"step": "credentials"},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_InsertFails(t *testing.T) {
	r, mock := newRecorder(t)

	mock.ExpectExec(`INSERT INTO console_audit`).
		WillReturnError(errors.New("connection reset"))

	err := r.Record(context.Background(), Entry{Action: ActionLogin, Actor: "admin", Outcome: "success"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorage))
}

func TestEnsureSchema(t *testing.T) {
	r, mock := newRecorder(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS console_audit`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Recent Tests
// ==========================

func TestRecent(t *testing.T) {
	r, mock := newRecorder(t)
	at := time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "action", "actor", "resource_type", "resource_id", "outcome", "details", "created_at"}).
		AddRow("a1", ActionExport, "admin", "visit", nil, "success", []byte(`{"rows":12}`), at).
		AddRow("a2", ActionLogin, "mgr", nil, nil, "failed", nil, at.Add(-time.Hour))
	mock.ExpectQuery(`SELECT id, action, actor`).WithArgs(10).WillReturnRows(rows)

	entries, err := r.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "visit", entries[0].ResourceType)
	assert.Equal(t, "", entries[0].ResourceID)
	assert.Equal(t, float64(12), entries[0].Details["rows"])
	assert.Equal(t, "failed", entries[1].Outcome)
	assert.Nil(t, entries[1].Details)
}

func TestRecent_DefaultLimit(t *testing.T) {
	r, mock := newRecorder(t)
	mock.ExpectQuery(`SELECT id, action, actor`).WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	entries, err := r.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNoOp(t *testing.T) {
	assert.NoError(t, NoOp{}.Record(context.Background(), Entry{Action: ActionLogin}))
}
