// internal/audit/recorder.go
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"

	"github.com/google/uuid"
)

// Actions written to the trail.
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
	ActionDelete = "delete"
	ActionBulk   = "bulk"
	ActionExport = "export"
	ActionImport = "import"
	ActionUpdate = "update"
)

// Entry is one row of the console audit trail.
type Entry struct {
	ID           string                 `json:"id"`
	Action       string                 `json:"action"`
	Actor        string                 `json:"actor"`
	ResourceType string                 `json:"resourceType,omitempty"`
	ResourceID   string                 `json:"resourceId,omitempty"`
	Outcome      string                 `json:"outcome"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// Recorder persists audit entries. Record failures never fail the caller's
// operation; callers log them.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NoOp discards every entry.
type NoOp struct{}

func (NoOp) Record(context.Context, Entry) error { return nil }

const schema = `
CREATE TABLE IF NOT EXISTS console_audit (
	id            UUID PRIMARY KEY,
	action        TEXT NOT NULL,
	actor         TEXT NOT NULL,
	resource_type TEXT,
	resource_id   TEXT,
	outcome       TEXT NOT NULL,
	details       JSONB,
	created_at    TIMESTAMPTZ NOT NULL
)`

// PostgresRecorder writes the trail to the console_audit table.
type PostgresRecorder struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresRecorder(db *sql.DB, log logger.Logger) *PostgresRecorder {
	return &PostgresRecorder{
		db:     db,
		logger: logger.Component(log, "audit"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSchema creates the audit table when it does not exist yet.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewStorageError("create audit table", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		r.logger.Warn("failed to marshal audit details", map[string]interface{}{
			"error":  err,
			"action": entry.Action,
		})
		details = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO console_audit (
			id, action, actor, resource_type, resource_id, outcome, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID,
		entry.Action,
		entry.Actor,
		entry.ResourceType,
		entry.ResourceID,
		entry.Outcome,
		details,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.NewStorageError("insert audit entry", err)
	}

	r.logger.Debug("audit entry recorded", map[string]interface{}{
		"id":     entry.ID,
		"action": entry.Action,
		"actor":  entry.Actor,
	})
	return nil
}

// Recent returns the newest entries first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, actor, resource_type, resource_id, outcome, details, created_at
		FROM console_audit
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("query audit entries", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			resourceType sql.NullString
			resourceID   sql.NullString
			details      []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Actor, &resourceType, &resourceID, &e.Outcome, &details, &e.CreatedAt); err != nil {
			return nil, apperrors.NewStorageError("scan audit entry", err)
		}
		e.ResourceType = resourceType.String
		e.ResourceID = resourceID.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("audit entry %s: %w", e.ID, apperrors.NewDecodeError("audit details", err))
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate audit entries", err)
	}
	return entries, nil
}
