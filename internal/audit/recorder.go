// internal/audit/recorder.go
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"activities-service/internal/activities"
)

const SinkName = "audit"

// Schema creates the audit table when it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id            BIGSERIAL PRIMARY KEY,
	event_type    TEXT        NOT NULL,
	resource_type TEXT        NOT NULL,
	resource_id   TEXT        NOT NULL,
	details       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	created_at    TIMESTAMPTZ NOT NULL
)`

// Recorder appends participant events to the audit_log table.
type Recorder struct {
	db      *sql.DB
	timeout time.Duration
}

func NewRecorder(db *sql.DB, timeout time.Duration) *Recorder {
	return &Recorder{db: db, timeout: timeout}
}

// EnsureSchema creates the audit table.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create audit_log: %w", err)
	}
	return nil
}

func (r *Recorder) Name() string {
	return SinkName
}

// Record implements activities.EventSink.
func (r *Recorder) Record(ctx context.Context, event activities.ParticipantEvent) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	details, err := json.Marshal(map[string]interface{}{
		"eventId": event.ID,
		"email":   event.Email,
	})
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(event.Type),
		"activity",
		event.Activity,
		details,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit_log: %w", err)
	}
	return nil
}
