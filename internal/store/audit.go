package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded for document edits.
const (
	ActionTablesSaved    = "tables_saved"
	ActionCompaniesSaved = "companies_saved"
	ActionStatusChanged  = "status_changed"
	ActionDocumentAdded  = "document_added"
)

// AuditEntry is one recorded edit event.
type AuditEntry struct {
	ID         int64     `json:"id"`
	DocumentID uuid.UUID `json:"documentId"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RecordEdit appends an audit entry. Audit failures are logged but never
// fail the edit that triggered them; the edit has already been applied.
func (s *Store) RecordEdit(ctx context.Context, entry AuditEntry) {
	if entry.IPAddress == "" {
		entry.IPAddress = IPAddressFromContext(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = UserAgentFromContext(ctx)
	}
	if entry.Actor == "" {
		entry.Actor = ActorFromContext(ctx)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO edit_audit (document_id, action, detail, actor, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.DocumentID, entry.Action, entry.Detail, entry.Actor,
		entry.IPAddress, entry.UserAgent,
	)
	if err != nil {
		slog.Error("audit record failed",
			"document_id", entry.DocumentID,
			"action", entry.Action,
			"error", err,
		)
	}
}

// ListEdits returns the audit trail for a document, newest first.
func (s *Store) ListEdits(ctx context.Context, documentID uuid.UUID, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, document_id, action, detail, actor, ip_address, user_agent, created_at
		FROM edit_audit
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Action, &e.Detail,
			&e.Actor, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
