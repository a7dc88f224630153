// Package store persists uploaded documents and their edited extraction
// results in PostgreSQL. It is the sink for the editor's change
// notifications: every table or company-list edit ends up here as a
// JSONB snapshot on the owning document.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/commissiondesk/commissiondesk/internal/table"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Document statuses.
const (
	StatusUploaded  = "uploaded"
	StatusReviewing = "reviewing"
	StatusCompleted = "completed"
)

// Document is a commission statement under review together with its
// current (edited) extraction state.
type Document struct {
	ID            uuid.UUID     `json:"id"`
	FileName      string        `json:"fileName"`
	StorageKey    string        `json:"storageKey"`
	Carrier       string        `json:"carrier"`
	StatementDate string        `json:"statementDate,omitempty"`
	Status        string        `json:"status"`
	UploadedAt    time.Time     `json:"uploadedAt"`
	Tables        []table.Table `json:"tables"`
	Companies     []string      `json:"companies"`
}

// Store provides document persistence over a pgx pool or transaction.
type Store struct {
	db DBTX
}

// New creates a Store.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// schema creates the tables this application owns.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id             UUID PRIMARY KEY,
	file_name      TEXT NOT NULL,
	storage_key    TEXT NOT NULL,
	carrier        TEXT NOT NULL DEFAULT '',
	statement_date TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'uploaded',
	uploaded_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	tables         JSONB NOT NULL DEFAULT '[]',
	companies      JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS edit_audit (
	id          BIGSERIAL PRIMARY KEY,
	document_id UUID NOT NULL,
	action      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_edit_audit_document
	ON edit_audit (document_id, created_at DESC);
`

// EnsureSchema creates the required tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// CreateDocument inserts a new document. A zero ID gets a fresh UUID.
func (s *Store) CreateDocument(ctx context.Context, doc *Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = StatusUploaded
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	tablesJSON, err := json.Marshal(doc.Tables)
	if err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}
	companiesJSON, err := json.Marshal(doc.Companies)
	if err != nil {
		return fmt.Errorf("encode companies: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO documents
			(id, file_name, storage_key, carrier, statement_date, status, uploaded_at, tables, companies)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb)`,
		doc.ID, doc.FileName, doc.StorageKey, doc.Carrier, doc.StatementDate,
		doc.Status, doc.UploadedAt, string(tablesJSON), string(companiesJSON),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument loads a document with its current table state.
func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, file_name, storage_key, carrier, statement_date, status, uploaded_at, tables, companies
		FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns all documents, newest first, without their table
// payloads (dashboard listing does not need them).
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, file_name, storage_key, carrier, statement_date, status, uploaded_at
		FROM documents ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.FileName, &d.StorageKey, &d.Carrier,
			&d.StatementDate, &d.Status, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// SaveTables replaces the document's table snapshot and moves it into
// the reviewing state if it was freshly uploaded.
func (s *Store) SaveTables(ctx context.Context, id uuid.UUID, tables []table.Table) error {
	data, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE documents
		SET tables = $2::jsonb,
		    status = CASE WHEN status = 'uploaded' THEN 'reviewing' ELSE status END
		WHERE id = $1`, id, string(data))
	if err != nil {
		return fmt.Errorf("save tables: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveCompanies replaces the document's reviewed company-name list.
func (s *Store) SaveCompanies(ctx context.Context, id uuid.UUID, companies []string) error {
	data, err := json.Marshal(companies)
	if err != nil {
		return fmt.Errorf("encode companies: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE documents SET companies = $2::jsonb WHERE id = $1`, id, string(data))
	if err != nil {
		return fmt.Errorf("save companies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the document status.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.db.Exec(ctx, `UPDATE documents SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	var tablesJSON, companiesJSON []byte

	if err := row.Scan(&d.ID, &d.FileName, &d.StorageKey, &d.Carrier,
		&d.StatementDate, &d.Status, &d.UploadedAt, &tablesJSON, &companiesJSON); err != nil {
		return nil, err
	}

	if len(tablesJSON) > 0 {
		if err := json.Unmarshal(tablesJSON, &d.Tables); err != nil {
			return nil, fmt.Errorf("decode tables: %w", err)
		}
	}
	if len(companiesJSON) > 0 {
		if err := json.Unmarshal(companiesJSON, &d.Companies); err != nil {
			return nil, fmt.Errorf("decode companies: %w", err)
		}
	}
	return &d, nil
}
