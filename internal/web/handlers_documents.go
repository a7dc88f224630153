package web

// handlers_documents.go implements document registration and the
// persistence endpoints that the review UI's change notifications feed:
// edited tables and reviewed company names are saved here as snapshots.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/commissiondesk/commissiondesk/internal/extraction"
	"github.com/commissiondesk/commissiondesk/internal/store"
	"github.com/commissiondesk/commissiondesk/internal/table"
)

// createDocumentRequest registers an uploaded statement together with its
// extraction result.
type createDocumentRequest struct {
	FileName   string          `json:"fileName"`
	StorageKey string          `json:"storageKey"`
	Extraction json.RawMessage `json:"extraction,omitempty"`
}

// handleCreateDocument registers a document and seeds its tables and
// company candidates from the extraction result.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errInvalidBody, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.StorageKey) == "" {
		s.respondError(w, r, fmt.Errorf("%w: fileName and storageKey are required", errInvalidBody), http.StatusBadRequest)
		return
	}

	doc := &store.Document{
		FileName:   req.FileName,
		StorageKey: req.StorageKey,
	}

	if len(req.Extraction) > 0 {
		result, err := extraction.Parse(req.Extraction)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidBody, err), http.StatusBadRequest)
			return
		}
		doc.Carrier = result.DocumentMetadata.Carrier.Value
		doc.StatementDate = result.DocumentMetadata.StatementDate.Value
		doc.Tables = result.ToTables()
		doc.Companies = result.DetectedCompanies
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.store.RecordEdit(ctx, store.AuditEntry{
		DocumentID: doc.ID,
		Action:     store.ActionDocumentAdded,
		Detail:     doc.FileName,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(doc)
}

// handleListDocuments returns all documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, docs)
}

// handleGetDocument returns one document with its current table state.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, doc)
}

// handleSaveTables persists the edited table snapshot. This is the sink
// for the editor's change notifications.
func (s *Server) handleSaveTables(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var body struct {
		Tables []table.Table `json:"tables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, errInvalidBody, http.StatusBadRequest)
		return
	}
	for ti := range body.Tables {
		t := &body.Tables[ti]
		for ri, row := range t.Rows {
			if len(row) != len(t.Header) {
				s.respondError(w, r,
					fmt.Errorf("row length mismatch: table %d row %d has %d cells, header has %d",
						ti, ri, len(row), len(t.Header)),
					http.StatusBadRequest)
				return
			}
		}
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.store.SaveTables(ctx, id, body.Tables); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.store.RecordEdit(ctx, store.AuditEntry{
		DocumentID: id,
		Action:     store.ActionTablesSaved,
		Detail:     fmt.Sprintf("%d tables", len(body.Tables)),
	})

	writeJSON(w, map[string]string{"status": "saved"})
}

// handleSaveCompanies persists the reviewed company-name list. Blank
// names are filtered out, matching the review panel's Complete action.
func (s *Server) handleSaveCompanies(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var body struct {
		Companies []string `json:"companies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, errInvalidBody, http.StatusBadRequest)
		return
	}

	companies := make([]string, 0, len(body.Companies))
	for _, name := range body.Companies {
		if strings.TrimSpace(name) != "" {
			companies = append(companies, name)
		}
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.store.SaveCompanies(ctx, id, companies); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.store.RecordEdit(ctx, store.AuditEntry{
		DocumentID: id,
		Action:     store.ActionCompaniesSaved,
		Detail:     fmt.Sprintf("%d companies", len(companies)),
	})

	writeJSON(w, map[string]string{"status": "saved"})
}

// handleUpdateStatus moves the document through its review lifecycle.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, errInvalidBody, http.StatusBadRequest)
		return
	}
	switch body.Status {
	case store.StatusUploaded, store.StatusReviewing, store.StatusCompleted:
	default:
		s.respondError(w, r, fmt.Errorf("%w: unknown status %q", errInvalidBody, body.Status), http.StatusBadRequest)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.store.UpdateStatus(ctx, id, body.Status); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.store.RecordEdit(ctx, store.AuditEntry{
		DocumentID: id,
		Action:     store.ActionStatusChanged,
		Detail:     body.Status,
	})

	writeJSON(w, map[string]string{"status": body.Status})
}

// handleAuditTrail returns the edit history for a document, newest first.
func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	entries, err := s.store.ListEdits(r.Context(), id, limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

// isNotFound reports whether err is the store's not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
