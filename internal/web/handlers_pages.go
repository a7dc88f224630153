package web

import (
	"net/http"

	"github.com/commissiondesk/commissiondesk/internal/store"
	"github.com/commissiondesk/commissiondesk/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleDashboard renders the statement list.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	cards := make([]templates.DocumentCard, len(docs))
	for i, d := range docs {
		cards[i] = templates.DocumentCard{
			ID:            d.ID.String(),
			FileName:      d.FileName,
			Carrier:       d.Carrier,
			StatementDate: d.StatementDate,
			Status:        d.Status,
			UploadedAt:    d.UploadedAt,
		}
	}

	templates.Dashboard(cards).Render(r.Context(), w)
}

// handleReviewPage renders the review view for one statement: PDF preview,
// extracted tables, and the company panel.
func (s *Server) handleReviewPage(w http.ResponseWriter, r *http.Request) {
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

	templates.ReviewPage(templates.ReviewData{
		ID:         doc.ID.String(),
		FileName:   doc.FileName,
		Carrier:    doc.Carrier,
		StorageKey: doc.StorageKey,
		Tables:     doc.Tables,
		Companies:  doc.Companies,
	}).Render(r.Context(), w)
}

// documentIDParam parses the {documentID} URL parameter.
func documentIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "documentID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, store.ErrNotFound
	}
	return id, nil
}

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if isNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
