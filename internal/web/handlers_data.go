package web

// handlers_data.go serves the statement PDF to the preview pane, proxies
// company-name validation, and exports edited tables as CSV.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/commissiondesk/commissiondesk/internal/logging"
	"github.com/commissiondesk/commissiondesk/internal/preview"
	"github.com/commissiondesk/commissiondesk/internal/table"
	"github.com/go-chi/chi/v5"
)

// handlePDFProxy streams a statement PDF from storage to the browser.
// The payload is validated as a real PDF before serving; corrupt objects
// are rejected here instead of handed to the embedded viewer.
func (s *Server) handlePDFProxy(w http.ResponseWriter, r *http.Request) {
	storageKey := r.URL.Query().Get("gcs_key")
	if storageKey == "" {
		s.respondError(w, r, errors.New("document not found: missing gcs_key"), http.StatusBadRequest)
		return
	}

	data, err := s.proxy.Fetch(r.Context(), storageKey)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, preview.ErrObjectNotFound):
			status = http.StatusNotFound
		case errors.Is(err, preview.ErrNotPDF):
			status = http.StatusUnprocessableEntity
		}
		s.respondError(w, r, err, status)
		return
	}

	logging.FromContext(r.Context()).Debug("pdf served",
		"storage_key", storageKey,
		"bytes", len(data),
	)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}

// handleValidateCompanyName checks one candidate name against the
// validation service and relays the verdict.
func (s *Server) handleValidateCompanyName(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CompanyName string `json:"company_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, errInvalidBody, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.CompanyName) == "" {
		s.respondError(w, r, errors.New("company name is required"), http.StatusBadRequest)
		return
	}

	result, err := s.validator.Validate(r.Context(), body.CompanyName)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, result)
}

// handleExportTable downloads one edited table as CSV.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	id, err := documentIDParam(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	tableIndex, err := strconv.Atoi(chi.URLParam(r, "tableIndex"))
	if err != nil || tableIndex < 0 {
		s.respondError(w, r, errors.New("table index out of range"), http.StatusBadRequest)
		return
	}

	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if tableIndex >= len(doc.Tables) {
		s.respondError(w, r, errors.New("table index out of range"), http.StatusNotFound)
		return
	}

	t := &doc.Tables[tableIndex]
	csv := table.ExportCSV(t)
	filename := table.ExportFileName(t, tableIndex)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write([]byte(csv))
}
