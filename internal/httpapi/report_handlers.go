package httpapi

import (
	"net/http"
	"strings"

	"securegate.org/internal/audit"
	"securegate.org/internal/auth"
	"securegate.org/internal/report"
)

type createReportRequest struct {
	Category      string `json:"category"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	EvidenceRef   string `json:"evidence_ref"`
	VictimName    string `json:"victim_name"`
	VictimContact string `json:"victim_contact"`
}

type reportTransitionRequest struct {
	Status        string `json:"status"`
	AdminResponse string `json:"admin_response"`
}

func (a *API) handleReportCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createReport(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleReportResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/report/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if path == "user" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listOwnReports(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getReport(w, r, path)
	case http.MethodPatch:
		a.transitionReport(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) handleAdminReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, err := auth.Authorize(r.Context(), auth.CapabilityAdmin); err != nil {
		handleDomainError(w, r, err)
		return
	}

	var (
		items []report.Report
		err   error
	)
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := report.Status(strings.ToLower(raw))
		if !status.Valid() {
			writeError(w, r, http.StatusBadRequest, "unknown status filter")
			return
		}
		items, err = a.reports.ListByStatus(r.Context(), status)
	} else {
		items, err = a.reports.ListAll(r.Context())
	}
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}

func (a *API) createReport(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req createReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.reports.Create(r.Context(), identity.UserID, report.CreateInput{
		Category:      report.Category(req.Category),
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		EvidenceRef:   req.EvidenceRef,
		VictimName:    req.VictimName,
		VictimContact: req.VictimContact,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "report.create", map[string]any{
		"report_id": created.ID,
		"category":  string(created.Category),
	})
	writeJSON(w, http.StatusOK, created)
}

func (a *API) listOwnReports(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.reports.ListByAuthor(r.Context(), identity.UserID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated); err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.reports.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) transitionReport(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := auth.Authorize(r.Context(), auth.CapabilityAdmin); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req reportTransitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeError(w, r, http.StatusBadRequest, "status is required")
		return
	}

	updated, err := a.reports.Transition(r.Context(), id, report.Status(strings.ToLower(req.Status)), req.AdminResponse)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "report.transition", map[string]any{
		"report_id": updated.ID,
		"status":    string(updated.Status),
	})
	writeJSON(w, http.StatusOK, updated)
}
