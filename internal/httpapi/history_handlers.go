package httpapi

import (
	"net/http"

	"securegate.org/internal/audit"
	"securegate.org/internal/auth"
)

type createFeedbackRequest struct {
	Message  string `json:"message"`
	Rating   int    `json:"rating"`
	Category string `json:"category"`
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	view, err := a.history.For(r.Context(), identity)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleFeedback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createFeedback(w, r)
	case http.MethodGet:
		a.listFeedback(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createFeedback(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req createFeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := a.feedbacks.Create(r.Context(), identity.UserID, req.Message, req.Rating, req.Category)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "feedback.create", map[string]any{
		"feedback_id": entry.ID,
	})
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) listFeedback(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.Authorize(r.Context(), auth.CapabilityAdmin); err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.feedbacks.ListAll(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}
