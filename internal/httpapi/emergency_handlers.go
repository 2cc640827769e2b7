package httpapi

import (
	"context"
	"net/http"
	"strings"

	"securegate.org/internal/audit"
	"securegate.org/internal/auth"
	"securegate.org/internal/emergency"
	"securegate.org/internal/obs"
)

type createEmergencyRequest struct {
	Type     string `json:"type"`
	Location string `json:"location"`
}

type emergencyTransitionRequest struct {
	Status        string `json:"status"`
	ResponseNotes string `json:"response_notes"`
}

func (a *API) handleEmergencyCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createEmergency(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleEmergencyResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/emergency/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch path {
	case "user":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listOwnEmergencies(w, r)
		return
	case "admin":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listActiveEmergencies(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getEmergency(w, r, path)
	case http.MethodPatch:
		a.transitionEmergency(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) handleAdminEmergencies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, err := auth.Authorize(r.Context(), auth.CapabilityAdmin); err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.emergencies.ListAll(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}

func (a *API) createEmergency(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req createEmergencyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.emergencies.Create(r.Context(), identity.UserID, emergency.Type(req.Type), req.Location)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	a.refreshActiveGauge(r.Context())
	_ = audit.LogEvent(r.Context(), "emergency.create", map[string]any{
		"emergency_id": created.ID,
		"type":         string(created.Type),
	})
	writeJSON(w, http.StatusOK, created)
}

func (a *API) listOwnEmergencies(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.emergencies.ListByAuthor(r.Context(), identity.UserID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}

// listActiveEmergencies is the admin response queue: active alerts only.
func (a *API) listActiveEmergencies(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.Authorize(r.Context(), auth.CapabilityAdmin); err != nil {
		handleDomainError(w, r, err)
		return
	}
	items, err := a.emergencies.ListActive(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items)})
}

func (a *API) getEmergency(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated); err != nil {
		handleDomainError(w, r, err)
		return
	}
	item, err := a.emergencies.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) transitionEmergency(w http.ResponseWriter, r *http.Request, id string) {
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAdmin)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req emergencyTransitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeError(w, r, http.StatusBadRequest, "status is required")
		return
	}

	updated, err := a.emergencies.Transition(r.Context(), id, identity.UserID, emergency.Status(strings.ToLower(req.Status)), req.ResponseNotes)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	a.refreshActiveGauge(r.Context())
	_ = audit.LogEvent(r.Context(), "emergency.transition", map[string]any{
		"emergency_id": updated.ID,
		"status":       string(updated.Status),
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) refreshActiveGauge(ctx context.Context) {
	if items, err := a.emergencies.ListActive(ctx); err == nil {
		obs.SetActiveEmergencies(len(items))
	}
}
