package httpapi

import (
	"net/http"

	"securegate.org/internal/audit"
	"securegate.org/internal/auth"
)

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	UnitNumber  string `json:"unit_number"`
	PhoneNumber string `json:"phone_number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileUpdateRequest struct {
	Name        *string `json:"name"`
	UnitNumber  *string `json:"unit_number"`
	PhoneNumber *string `json:"phone_number"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.accounts.Register(r.Context(), auth.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        auth.Role(req.Role),
		UnitNumber:  req.UnitNumber,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": session.User.ID,
		"role":    string(session.User.Role),
	})
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": session.User.ID,
	})
	writeJSON(w, http.StatusOK, session)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	user, err := a.accounts.Profile(r.Context(), identity.UserID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.Authorize(r.Context(), auth.CapabilityAuthenticated)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := a.accounts.Profile(r.Context(), identity.UserID)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		var req profileUpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.accounts.UpdateProfile(r.Context(), identity.UserID, auth.UserUpdate{
			Name:        req.Name,
			UnitNumber:  req.UnitNumber,
			PhoneNumber: req.PhoneNumber,
		})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "auth.profile.update", nil)
		writeJSON(w, http.StatusOK, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}
