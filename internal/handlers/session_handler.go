package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"investBack/internal/models"
	"investBack/internal/services"
)

type SessionHandler struct {
	Service *services.SessionService
}

func NewSessionHandler(s *services.SessionService) *SessionHandler {
	return &SessionHandler{Service: s}
}

// SignIn opens a session for a user already authenticated by the identity
// gateway in front of this service. pinConfigured is the identity profile's
// PIN flag, cached on the session for the authorization gate.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        string `json:"userId"`
		PinConfigured bool   `json:"pinConfigured"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	tokens, err := h.Service.CreateSession(r.Context(), req.UserID, req.PinConfigured)
	if err != nil {
		http.Error(w, "create session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokens)
}

// Refresh rotates the refresh token and issues a new access token.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tokens, err := h.Service.RefreshSession(r.Context(), req.RefreshToken)
	if err == models.ErrSessionNotFound {
		http.Error(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "refresh session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokens)
}

// Logout revokes the caller's session.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r)
	if !ok {
		http.Error(w, "session missing", http.StatusUnauthorized)
		return
	}
	if err := h.Service.Logout(r.Context(), session.ID); err != nil {
		http.Error(w, "logout: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
