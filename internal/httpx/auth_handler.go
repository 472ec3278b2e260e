package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopkit/storefront/internal/auth"
)

type AuthHandler struct {
	Svc *auth.Service
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.Svc.Register(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields), errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Printf("register: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusCreated, u)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, token, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case err != nil:
		log.Printf("login: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"user": u, "token": token})
	}
}
