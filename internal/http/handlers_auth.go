package http

import (
	"errors"
	"net/http"
	"strings"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/log"
)

type signupRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	WhatsAppNumber string `json:"whatsapp_number,omitempty"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type userView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	WhatsAppNumber string `json:"whatsapp_number,omitempty"`
	Currency       string `json:"currency"`
}

func viewUser(u core.User) userView {
	return userView{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		WhatsAppNumber: u.WhatsAppNumber,
		Currency:       u.Currency,
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = sanitizeInput(req.Name)
	req.Email = strings.ToLower(sanitizeInput(req.Email))
	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusUnprocessableEntity, "name and valid email are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to hash password", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := s.accounts.CreateUser(r.Context(), core.User{
		Name:           req.Name,
		Email:          req.Email,
		WhatsAppNumber: sanitizeInput(req.WhatsAppNumber),
	}, hash)
	if err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email or whatsapp number already registered")
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to create user", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to issue token", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: viewUser(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(sanitizeInput(req.Email))
	user, hash, err := s.accounts.UserByEmail(r.Context(), email)
	if err != nil || !auth.CheckPassword(hash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to issue token", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: viewUser(user)})
}
