package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"thaniel-pos-services/internal/auth"
	"thaniel-pos-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload loginPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(payload.Email) == "" {
		fields["email"] = "Email is required"
	}
	if payload.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	var (
		userID       int64
		name         string
		role         string
		passwordHash string
	)
	err := h.DB.QueryRow(ctx, `
		select id, name, role, password_hash
		from users
		where lower(email) = lower($1)
	`, payload.Email).Scan(&userID, &name, &role, &passwordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(payload.Password)) != nil {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	expiry := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, err := auth.SignAccessToken(userID, auth.UserRole(role), name, h.Config.JWTSecret, expiry)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":   userID,
			"name": name,
			"role": role,
		},
	})
}
