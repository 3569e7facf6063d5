package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/hostel/internal/apperr"
	"github.com/mmynk/hostel/internal/auth"
	"github.com/mmynk/hostel/internal/storage"
)

// ObtainToken exchanges a username and password for an access and a refresh token.
func (h *Handler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var errs fieldErrors
	username, _, ferr := stringField(body, "username", true, 0)
	errs.push(ferr)
	password, _, ferr := stringField(body, "password", true, 0)
	errs.push(ferr)
	if err := errs.orNil(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authenticator.Authenticate(r.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		slog.Warn("Login failed", "username", username)
		writeError(w, r, apperr.New(apperr.Unauthenticated, "%s", err.Error()))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := h.jwt.Pair(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.SetLastLogin(r.Context(), user.ID, time.Now().UTC()); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("User logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, pair)
}

// RefreshToken exchanges a refresh token for a new access token.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	refresh, _, ferr := stringField(body, "refresh", true, 0)
	if ferr != nil {
		writeError(w, r, ferr)
		return
	}

	claims, err := h.jwt.Validate(refresh, auth.RefreshToken)
	if err != nil {
		writeError(w, r, apperr.New(apperr.Unauthenticated, "%s", auth.ErrInvalidToken.Error()))
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !user.IsActive) {
		writeError(w, r, apperr.New(apperr.Unauthenticated, "user not found or inactive"))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	access, err := h.jwt.Generate(user, auth.AccessToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}
