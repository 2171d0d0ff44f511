package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/daylytics/daylytics/internal/api/auth"
	"github.com/daylytics/daylytics/internal/api/middleware"
	"github.com/daylytics/daylytics/pkg/models"
	"github.com/daylytics/daylytics/pkg/store"
)

// AuthHandler serves registration, login and token refresh.
type AuthHandler struct {
	store        store.Store
	jwtService   *auth.JWTService
	storageLimit int64
}

// NewAuthHandler creates an auth handler. storageLimit is the quota in
// bytes applied to newly registered accounts; zero uses the default.
func NewAuthHandler(st store.Store, jwtService *auth.JWTService, storageLimit int64) *AuthHandler {
	if storageLimit <= 0 {
		storageLimit = models.DefaultStorageLimit
	}
	return &AuthHandler{store: st, jwtService: jwtService, storageLimit: storageLimit}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	User   *models.User    `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Register creates a new account and returns a token pair.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		BadRequest(w, "Email is required")
		return
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		BadRequest(w, err.Error())
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		StorageLimit: h.storageLimit,
	}
	if err := user.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "An account with this email already exists")
			return
		}
		writeStorageError(w, err)
		return
	}

	tokens, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "Failed to generate tokens")
		return
	}

	WriteJSONCreated(w, &sessionResponse{User: user, Tokens: tokens})
}

// Login authenticates credentials and returns a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.store.ValidateCredentials(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			Unauthorized(w, "Invalid email or password")
			return
		}
		writeStorageError(w, err)
		return
	}

	tokens, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "Failed to generate tokens")
		return
	}

	WriteJSONOK(w, &sessionResponse{User: user, Tokens: tokens})
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		Unauthorized(w, "Invalid or expired refresh token")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		Unauthorized(w, "Account no longer exists")
		return
	}

	tokens, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "Failed to generate tokens")
		return
	}

	WriteJSONOK(w, &sessionResponse{User: user, Tokens: tokens})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	WriteJSONOK(w, user)
}
