package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/dittodrive/internal/api/auth"
	"github.com/marmos91/dittodrive/pkg/api/middleware"
	"github.com/marmos91/dittodrive/pkg/models"
	"github.com/marmos91/dittodrive/pkg/store"
)

// AuthHandler handles authentication-related API endpoints.
type AuthHandler struct {
	store      store.Store
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s store.Store, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		store:      s,
		jwtService: jwtService,
	}
}

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response body for POST /api/auth/login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

// MessageResponse is a plain informational response body.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /api/auth/register.
// Creates a new account and returns the sanitized user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	if err := models.ValidatePassword(req.Password); err != nil {
		BadRequest(w, err.Error())
		return
	}

	user := &models.User{
		Username: req.Username,
		FullName: req.FullName,
		IsActive: true,
	}
	if req.Email != "" {
		user.Email = &req.Email
	}
	if err := user.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Probe both unique columns up front for precise conflict details; the
	// store constraint still catches races.
	if _, err := h.store.GetUserByUsername(r.Context(), req.Username); err == nil {
		Conflict(w, "Username already registered")
		return
	} else if !errors.Is(err, models.ErrUserNotFound) {
		InternalServerError(w, "Registration failed")
		return
	}
	if req.Email != "" {
		if _, err := h.store.GetUserByEmail(r.Context(), req.Email); err == nil {
			Conflict(w, "Email already registered")
			return
		} else if !errors.Is(err, models.ErrUserNotFound) {
			InternalServerError(w, "Registration failed")
			return
		}
	}

	passwordHash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to hash password")
		return
	}
	user.PasswordHash = passwordHash

	id, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "User already exists")
			return
		}
		InternalServerError(w, "Registration failed")
		return
	}

	created, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		InternalServerError(w, "Registration failed")
		return
	}

	WriteJSONCreated(w, created)
}

// Login handles POST /api/auth/login.
// Authenticates user credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	user, err := h.store.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			Unauthorized(w, "Invalid username or password")
			return
		}
		if errors.Is(err, models.ErrUserDisabled) {
			BadRequest(w, "Inactive user")
			return
		}
		InternalServerError(w, "Authentication failed")
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		InternalServerError(w, "Failed to generate token")
		return
	}

	WriteJSONOK(w, LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
		ExpiresAt:   token.ExpiresAt,
		User:        user,
	})
}

// Me handles GET /api/auth/me.
// Returns the current authenticated user's information.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	WriteJSONOK(w, user)
}

// Logout handles POST /api/auth/logout.
// Token issuance is stateless, so logout is a client-side operation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, MessageResponse{
		Message: "Logged out. Discard the stored access token client-side.",
	})
}
