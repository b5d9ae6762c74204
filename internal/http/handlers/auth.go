package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hongminglow/storefront-be/internal/auth"
	"github.com/hongminglow/storefront-be/internal/http/respond"
	"github.com/hongminglow/storefront-be/internal/middleware"
	"github.com/hongminglow/storefront-be/internal/models"
	"github.com/hongminglow/storefront-be/internal/models/dto"
)

// AuthHandler owns the register, login and logout endpoints.
type AuthHandler struct {
	authority *auth.Authority
	validator *auth.Validator
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authority *auth.Authority, validator *auth.Validator) *AuthHandler {
	return &AuthHandler{authority: authority, validator: validator}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.With(h.validator.OptionalSession(models.RoleAdmin)).Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.ErrBadPayload.Error())
		return
	}

	var actor *auth.Identity
	if id, ok := auth.FromContext(r.Context()); ok {
		actor = &id
	}
	created, err := h.authority.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, actor)
	if err != nil {
		writeError(w, zerolog.Ctx(r.Context()), err)
		return
	}
	respond.JSON(w, http.StatusCreated, "user created successfully", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.ErrBadPayload.Error())
		return
	}
	session, err := h.authority.Authenticate(r.Context(), auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
		ClientIP: middleware.ClientIP(r),
	})
	if err != nil {
		writeError(w, zerolog.Ctx(r.Context()), err)
		return
	}
	if err := h.authority.IssueSession(w, session); err != nil {
		writeError(w, zerolog.Ctx(r.Context()), err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{UserID: session.Identity.UserID})
}

// handleLogout clears one channel: the one named by ?channel=, else the caller's session channel
// (customer before admin), else the customer channel. The admin dashboard sends ?channel=admin.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	role := models.RoleCustomer
	if channel := r.URL.Query().Get("channel"); channel != "" {
		role = models.Role(channel)
	} else if id, err := h.validator.FromRequest(r, models.Roles...); err == nil {
		role = id.Role
	}
	if err := h.authority.Logout(w, role); err != nil {
		writeError(w, zerolog.Ctx(r.Context()), err)
		return
	}
	respond.JSON(w, http.StatusOK, "user logged out successfully", nil)
}
