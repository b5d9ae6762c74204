package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hongminglow/storefront-be/internal/auth"
	"github.com/hongminglow/storefront-be/internal/http/respond"
	"github.com/hongminglow/storefront-be/internal/models"
	"github.com/hongminglow/storefront-be/internal/models/dto"
	"github.com/hongminglow/storefront-be/internal/storage"
)

// UsersHandler serves the caller's profile and the admin user listing.
type UsersHandler struct {
	store     storage.UserStore
	validator *auth.Validator
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(store storage.UserStore, validator *auth.Validator) *UsersHandler {
	return &UsersHandler{store: store, validator: validator}
}

// Register attaches profile routes for any session and admin routes for admin sessions.
func (h *UsersHandler) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.validator.RequireSession(models.Roles...))
			r.Get("/profile", h.handleGetProfile)
			r.Put("/profile", h.handleUpdateProfile)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.validator.RequireSession(models.Roles...), auth.RequireRole(models.RoleAdmin))
			r.Get("/", h.handleList)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

func (h *UsersHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	user, err := h.store.FindByID(r.Context(), id.UserID)
	if err != nil {
		writeError(w, zerolog.Ctx(r.Context()), err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}

func (h *UsersHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	var req dto.UpdateProfileRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.ErrBadPayload.Error())
		return
	}
	update := models.ProfileUpdate{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	}
	if addr, err := mail.ParseAddress(update.Email); update.Email != "" && (err != nil || addr.Address != update.Email) {
		respond.Error(w, http.StatusBadRequest, "email address is malformed")
		return
	}
	user, err := h.store.UpdateProfile(r.Context(), id.UserID, update)
	if err != nil {
		writeError(w, zerolog.Ctx(r.Context()), err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", user)
}

func (h *UsersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, zerolog.Ctx(r.Context()), err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", users)
}

func (h *UsersHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	// Role comes from the token; re-checked here on every call.
	caller, ok := auth.FromContext(r.Context())
	if !ok || !caller.IsAdmin() {
		respond.Error(w, http.StatusForbidden, auth.ErrForbidden.Error())
		return
	}
	target := chi.URLParam(r, "id")
	if err := h.store.DeleteUser(r.Context(), target); err != nil {
		writeError(w, zerolog.Ctx(r.Context()), err)
		return
	}
	zerolog.Ctx(r.Context()).Info().Str("user_id", target).Str("deleted_by", caller.UserID).Msg("user deleted")
	w.WriteHeader(http.StatusNoContent)
}
