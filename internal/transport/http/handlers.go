// Copyright 2026 The FacilityOS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/facilityos/facilityos/internal/authz"
	"github.com/facilityos/facilityos/internal/directory"
	"github.com/facilityos/facilityos/internal/observability/logger"
	"github.com/facilityos/facilityos/internal/observability/metrics"
	"github.com/facilityos/facilityos/internal/session"
)

// Handler bundles the collaborators the HTTP surface exposes.
type Handler struct {
	sessions  *session.Manager
	directory *directory.Service
	metrics   *metrics.AuthMetrics
}

// NewHandler creates the HTTP handler set.
func NewHandler(sessions *session.Manager, dir *directory.Service, authMetrics *metrics.AuthMetrics) *Handler {
	return &Handler{
		sessions:  sessions,
		directory: dir,
		metrics:   authMetrics,
	}
}

// NewRouter assembles the chi router with the shared middleware stack.
func NewRouter(h *Handler, rateLimiter *RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/pin-login", h.PINLogin)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireSession)
				r.Post("/logout", h.Logout)
				r.Post("/switch-role", h.SwitchRole)
				r.Get("/session", h.GetSession)
				r.Get("/route-access", h.RouteAccess)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Get("/branches", h.ListBranches)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Use(h.RequirePage(authz.PageUserManagement))
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Patch("/{userID}", h.UpdateUser)
			r.Delete("/{userID}", h.DeleteUser)
			r.Put("/{userID}/permissions", h.SetUserPermissions)
		})
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "facilityos",
	})
}

// LoginRequest carries a portal login.
type LoginRequest struct {
	Email string `json:"email"`
}

// Login resolves a directory identity and installs its session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	sess, err := h.sessions.Login(r.Context(), req.Email)
	if err != nil {
		h.metrics.RecordLoginDenied(r.Context())
		switch {
		case errors.Is(err, directory.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "no user with this email")
		case errors.Is(err, session.ErrUserDisabled):
			respondError(w, http.StatusForbidden, "this account is disabled")
		default:
			slog.ErrorContext(r.Context(), "login failed", logger.Error(err), logger.Email(req.Email))
			respondError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	h.metrics.RecordLogin(r.Context(), string(sess.Portal))
	respondJSON(w, http.StatusOK, sess)
}

// PINLoginRequest carries the main administrator PIN.
type PINLoginRequest struct {
	PIN string `json:"pin"`
}

// PINLogin authenticates the main administrator.
func (h *Handler) PINLogin(w http.ResponseWriter, r *http.Request) {
	var req PINLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PIN == "" {
		respondError(w, http.StatusBadRequest, "pin is required")
		return
	}

	sess, err := h.sessions.LoginAsMainAdmin(r.Context(), req.PIN)
	if err != nil {
		h.metrics.RecordLoginDenied(r.Context())
		if errors.Is(err, session.ErrInvalidPin) {
			respondError(w, http.StatusUnauthorized, "invalid PIN")
			return
		}
		slog.ErrorContext(r.Context(), "admin login failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.metrics.RecordLogin(r.Context(), string(sess.Portal))
	respondJSON(w, http.StatusOK, sess)
}

// Logout clears the active session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// SwitchRoleRequest names the role an admin session wants to act as.
type SwitchRoleRequest struct {
	Role authz.Role `json:"role"`
}

// SwitchRole lets an admin-portal session act as an allow-listed role.
func (h *Handler) SwitchRole(w http.ResponseWriter, r *http.Request) {
	var req SwitchRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Role == "" {
		respondError(w, http.StatusBadRequest, "role is required")
		return
	}

	sess, err := h.sessions.SwitchRole(r.Context(), req.Role)
	if err != nil {
		if errors.Is(err, session.ErrRoleSwitchNotAllowed) {
			respondError(w, http.StatusForbidden, "role switch not permitted")
			return
		}
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// GetSession returns the active session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sessions.Current())
}

// RouteAccess resolves a navigational path to its gating page key and
// reports whether the active session may reach it. The UI router calls
// this before navigating.
func (h *Handler) RouteAccess(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "path is required")
		return
	}

	sess := h.sessions.Current()
	page, routed := authz.RouteToPageKey(path)
	if !routed {
		// Unrouted paths are outside the gated surface.
		respondJSON(w, http.StatusOK, map[string]any{"allowed": false, "routed": false})
		return
	}

	allowed := authz.HasPagePermission(sess.Permissions, page)
	if !allowed {
		h.metrics.RecordAccessDenied(r.Context(), string(page))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"allowed": allowed,
		"routed":  true,
		"page":    page,
	})
}

// ListUsers returns the directory narrowed to the caller's tenant scope.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.ListForActor(r.Context(), h.sessions.Current().Actor())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// CreateUserRequest carries a user creation.
type CreateUserRequest struct {
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Role      authz.Role `json:"role"`
	VendorID  string     `json:"vendorId,omitempty"`
	BranchIDs []string   `json:"branchIds,omitempty"`
}

// CreateUser adds a directory record.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Current()
	if !h.requireAction(w, r, sess, authz.ModuleUsers, authz.ActionCreate) {
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.directory.CreateUser(r.Context(), sess.Actor(), directory.NewUser{
		FullName:  req.FullName,
		Email:     req.Email,
		Role:      req.Role,
		VendorID:  req.VendorID,
		BranchIDs: req.BranchIDs,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// UpdateUserRequest is a partial patch; absent fields stay untouched.
type UpdateUserRequest struct {
	FullName  *string  `json:"fullName,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Status    *string  `json:"status,omitempty"`
	BranchIDs []string `json:"branchIds,omitempty"`
}

// UpdateUser merges a partial patch into a record.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Current()
	if !h.requireAction(w, r, sess, authz.ModuleUsers, authz.ActionEdit) {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.directory.UpdateUser(r.Context(), sess.Actor(), chi.URLParam(r, "userID"), directory.Patch{
		FullName:  req.FullName,
		Email:     req.Email,
		Status:    req.Status,
		BranchIDs: req.BranchIDs,
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteUser removes a record.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Current()
	if !h.requireAction(w, r, sess, authz.ModuleUsers, authz.ActionDelete) {
		return
	}

	if err := h.directory.DeleteUser(r.Context(), sess.Actor(), chi.URLParam(r, "userID")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SetUserPermissions replaces a record's permission grant.
func (h *Handler) SetUserPermissions(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Current()
	if !h.requireAction(w, r, sess, authz.ModuleUsers, authz.ActionManagePermissions) {
		return
	}

	var perms authz.Permissions
	if err := json.NewDecoder(r.Body).Decode(&perms); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.directory.SetUserPermissions(r.Context(), sess.Actor(), chi.URLParam(r, "userID"), &perms)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ListBranches returns the seeded branch list.
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.directory.LoadBranches(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load branches")
		return
	}
	respondJSON(w, http.StatusOK, branches)
}

// requireAction checks one action grant of the active session, counting
// and reporting a denial.
func (h *Handler) requireAction(w http.ResponseWriter, r *http.Request, sess *session.Session, module authz.ModuleKey, action authz.ActionKey) bool {
	if authz.HasActionPermission(sess.Permissions, module, action) {
		return true
	}
	h.metrics.RecordAccessDenied(r.Context(), string(module)+"."+string(action))
	respondError(w, http.StatusForbidden, "action not permitted")
	return false
}

// respondDomainError maps directory errors to HTTP statuses with a
// specific reason string.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, directory.ErrNoSession):
		respondError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, directory.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, directory.ErrEmailExists):
		respondError(w, http.StatusConflict, "a user with this email already exists")
	case errors.Is(err, directory.ErrCrossTenant):
		h.metrics.RecordAccessDenied(r.Context(), "tenant")
		respondError(w, http.StatusForbidden, "operation crosses tenant boundary")
	case errors.Is(err, directory.ErrPrivilegedTarget):
		respondError(w, http.StatusForbidden, "the main administrator record cannot be modified")
	case errors.Is(err, directory.ErrSelfDelete):
		respondError(w, http.StatusForbidden, "you cannot delete your own account")
	case errors.Is(err, directory.ErrPermissionEscalation):
		h.metrics.RecordAccessDenied(r.Context(), "escalation")
		respondError(w, http.StatusForbidden, "vendor users cannot grant admin-only page access")
	case errors.Is(err, directory.ErrInvalidRole),
		errors.Is(err, directory.ErrVendorIDRequired),
		errors.Is(err, directory.ErrEmailRequired),
		errors.Is(err, directory.ErrFullNameRequired):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "directory operation failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
