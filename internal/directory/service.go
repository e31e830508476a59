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

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/facilityos/facilityos/internal/audit"
	"github.com/facilityos/facilityos/internal/authz"
	"github.com/facilityos/facilityos/internal/id"
	"github.com/facilityos/facilityos/internal/store"
	"github.com/facilityos/facilityos/internal/tenant"
)

// Service is the process-wide user directory cache. Every mutation
// re-reads the directory from the store, applies portal-guard checks,
// and persists the full updated list in a single write. A mutex
// serializes those read-modify-write cycles so concurrent request
// goroutines cannot lose each other's writes.
//
// Deployments that share one store file between multiple processes
// still need an explicit cross-process write policy.
type Service struct {
	store       store.Store
	auditLogger audit.Logger

	// mu guards the load-mutate-save cycle of every mutation below.
	mu sync.Mutex
}

// NewService creates a directory service over an injected store handle.
func NewService(s store.Store, auditLogger audit.Logger) *Service {
	return &Service{
		store:       s,
		auditLogger: auditLogger,
	}
}

// Load reads the full directory. An absent or malformed store entry
// yields an empty directory, never an error.
func (s *Service) Load(ctx context.Context) ([]User, error) {
	raw, found, err := s.store.Get(ctx, store.KeyUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to read user directory: %w", err)
	}
	if !found {
		return []User{}, nil
	}
	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return []User{}, nil
	}
	return users, nil
}

// Save persists the full directory in one atomic write.
func (s *Service) Save(ctx context.Context, users []User) error {
	encoded, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to encode user directory: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyUsers, string(encoded)); err != nil {
		return fmt.Errorf("failed to persist user directory: %w", err)
	}
	return nil
}

// FilterForSession narrows the directory to the caller's tenant scope.
// Admin and colleague sessions see the unfiltered directory. Vendor
// sessions see only records of their own vendor; a vendor session
// without a vendor ID gets an empty list, a fail-safe rather than a bug.
func (s *Service) FilterForSession(actor Actor, users []User) []User {
	if actor.Portal != tenant.PortalVendor {
		return users
	}
	if actor.VendorID == "" {
		return []User{}
	}
	scoped := make([]User, 0, len(users))
	for _, u := range users {
		if tenant.VendorScopeMatches(actor.VendorID, u.VendorID) {
			scoped = append(scoped, u)
		}
	}
	return scoped
}

// ListForActor loads the directory and applies the caller's tenant filter.
func (s *Service) ListForActor(ctx context.Context, actor Actor) ([]User, error) {
	if actor.UserID == "" {
		return nil, ErrNoSession
	}
	users, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.FilterForSession(actor, users), nil
}

// GetByEmail resolves a user by email, case-insensitively.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	users, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// GetByID resolves a user by its stable identifier.
func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	users, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].UserID == userID {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// CreateUser adds a new identity record. Vendor-portal callers may only
// create users inside their own vendor scope; portal is derived from the
// role, and permissions default from the role template.
func (s *Service) CreateUser(ctx context.Context, actor Actor, nu NewUser) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor.UserID == "" {
		return nil, ErrNoSession
	}
	if strings.TrimSpace(nu.FullName) == "" {
		return nil, ErrFullNameRequired
	}
	if strings.TrimSpace(nu.Email) == "" {
		return nil, ErrEmailRequired
	}
	if !authz.ValidRole(nu.Role) || nu.Role == authz.RoleMainAdmin {
		return nil, ErrInvalidRole
	}

	portal := tenant.PortalForRole(nu.Role)
	if portal == tenant.PortalVendor && nu.VendorID == "" {
		return nil, ErrVendorIDRequired
	}

	if actor.Portal == tenant.PortalVendor {
		if !tenant.SamePortal(actor.Portal, portal) {
			return nil, ErrCrossTenant
		}
		if !tenant.VendorScopeMatches(actor.VendorID, nu.VendorID) {
			return nil, ErrCrossTenant
		}
	}

	users, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, nu.Email) {
			return nil, ErrEmailExists
		}
	}

	user := User{
		UserID:      id.NewUUIDv7(),
		FullName:    strings.TrimSpace(nu.FullName),
		Email:       strings.ToLower(strings.TrimSpace(nu.Email)),
		Role:        nu.Role,
		Portal:      portal,
		VendorID:    nu.VendorID,
		BranchIDs:   nu.BranchIDs,
		Status:      StatusActive,
		Permissions: authz.DefaultPermissionsFor(nu.Role),
		CreatedBy:   actor.UserID,
		CreatedAt:   time.Now().UTC(),
	}
	users = append(users, user)
	if err := s.Save(ctx, users); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeUserCreated,
		ActorID:   actor.UserID,
		ActorName: actor.FullName,
		Portal:    string(actor.Portal),
		Resource:  "user:" + user.UserID,
		Summary:   fmt.Sprintf("created %s (%s) as %s", user.FullName, user.Email, user.Role),
	})
	return &user, nil
}

// UpdateUser merges a partial patch into an existing record. The main
// administrator record is never mutable, and vendor callers stay inside
// their own vendor scope.
func (s *Service) UpdateUser(ctx context.Context, actor Actor, userID string, patch Patch) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor.UserID == "" {
		return nil, ErrNoSession
	}
	if userID == MainAdminUserID {
		return nil, ErrPrivilegedTarget
	}

	users, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(users, userID)
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	target := users[idx]

	if actor.Portal == tenant.PortalVendor && !tenant.VendorScopeMatches(actor.VendorID, target.VendorID) {
		return nil, ErrCrossTenant
	}

	var changes []string
	if patch.FullName != nil && *patch.FullName != target.FullName {
		changes = append(changes, fmt.Sprintf("fullName %q -> %q", target.FullName, *patch.FullName))
		target.FullName = *patch.FullName
	}
	if patch.Email != nil && !strings.EqualFold(*patch.Email, target.Email) {
		next := strings.ToLower(strings.TrimSpace(*patch.Email))
		for i := range users {
			if i != idx && strings.EqualFold(users[i].Email, next) {
				return nil, ErrEmailExists
			}
		}
		changes = append(changes, fmt.Sprintf("email %q -> %q", target.Email, next))
		target.Email = next
	}
	if patch.Status != nil && *patch.Status != target.Status {
		if *patch.Status != StatusActive && *patch.Status != StatusDisabled {
			return nil, fmt.Errorf("invalid status %q", *patch.Status)
		}
		changes = append(changes, fmt.Sprintf("status %s -> %s", target.Status, *patch.Status))
		target.Status = *patch.Status
	}
	if patch.BranchIDs != nil {
		changes = append(changes, fmt.Sprintf("branches -> %s", strings.Join(patch.BranchIDs, ",")))
		target.BranchIDs = patch.BranchIDs
	}

	if len(changes) == 0 {
		return &target, nil
	}

	users[idx] = target
	if err := s.Save(ctx, users); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeUserUpdated,
		ActorID:   actor.UserID,
		ActorName: actor.FullName,
		Portal:    string(actor.Portal),
		Resource:  "user:" + target.UserID,
		Summary:   fmt.Sprintf("updated %s: %s", target.Email, strings.Join(changes, "; ")),
	})
	return &target, nil
}

// DeleteUser removes a record. The main administrator and the caller's
// own record are never deletable.
func (s *Service) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor.UserID == "" {
		return ErrNoSession
	}
	if userID == MainAdminUserID {
		return ErrPrivilegedTarget
	}
	if userID == actor.UserID {
		return ErrSelfDelete
	}

	users, err := s.Load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(users, userID)
	if idx < 0 {
		return ErrUserNotFound
	}
	target := users[idx]

	if actor.Portal == tenant.PortalVendor && !tenant.VendorScopeMatches(actor.VendorID, target.VendorID) {
		return ErrCrossTenant
	}

	users = append(users[:idx], users[idx+1:]...)
	if err := s.Save(ctx, users); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeUserDeleted,
		ActorID:   actor.UserID,
		ActorName: actor.FullName,
		Portal:    string(actor.Portal),
		Resource:  "user:" + target.UserID,
		Summary:   fmt.Sprintf("deleted %s (%s)", target.FullName, target.Email),
	})
	return nil
}

// SetUserPermissions replaces a record's permission grant. Vendor
// callers may only touch their own vendor's users and, independent of
// any action grant they hold, may never hand out admin-exclusive pages.
func (s *Service) SetUserPermissions(ctx context.Context, actor Actor, userID string, perms *authz.Permissions) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor.UserID == "" {
		return nil, ErrNoSession
	}
	if userID == MainAdminUserID {
		return nil, ErrPrivilegedTarget
	}

	if actor.Portal == tenant.PortalVendor {
		for page, granted := range perms.Pages {
			if granted && tenant.IsAdminExclusivePage(page) {
				return nil, ErrPermissionEscalation
			}
		}
	}

	users, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(users, userID)
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	target := users[idx]

	if actor.Portal == tenant.PortalVendor && !tenant.VendorScopeMatches(actor.VendorID, target.VendorID) {
		return nil, ErrCrossTenant
	}

	next := perms.Clone()
	next.Normalize()
	summary := summarizePermissionDelta(target.Permissions, next)
	target.Permissions = next
	users[idx] = target
	if err := s.Save(ctx, users); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypePermissionsEdited,
		ActorID:   actor.UserID,
		ActorName: actor.FullName,
		Portal:    string(actor.Portal),
		Resource:  "user:" + target.UserID,
		Summary:   fmt.Sprintf("permissions for %s: %s", target.Email, summary),
	})
	return &target, nil
}

// LoadBranches reads the branch list, falling back to empty on absent or
// malformed data.
func (s *Service) LoadBranches(ctx context.Context) ([]Branch, error) {
	raw, found, err := s.store.Get(ctx, store.KeyBranches)
	if err != nil {
		return nil, fmt.Errorf("failed to read branches: %w", err)
	}
	if !found {
		return []Branch{}, nil
	}
	var branches []Branch
	if err := json.Unmarshal([]byte(raw), &branches); err != nil {
		return []Branch{}, nil
	}
	return branches, nil
}

// SaveBranches persists the branch list in one write.
func (s *Service) SaveBranches(ctx context.Context, branches []Branch) error {
	encoded, err := json.Marshal(branches)
	if err != nil {
		return fmt.Errorf("failed to encode branches: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyBranches, string(encoded)); err != nil {
		return fmt.Errorf("failed to persist branches: %w", err)
	}
	return nil
}

func indexOf(users []User, userID string) int {
	for i := range users {
		if users[i].UserID == userID {
			return i
		}
	}
	return -1
}

// summarizePermissionDelta renders a short human-readable description of
// which flags flipped between two grants.
func summarizePermissionDelta(old, next *authz.Permissions) string {
	var flipped []string
	for _, page := range authz.AllPageKeys {
		before := authz.HasPagePermission(old, page)
		after := authz.HasPagePermission(next, page)
		if before != after {
			flipped = append(flipped, fmt.Sprintf("pages.%s=%t", page, after))
		}
	}
	for mod, actions := range authz.ModuleActions {
		for _, act := range actions {
			before := authz.HasActionPermission(old, mod, act)
			after := authz.HasActionPermission(next, mod, act)
			if before != after {
				flipped = append(flipped, fmt.Sprintf("%s.%s=%t", mod, act, after))
			}
		}
	}
	if len(flipped) == 0 {
		return "no changes"
	}
	return strings.Join(flipped, ", ")
}
