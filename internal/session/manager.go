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

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/facilityos/facilityos/internal/audit"
	"github.com/facilityos/facilityos/internal/authz"
	"github.com/facilityos/facilityos/internal/directory"
	"github.com/facilityos/facilityos/internal/store"
	"github.com/facilityos/facilityos/internal/tenant"
)

// DefaultMainAdminPIN is the documented fallback compared against when
// no PIN was ever persisted.
const DefaultMainAdminPIN = "123456"

// State of the manager's lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateRestoring     State = "restoring"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// switchableRoles is the fixed allow-list for role switching. The switch
// models an admin-portal manager acting as a more senior role for demo
// and test purposes; it is intentionally not a general role-assignment
// mechanism.
var switchableRoles = map[authz.Role]bool{
	authz.RoleFacilityManager:  true,
	authz.RoleHeadOfFacilities: true,
}

// Manager owns the single authenticated session of the process and its
// lifecycle: bootstrap seeding, restoration from the store, login,
// role switching, and logout. The HTTP surface calls it from concurrent
// request goroutines, so a mutex serializes lifecycle transitions;
// installed Session values are never mutated after publication.
type Manager struct {
	store       store.Store
	directory   *directory.Service
	auditLogger audit.Logger

	mu      sync.RWMutex
	state   State
	current *Session
}

// NewManager creates a session manager over injected collaborators.
func NewManager(s store.Store, dir *directory.Service, auditLogger audit.Logger) *Manager {
	return &Manager{
		store:       s,
		directory:   dir,
		auditLogger: auditLogger,
		state:       StateUninitialized,
	}
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the active session, or nil when anonymous.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Bootstrap idempotently seeds the default main-administrator PIN, the
// initial user directory, and the branch list. Existing data is never
// overwritten; running bootstrap twice is indistinguishable from running
// it once.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if _, found, err := m.store.Get(ctx, store.KeyAdminPIN); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	} else if !found {
		if err := m.store.Set(ctx, store.KeyAdminPIN, DefaultMainAdminPIN); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}

	if _, found, err := m.store.Get(ctx, store.KeyUsers); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	} else if !found {
		if err := m.directory.Save(ctx, bootstrapUsers()); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		slog.InfoContext(ctx, "seeded bootstrap user directory", "users", len(bootstrapUsers()))
	}

	if _, found, err := m.store.Get(ctx, store.KeyBranches); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	} else if !found {
		if err := m.directory.SaveBranches(ctx, bootstrapBranches()); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}

	return nil
}

// Restore reads a previously persisted session and validates its
// integrity before trusting it. A corrupted or inconsistent value is
// cleared from the store and the manager lands anonymous; restoration
// never fails the process.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateRestoring

	raw, found, err := m.store.Get(ctx, store.KeySession)
	if err != nil {
		return fmt.Errorf("failed to read persisted session: %w", err)
	}
	if !found {
		m.state = StateAnonymous
		m.current = nil
		return nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		slog.WarnContext(ctx, "discarding malformed persisted session", "error", err.Error())
		m.clearStoredSession(ctx)
		m.state = StateAnonymous
		return nil
	}
	if err := sess.Validate(); err != nil {
		slog.WarnContext(ctx, "discarding persisted session that failed integrity validation")
		m.clearStoredSession(ctx)
		m.state = StateAnonymous
		return nil
	}

	sess.Permissions.Normalize()
	m.current = &sess
	m.state = StateAuthenticated
	return nil
}

// Login resolves a directory user by email and installs a session for
// it. Permissions are snapshotted; an identity missing its permissions
// field gets them re-derived from the role template instead of failing.
func (m *Manager) Login(ctx context.Context, email string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.directory.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Status == directory.StatusDisabled {
		return nil, ErrUserDisabled
	}

	perms := user.Permissions
	if perms == nil {
		perms = authz.DefaultPermissionsFor(user.Role)
	} else {
		perms = perms.Clone()
		perms.Normalize()
	}

	sess := &Session{
		UserID:      user.UserID,
		FullName:    user.FullName,
		Role:        user.Role,
		Portal:      user.Portal,
		VendorID:    user.VendorID,
		BranchIDs:   user.BranchIDs,
		Permissions: perms,
		LoggedInAt:  time.Now().UTC(),
	}
	if err := m.persist(ctx, sess); err != nil {
		return nil, err
	}
	m.current = sess
	m.state = StateAuthenticated

	m.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeLogin,
		ActorID:   sess.UserID,
		ActorName: sess.FullName,
		Portal:    string(sess.Portal),
		Resource:  "session",
		Summary:   fmt.Sprintf("%s logged in as %s", user.Email, sess.Role),
	})
	return sess, nil
}

// LoginAsMainAdmin compares the supplied PIN against the persisted one,
// falling back to the documented default when none was ever set. A
// mismatch fails with ErrInvalidPin and performs no session mutation.
func (m *Manager) LoginAsMainAdmin(ctx context.Context, pin string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, found, err := m.store.Get(ctx, store.KeyAdminPIN)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin PIN: %w", err)
	}
	if !found {
		stored = DefaultMainAdminPIN
	}
	if pin != stored {
		m.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeAdminLoginFailed,
			ActorID:  directory.MainAdminUserID,
			Resource: "session",
			Summary:  "main administrator PIN rejected",
		})
		return nil, ErrInvalidPin
	}

	sess := &Session{
		UserID:      directory.MainAdminUserID,
		FullName:    "Main Administrator",
		Role:        authz.RoleMainAdmin,
		Portal:      tenant.PortalAdmin,
		Permissions: authz.FullGrant(),
		LoggedInAt:  time.Now().UTC(),
	}
	if err := m.persist(ctx, sess); err != nil {
		return nil, err
	}
	m.current = sess
	m.state = StateAuthenticated

	m.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeAdminLogin,
		ActorID:   sess.UserID,
		ActorName: sess.FullName,
		Portal:    string(sess.Portal),
		Resource:  "session",
		Summary:   "main administrator logged in",
	})
	return sess, nil
}

// Logout emits the audit event for the departing session, then clears
// only the session key. The user directory and every other cache stay
// untouched.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoSession
	}
	m.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeLogout,
		ActorID:   m.current.UserID,
		ActorName: m.current.FullName,
		Portal:    string(m.current.Portal),
		Resource:  "session",
		Summary:   fmt.Sprintf("%s logged out", m.current.FullName),
	})
	m.clearStoredSession(ctx)
	m.current = nil
	m.state = StateAnonymous
	return nil
}

// SwitchRole lets an admin-portal session act as one of a fixed
// allow-list of roles. Any other request is rejected with an explicit
// error and leaves the session unchanged.
func (m *Manager) SwitchRole(ctx context.Context, role authz.Role) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, ErrNoSession
	}
	if m.current.Portal != tenant.PortalAdmin || !switchableRoles[role] {
		return nil, ErrRoleSwitchNotAllowed
	}

	previous := m.current.Role
	next := *m.current
	next.Role = role
	next.Portal = tenant.PortalForRole(role)
	next.Permissions = authz.DefaultPermissionsFor(role)
	if err := m.persist(ctx, &next); err != nil {
		return nil, err
	}
	m.current = &next

	m.auditLogger.Log(ctx, audit.Event{
		Type:      audit.TypeRoleSwitched,
		ActorID:   next.UserID,
		ActorName: next.FullName,
		Portal:    string(next.Portal),
		Resource:  "session",
		Summary:   fmt.Sprintf("switched role %s -> %s", previous, role),
	})
	return m.current, nil
}

func (m *Manager) persist(ctx context.Context, sess *Session) error {
	encoded, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.store.Set(ctx, store.KeySession, string(encoded)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (m *Manager) clearStoredSession(ctx context.Context) {
	if err := m.store.Delete(ctx, store.KeySession); err != nil {
		slog.WarnContext(ctx, "failed to clear stored session", "error", err.Error())
	}
}
