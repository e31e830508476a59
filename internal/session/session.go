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
	"errors"
	"time"

	"github.com/facilityos/facilityos/internal/authz"
	"github.com/facilityos/facilityos/internal/directory"
	"github.com/facilityos/facilityos/internal/tenant"
)

// Domain errors
var (
	ErrNoSession            = errors.New("no active session")
	ErrInvalidPin           = errors.New("invalid PIN")
	ErrUserDisabled         = errors.New("user account is disabled")
	ErrRoleSwitchNotAllowed = errors.New("role switch not permitted for this session")
	ErrSessionInvalid       = errors.New("persisted session failed integrity validation")
)

// Session is the point-in-time projection of one authenticated identity.
// Permissions are a snapshot copied at login: edits an administrator
// makes to the underlying directory record do not propagate into a live
// session. That staleness window is deliberate and documented; revoke
// takes effect at the next login.
type Session struct {
	UserID      string             `json:"userId"`
	FullName    string             `json:"fullName"`
	Role        authz.Role         `json:"role"`
	Portal      tenant.Portal      `json:"portal"`
	VendorID    string             `json:"vendorId,omitempty"`
	BranchIDs   []string           `json:"branchIds,omitempty"`
	Permissions *authz.Permissions `json:"permissions"`
	LoggedInAt  time.Time          `json:"loggedInAt"`
}

// Validate checks the structural integrity of a session, used before
// trusting a restored value. A session that fails here is discarded, not
// repaired.
func (s *Session) Validate() error {
	if s == nil {
		return ErrSessionInvalid
	}
	if s.UserID == "" || s.FullName == "" {
		return ErrSessionInvalid
	}
	if !authz.ValidRole(s.Role) {
		return ErrSessionInvalid
	}
	if !tenant.ValidPortal(s.Portal) {
		return ErrSessionInvalid
	}
	// Portal is derived from role; a mismatch means the stored value was
	// tampered with or corrupted.
	if tenant.PortalForRole(s.Role) != s.Portal {
		return ErrSessionInvalid
	}
	if s.Permissions == nil {
		return ErrSessionInvalid
	}
	if s.LoggedInAt.IsZero() {
		return ErrSessionInvalid
	}
	return nil
}

// Actor returns the caller identity the directory layer expects.
func (s *Session) Actor() directory.Actor {
	if s == nil {
		return directory.Actor{}
	}
	return directory.Actor{
		UserID:   s.UserID,
		FullName: s.FullName,
		Role:     s.Role,
		Portal:   s.Portal,
		VendorID: s.VendorID,
	}
}
