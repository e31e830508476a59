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
	"errors"
	"time"

	"github.com/facilityos/facilityos/internal/authz"
	"github.com/facilityos/facilityos/internal/tenant"
)

// Domain errors
var (
	ErrNoSession            = errors.New("no active session")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrCrossTenant          = errors.New("operation crosses tenant boundary")
	ErrPrivilegedTarget     = errors.New("the main administrator record cannot be modified")
	ErrSelfDelete           = errors.New("a user cannot delete their own account")
	ErrPermissionEscalation = errors.New("vendor users cannot grant admin-only page access")
	ErrInvalidRole          = errors.New("invalid role for user record")
	ErrVendorIDRequired     = errors.New("vendor users require a vendor id")
	ErrEmailRequired        = errors.New("email is required")
	ErrFullNameRequired     = errors.New("full name is required")
)

// MainAdminUserID is the distinguished identity of the main
// administrator. It is never stored as an ordinary directory record and
// no mutation may target it.
const MainAdminUserID = "main-admin"

// User statuses
const (
	StatusActive   = "ACTIVE"
	StatusDisabled = "DISABLED"
)

// User is one identity record in the directory.
type User struct {
	UserID      string             `json:"userId"`
	FullName    string             `json:"fullName"`
	Email       string             `json:"email"`
	Role        authz.Role         `json:"role"`
	Portal      tenant.Portal      `json:"portal"`
	VendorID    string             `json:"vendorId,omitempty"`
	BranchIDs   []string           `json:"branchIds,omitempty"`
	Status      string             `json:"status"`
	Permissions *authz.Permissions `json:"permissions"`
	CreatedBy   string             `json:"createdBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Branch is one physical location records can be scoped to.
type Branch struct {
	BranchID string `json:"branchId"`
	Name     string `json:"name"`
	Region   string `json:"region"`
}

// Actor identifies the authenticated caller of a directory mutation.
// It is a projection of the current session; an empty UserID means no
// session is active.
type Actor struct {
	UserID   string
	FullName string
	Role     authz.Role
	Portal   tenant.Portal
	VendorID string
}

// NewUser carries the caller-supplied fields of a user creation.
type NewUser struct {
	FullName  string
	Email     string
	Role      authz.Role
	VendorID  string
	BranchIDs []string
}

// Patch is a partial update. Nil fields are left untouched so concurrent
// unrelated edits are not clobbered by a full overwrite.
type Patch struct {
	FullName  *string
	Email     *string
	Status    *string
	BranchIDs []string
}
