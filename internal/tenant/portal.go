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

package tenant

import "github.com/facilityos/facilityos/internal/authz"

// Portal is the tenant scope that partitions which users and pages a
// session may see or affect. Every user and every session belongs to
// exactly one portal.
type Portal string

const (
	PortalAdmin     Portal = "admin"
	PortalVendor    Portal = "vendor"
	PortalColleague Portal = "colleague"
)

// AllPortals is the canonical portal set.
var AllPortals = []Portal{PortalAdmin, PortalVendor, PortalColleague}

// PortalForRole derives the portal from a role. Portal is never set
// independently of role; deriving it here keeps privilege scope from
// drifting when records are edited.
func PortalForRole(role authz.Role) Portal {
	switch role {
	case authz.RoleVendorAdmin, authz.RoleVendorStaff:
		return PortalVendor
	case authz.RoleColleague:
		return PortalColleague
	default:
		return PortalAdmin
	}
}

// ValidPortal reports whether p is one of the defined portal constants.
func ValidPortal(p Portal) bool {
	for _, known := range AllPortals {
		if p == known {
			return true
		}
	}
	return false
}
