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

// SamePortal reports whether a session's portal matches the tenant scope
// of a requested operation.
func SamePortal(a, b Portal) bool {
	return a != "" && a == b
}

// VendorScopeMatches reports whether a vendor session may touch a record.
// Both sides must carry a vendor ID and they must be equal. An absent
// vendor ID on either side is a non-match, never a wildcard.
func VendorScopeMatches(sessionVendorID, recordVendorID string) bool {
	if sessionVendorID == "" || recordVendorID == "" {
		return false
	}
	return sessionVendorID == recordVendorID
}

// adminExclusivePages are pages only admin-portal callers may grant.
// The denylist is checked independently of the general action-permission
// check: a misconfigured Permissions value on a vendor caller must not be
// able to hand out these pages.
var adminExclusivePages = map[authz.PageKey]bool{
	authz.PageUserManagement: true,
	authz.PageSettings:       true,
}

// IsAdminExclusivePage reports whether granting page is reserved to the
// admin portal.
func IsAdminExclusivePage(page authz.PageKey) bool {
	return adminExclusivePages[page]
}
