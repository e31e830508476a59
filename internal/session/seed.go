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
	"time"

	"github.com/facilityos/facilityos/internal/authz"
	"github.com/facilityos/facilityos/internal/directory"
	"github.com/facilityos/facilityos/internal/tenant"
)

// seededBy marks records written by bootstrap rather than by a caller.
const seededBy = "system:bootstrap"

// BootstrapUserCount is the documented size of the seeded directory.
const BootstrapUserCount = 8

// bootstrapUsers returns the initial directory written on first start:
// two admin-portal managers, a head of facilities, two vendors (one with
// staff), and two colleague requesters. IDs are stable so repeated
// bootstraps of a wiped store produce identical data.
func bootstrapUsers() []directory.User {
	seededAt := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)

	mk := func(userID, fullName, email string, role authz.Role, vendorID string, branchIDs ...string) directory.User {
		return directory.User{
			UserID:      userID,
			FullName:    fullName,
			Email:       email,
			Role:        role,
			Portal:      tenant.PortalForRole(role),
			VendorID:    vendorID,
			BranchIDs:   branchIDs,
			Status:      directory.StatusActive,
			Permissions: authz.DefaultPermissionsFor(role),
			CreatedBy:   seededBy,
			CreatedAt:   seededAt,
		}
	}

	return []directory.User{
		mk("usr-0001", "Akosua Asante", "akosua.asante@facilityos.app", authz.RoleHeadOfFacilities, ""),
		mk("usr-0002", "Kwame Boateng", "kwame.boateng@facilityos.app", authz.RoleFacilityManager, "", "BR-001", "BR-002"),
		mk("usr-0003", "Efua Owusu", "efua.owusu@facilityos.app", authz.RoleFacilityManager, "", "BR-003"),
		mk("usr-0004", "Yaw Darko", "yaw.darko@coolair-gh.com", authz.RoleVendorAdmin, "V-001"),
		mk("usr-0005", "Adjoa Frimpong", "adjoa.frimpong@coolair-gh.com", authz.RoleVendorStaff, "V-001"),
		mk("usr-0006", "Kofi Adjei", "kofi.adjei@mechpro-services.com", authz.RoleVendorAdmin, "V-002"),
		mk("usr-0007", "Ama Serwaa", "ama.serwaa@facilityos.app", authz.RoleColleague, "", "BR-001"),
		mk("usr-0008", "Nana Kwarteng", "nana.kwarteng@facilityos.app", authz.RoleColleague, "", "BR-004"),
	}
}

// bootstrapBranches returns the fixed branch list seeded on first start.
func bootstrapBranches() []directory.Branch {
	return []directory.Branch{
		{BranchID: "BR-001", Name: "Accra Head Office", Region: "Greater Accra"},
		{BranchID: "BR-002", Name: "Tema Depot", Region: "Greater Accra"},
		{BranchID: "BR-003", Name: "Kumasi Branch", Region: "Ashanti"},
		{BranchID: "BR-004", Name: "Takoradi Branch", Region: "Western"},
		{BranchID: "BR-005", Name: "Tamale Branch", Region: "Northern"},
	}
}
