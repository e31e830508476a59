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

package authz

// DefaultPermissionsFor returns the default permission grant for a role.
// The result is fully populated: every canonical page key and every
// module/action pair is present. Pure and deterministic, so it serves
// both user creation and "reset to default".
func DefaultPermissionsFor(role Role) *Permissions {
	var p *Permissions
	switch role {
	case RoleMainAdmin, RoleHeadOfFacilities:
		// Head of Facilities is the operational deputy of the main
		// administrator and carries the same grant.
		p = FullGrant()
	case RoleFacilityManager:
		p = &Permissions{
			Pages: map[PageKey]bool{
				PageDashboard:   true,
				PageAssets:      true,
				PageWorkOrders:  true,
				PageMaintenance: true,
				PageUtilities:   true,
				PageFuel:        true,
				PageInvoices:    true,
				PageVendors:     true,
				PageReports:     true,
				PageHelpdesk:    true,
			},
			Actions: map[ModuleKey]map[ActionKey]bool{
				ModuleAssets:     {ActionCreate: true, ActionEdit: true},
				ModuleWorkOrders: {ActionCreate: true, ActionEdit: true, ActionClose: true},
				ModuleUtilities:  {ActionCreate: true, ActionEdit: true},
				ModuleFuel:       {ActionCreate: true, ActionEdit: true},
				ModuleInvoices:   {ActionCreate: true, ActionExport: true},
				ModuleVendors:    {ActionCreate: true, ActionEdit: true},
			},
		}
	case RoleVendorAdmin:
		p = &Permissions{
			Pages: map[PageKey]bool{
				PageDashboard:      true,
				PageWorkOrders:     true,
				PageInvoices:       true,
				PageHelpdesk:       true,
				PageUserManagement: true,
			},
			Actions: map[ModuleKey]map[ActionKey]bool{
				ModuleWorkOrders: {ActionEdit: true, ActionClose: true},
				ModuleInvoices:   {ActionCreate: true, ActionExport: true},
				ModuleUsers:      {ActionCreate: true, ActionEdit: true, ActionDelete: true, ActionManagePermissions: true},
			},
		}
	case RoleVendorStaff:
		p = &Permissions{
			Pages: map[PageKey]bool{
				PageDashboard:  true,
				PageWorkOrders: true,
				PageHelpdesk:   true,
			},
			Actions: map[ModuleKey]map[ActionKey]bool{
				ModuleWorkOrders: {ActionEdit: true, ActionClose: true},
			},
		}
	case RoleColleague:
		p = &Permissions{
			Pages: map[PageKey]bool{
				PageDashboard:  true,
				PageWorkOrders: true,
				PageHelpdesk:   true,
			},
			Actions: map[ModuleKey]map[ActionKey]bool{
				ModuleWorkOrders: {ActionCreate: true},
			},
		}
	default:
		// Unknown roles get the empty grant; Normalize below makes it an
		// explicit all-false structure.
		p = &Permissions{}
	}
	p.Normalize()
	return p
}

// FullGrant returns a Permissions value with every page and every
// module/action flag set true. The main administrator receives this as
// an explicit structure rather than a wildcard, so the predicate layer
// stays uniform.
func FullGrant() *Permissions {
	p := &Permissions{
		Pages:   make(map[PageKey]bool, len(AllPageKeys)),
		Actions: make(map[ModuleKey]map[ActionKey]bool, len(ModuleActions)),
	}
	for _, key := range AllPageKeys {
		p.Pages[key] = true
	}
	for mod, actions := range ModuleActions {
		granted := make(map[ActionKey]bool, len(actions))
		for _, act := range actions {
			granted[act] = true
		}
		p.Actions[mod] = granted
	}
	return p
}
