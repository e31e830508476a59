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

import "strings"

// routeRule maps a navigational path fragment to the page key gating it.
type routeRule struct {
	fragment string
	page     PageKey
}

// routeRules is ordered most-specific first: a path is matched against
// the rules top to bottom and the first containing fragment wins. The
// table must cover every routable page key; an unmapped route would make
// the navigation guard fail open.
var routeRules = []routeRule{
	// User management and its sub-surfaces.
	{"/user-permissions", PageUserManagement},
	{"/user-management", PageUserManagement},

	// Utilities and the individual utility log surfaces.
	{"/ecg-electricity", PageUtilities},
	{"/ghana-water", PageUtilities},
	{"/water-tanker", PageUtilities},
	{"/utilities", PageUtilities},

	// Work orders, including detail and closure sub-routes.
	{"/work-orders", PageWorkOrders},
	{"/work-order", PageWorkOrders},

	{"/maintenance", PageMaintenance},
	{"/fuel", PageFuel},
	{"/invoices", PageInvoices},
	{"/vendors", PageVendors},
	{"/assets", PageAssets},
	{"/reports", PageReports},
	{"/helpdesk", PageHelpdesk},
	{"/settings", PageSettings},
	{"/dashboard", PageDashboard},
}

// RouteToPageKey resolves a navigational path to the page key that gates
// it. The boolean is false for paths outside the routed surface (login,
// health checks, static assets); callers must treat that as unrouted,
// not as granted.
func RouteToPageKey(path string) (PageKey, bool) {
	for _, rule := range routeRules {
		if strings.Contains(path, rule.fragment) {
			return rule.page, true
		}
	}
	return "", false
}
