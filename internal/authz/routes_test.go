package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutes_RouteToPageKey(t *testing.T) {
	cases := []struct {
		path string
		page PageKey
	}{
		{"/admin/dashboard", PageDashboard},
		{"/admin/assets", PageAssets},
		{"/admin/work-orders", PageWorkOrders},
		{"/admin/work-order/WO-1042", PageWorkOrders},
		{"/admin/maintenance", PageMaintenance},
		{"/admin/utilities", PageUtilities},
		{"/admin/utilities/ecg-electricity", PageUtilities},
		{"/admin/ghana-water", PageUtilities},
		{"/admin/water-tanker", PageUtilities},
		{"/admin/fuel", PageFuel},
		{"/admin/invoices", PageInvoices},
		{"/admin/vendors", PageVendors},
		{"/admin/reports", PageReports},
		{"/helpdesk", PageHelpdesk},
		{"/admin/user-management", PageUserManagement},
		{"/admin/user-permissions/usr-0004", PageUserManagement},
		{"/admin/settings", PageSettings},
		{"/vendor/dashboard", PageDashboard},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			page, ok := RouteToPageKey(tc.path)
			assert.True(t, ok)
			assert.Equal(t, tc.page, page)
		})
	}
}

func TestRoutes_UnroutedPaths(t *testing.T) {
	for _, path := range []string{"/login", "/healthz", "/static/app.css", ""} {
		_, ok := RouteToPageKey(path)
		assert.False(t, ok, "path %q must be unrouted", path)
	}
}

// TestPurpose: Validates that the route table covers every routable page key.
// Scope: Unit Test
// Security: A page key with no route fragment would make the navigation guard
// fail open for that page.
// Expected: Every canonical page key is produced by at least one rule.
// Test Case ID: RTE-01
func TestRoutes_TableIsExhaustive(t *testing.T) {
	covered := make(map[PageKey]bool)
	for _, rule := range routeRules {
		covered[rule.page] = true
	}
	for _, page := range AllPageKeys {
		assert.True(t, covered[page], "page key %s has no route rule", page)
	}
}

// The most specific fragment must win when several could match.
func TestRoutes_MostSpecificFirst(t *testing.T) {
	page, ok := RouteToPageKey("/admin/user-management/user-permissions")
	assert.True(t, ok)
	assert.Equal(t, PageUserManagement, page)

	page, ok = RouteToPageKey("/utilities/water-tanker/logs")
	assert.True(t, ok)
	assert.Equal(t, PageUtilities, page)
}
