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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/facilityos/facilityos/internal/audit"
	"github.com/facilityos/facilityos/internal/authz"
	"github.com/facilityos/facilityos/internal/store"
	storebuntdb "github.com/facilityos/facilityos/internal/store/buntdb"
	"github.com/facilityos/facilityos/internal/tenant"
)

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func newTestService(t *testing.T) (*Service, *mockAudit, store.Store) {
	t.Helper()
	db, err := storebuntdb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	auditLogger := new(mockAudit)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return().Maybe()
	return NewService(db, auditLogger), auditLogger, db
}

func adminActor() Actor {
	return Actor{
		UserID:   "usr-0001",
		FullName: "Akosua Asante",
		Role:     authz.RoleHeadOfFacilities,
		Portal:   tenant.PortalAdmin,
	}
}

func vendorActor(vendorID string) Actor {
	return Actor{
		UserID:   "usr-0004",
		FullName: "Yaw Darko",
		Role:     authz.RoleVendorAdmin,
		Portal:   tenant.PortalVendor,
		VendorID: vendorID,
	}
}

func seedUsers(t *testing.T, svc *Service) []User {
	t.Helper()
	seededAt := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	users := []User{
		{
			UserID: "usr-0001", FullName: "Akosua Asante", Email: "akosua@facilityos.app",
			Role: authz.RoleHeadOfFacilities, Portal: tenant.PortalAdmin,
			Status: StatusActive, Permissions: authz.DefaultPermissionsFor(authz.RoleHeadOfFacilities),
			CreatedAt: seededAt,
		},
		{
			UserID: "usr-0004", FullName: "Yaw Darko", Email: "yaw@coolair-gh.com",
			Role: authz.RoleVendorAdmin, Portal: tenant.PortalVendor, VendorID: "V-001",
			Status: StatusActive, Permissions: authz.DefaultPermissionsFor(authz.RoleVendorAdmin),
			CreatedAt: seededAt,
		},
		{
			UserID: "usr-0005", FullName: "Adjoa Frimpong", Email: "adjoa@coolair-gh.com",
			Role: authz.RoleVendorStaff, Portal: tenant.PortalVendor, VendorID: "V-001",
			Status: StatusActive, Permissions: authz.DefaultPermissionsFor(authz.RoleVendorStaff),
			CreatedAt: seededAt,
		},
		{
			UserID: "usr-0006", FullName: "Kofi Adjei", Email: "kofi@mechpro-services.com",
			Role: authz.RoleVendorAdmin, Portal: tenant.PortalVendor, VendorID: "V-002",
			Status: StatusActive, Permissions: authz.DefaultPermissionsFor(authz.RoleVendorAdmin),
			CreatedAt: seededAt,
		},
	}
	require.NoError(t, svc.Save(context.Background(), users))
	return users
}

func TestDirectory_Load_AbsentAndMalformedFallBackToEmpty(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	users, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, db.Set(ctx, store.KeyUsers, "{corrupt"))
	users, err = svc.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

// Saving what was loaded must not lose or reshape any field.
func TestDirectory_SaveLoad_RoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seeded := seedUsers(t, svc)

	loaded, err := svc.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Save(ctx, loaded))

	reloaded, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, seeded, reloaded)
}

// TestPurpose: Validates tenant isolation of the directory listing.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement between vendor scopes.
// Expected: Vendor sessions see only their own vendor's users; a vendor
// session without a vendor ID sees an empty list.
// Test Case ID: DIR-01
func TestDirectory_FilterForSession_TenantIsolation(t *testing.T) {
	svc, _, _ := newTestService(t)
	users := seedUsers(t, svc)

	t.Run("AdminSeesAll", func(t *testing.T) {
		assert.Len(t, svc.FilterForSession(adminActor(), users), len(users))
	})

	t.Run("VendorSeesOwnScopeOnly", func(t *testing.T) {
		scoped := svc.FilterForSession(vendorActor("V-001"), users)
		require.Len(t, scoped, 2)
		for _, u := range scoped {
			assert.Equal(t, "V-001", u.VendorID)
		}
	})

	t.Run("VendorWithoutIDSeesNothing", func(t *testing.T) {
		assert.Empty(t, svc.FilterForSession(vendorActor(""), users))
	})
}

func TestDirectory_CreateUser_DefaultsFromTemplate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	user, err := svc.CreateUser(ctx, adminActor(), NewUser{
		FullName: "Efua Owusu",
		Email:    "Efua.Owusu@Facilityos.App",
		Role:     authz.RoleFacilityManager,
	})
	require.NoError(t, err)

	assert.Equal(t, "efua.owusu@facilityos.app", user.Email)
	assert.Equal(t, tenant.PortalAdmin, user.Portal)
	assert.Equal(t, StatusActive, user.Status)
	assert.Equal(t, adminActor().UserID, user.CreatedBy)
	assert.Equal(t, authz.DefaultPermissionsFor(authz.RoleFacilityManager), user.Permissions)

	stored, err := svc.GetByEmail(ctx, "efua.owusu@facilityos.app")
	require.NoError(t, err)
	assert.Equal(t, user.UserID, stored.UserID)
}

func TestDirectory_CreateUser_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	_, err := svc.CreateUser(ctx, Actor{}, NewUser{FullName: "X", Email: "x@y.z", Role: authz.RoleColleague})
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = svc.CreateUser(ctx, adminActor(), NewUser{Email: "x@y.z", Role: authz.RoleColleague})
	assert.ErrorIs(t, err, ErrFullNameRequired)

	_, err = svc.CreateUser(ctx, adminActor(), NewUser{FullName: "X", Role: authz.RoleColleague})
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.CreateUser(ctx, adminActor(), NewUser{FullName: "X", Email: "x@y.z", Role: authz.Role("ROOT")})
	assert.ErrorIs(t, err, ErrInvalidRole)

	// The main administrator is a singleton, never an ordinary record.
	_, err = svc.CreateUser(ctx, adminActor(), NewUser{FullName: "X", Email: "x@y.z", Role: authz.RoleMainAdmin})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.CreateUser(ctx, adminActor(), NewUser{FullName: "X", Email: "x@y.z", Role: authz.RoleVendorStaff})
	assert.ErrorIs(t, err, ErrVendorIDRequired)

	// Duplicate email, case-insensitive.
	_, err = svc.CreateUser(ctx, adminActor(), NewUser{FullName: "X", Email: "YAW@coolair-gh.com", Role: authz.RoleColleague})
	assert.ErrorIs(t, err, ErrEmailExists)
}

// TestPurpose: Validates that a vendor caller cannot create users outside its
// own vendor scope or outside the vendor portal.
// Scope: Unit Test
// Security: Cross-tenant write prevention.
// Expected: ErrCrossTenant for other vendors and for non-vendor roles.
// Test Case ID: DIR-02
func TestDirectory_CreateUser_VendorScope(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	_, err := svc.CreateUser(ctx, vendorActor("V-001"), NewUser{
		FullName: "New Staff", Email: "staff2@coolair-gh.com",
		Role: authz.RoleVendorStaff, VendorID: "V-002",
	})
	assert.ErrorIs(t, err, ErrCrossTenant)

	_, err = svc.CreateUser(ctx, vendorActor("V-001"), NewUser{
		FullName: "Sneaky Manager", Email: "sneak@coolair-gh.com",
		Role: authz.RoleFacilityManager,
	})
	assert.ErrorIs(t, err, ErrCrossTenant)

	created, err := svc.CreateUser(ctx, vendorActor("V-001"), NewUser{
		FullName: "New Staff", Email: "staff2@coolair-gh.com",
		Role: authz.RoleVendorStaff, VendorID: "V-001",
	})
	require.NoError(t, err)
	assert.Equal(t, tenant.PortalVendor, created.Portal)
}

// TestPurpose: Validates the privileged-target invariant on update.
// Scope: Unit Test
// Security: The main administrator record must never be mutable.
// Expected: ErrPrivilegedTarget regardless of caller.
// Test Case ID: DIR-03
func TestDirectory_UpdateUser_PrivilegedTarget(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	name := "New Name"
	_, err := svc.UpdateUser(ctx, adminActor(), MainAdminUserID, Patch{FullName: &name})
	assert.ErrorIs(t, err, ErrPrivilegedTarget)

	_, err = svc.UpdateUser(ctx, vendorActor("V-001"), MainAdminUserID, Patch{FullName: &name})
	assert.ErrorIs(t, err, ErrPrivilegedTarget)
}

func TestDirectory_UpdateUser_PartialMerge(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	status := StatusDisabled
	updated, err := svc.UpdateUser(ctx, adminActor(), "usr-0005", Patch{Status: &status})
	require.NoError(t, err)

	// Untouched fields survive the merge.
	assert.Equal(t, "Adjoa Frimpong", updated.FullName)
	assert.Equal(t, "adjoa@coolair-gh.com", updated.Email)
	assert.Equal(t, "V-001", updated.VendorID)
	assert.Equal(t, StatusDisabled, updated.Status)

	_, err = svc.UpdateUser(ctx, adminActor(), "usr-9999", Patch{Status: &status})
	assert.ErrorIs(t, err, ErrUserNotFound)

	email := "yaw@coolair-gh.com"
	_, err = svc.UpdateUser(ctx, adminActor(), "usr-0005", Patch{Email: &email})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestDirectory_UpdateUser_VendorCrossTenant(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	name := "Renamed"
	_, err := svc.UpdateUser(ctx, vendorActor("V-001"), "usr-0006", Patch{FullName: &name})
	assert.ErrorIs(t, err, ErrCrossTenant)
}

// TestPurpose: Validates delete protections: the main administrator and the
// caller's own record are never deletable, and vendors stay in scope.
// Scope: Unit Test
// Security: Privileged-target and lockout prevention.
// Expected: Specific errors per case; successful delete removes the record.
// Test Case ID: DIR-04
func TestDirectory_DeleteUser_Protections(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	assert.ErrorIs(t, svc.DeleteUser(ctx, adminActor(), MainAdminUserID), ErrPrivilegedTarget)
	assert.ErrorIs(t, svc.DeleteUser(ctx, adminActor(), adminActor().UserID), ErrSelfDelete)
	assert.ErrorIs(t, svc.DeleteUser(ctx, vendorActor("V-001"), "usr-0006"), ErrCrossTenant)
	assert.ErrorIs(t, svc.DeleteUser(ctx, adminActor(), "usr-9999"), ErrUserNotFound)

	require.NoError(t, svc.DeleteUser(ctx, adminActor(), "usr-0005"))
	_, err := svc.GetByID(ctx, "usr-0005")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// TestPurpose: Validates the permission escalation block: a vendor caller may
// not grant admin-exclusive pages even to users of its own vendor.
// Scope: Unit Test
// Security: Denylist independent of the caller's action grants.
// Expected: ErrPermissionEscalation for userManagement and settings grants.
// Test Case ID: DIR-05
func TestDirectory_SetUserPermissions_EscalationBlock(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	escalating := authz.DefaultPermissionsFor(authz.RoleVendorStaff)
	escalating.Pages[authz.PageUserManagement] = true
	_, err := svc.SetUserPermissions(ctx, vendorActor("V-001"), "usr-0005", escalating)
	assert.ErrorIs(t, err, ErrPermissionEscalation)

	escalating = authz.DefaultPermissionsFor(authz.RoleVendorStaff)
	escalating.Pages[authz.PageSettings] = true
	_, err = svc.SetUserPermissions(ctx, vendorActor("V-001"), "usr-0005", escalating)
	assert.ErrorIs(t, err, ErrPermissionEscalation)

	// The same grant from an admin caller is legitimate.
	granted := authz.DefaultPermissionsFor(authz.RoleVendorStaff)
	granted.Pages[authz.PageUserManagement] = true
	updated, err := svc.SetUserPermissions(ctx, adminActor(), "usr-0005", granted)
	require.NoError(t, err)
	assert.True(t, authz.HasPagePermission(updated.Permissions, authz.PageUserManagement))
}

func TestDirectory_SetUserPermissions_NormalizesPartialGrant(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	partial := &authz.Permissions{
		Pages: map[authz.PageKey]bool{authz.PageDashboard: true},
	}
	updated, err := svc.SetUserPermissions(ctx, adminActor(), "usr-0005", partial)
	require.NoError(t, err)

	for _, page := range authz.AllPageKeys {
		_, ok := updated.Permissions.Pages[page]
		assert.True(t, ok, "page %s must be present after normalization", page)
	}
	assert.False(t, authz.HasPagePermission(updated.Permissions, authz.PageSettings))
}

// TestPurpose: Validates that concurrent mutations never lose writes.
// Scope: Unit Test
// Security: Overlapping read-modify-write cycles over the shared
// directory must be serialized, not interleaved. Run with -race.
// Expected: Every concurrently created user is present afterwards.
// Test Case ID: DIR-06
func TestDirectory_ConcurrentCreates_NoLostWrites(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	seeded := seedUsers(t, svc)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.CreateUser(ctx, adminActor(), NewUser{
				FullName: fmt.Sprintf("Writer %d", n),
				Email:    fmt.Sprintf("writer%d@facilityos.app", n),
				Role:     authz.RoleColleague,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	users, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, users, len(seeded)+writers)
}

func TestDirectory_Mutations_EmitAuditEvents(t *testing.T) {
	svc, auditLogger, _ := newTestService(t)
	ctx := context.Background()
	seedUsers(t, svc)

	_, err := svc.CreateUser(ctx, adminActor(), NewUser{
		FullName: "Ama Serwaa", Email: "ama@facilityos.app", Role: authz.RoleColleague,
	})
	require.NoError(t, err)

	auditLogger.AssertCalled(t, "Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeUserCreated && e.ActorID == adminActor().UserID
	}))
}
