package authz

import "errors"

// Domain errors
var (
	ErrUnknownRole = errors.New("unknown role")
)

// Role is an immutable classification assigned at user creation.
// MainAdmin is a privileged singleton and is never stored as an ordinary
// directory record.
type Role string

const (
	RoleMainAdmin        Role = "MAIN_ADMIN"
	RoleHeadOfFacilities Role = "HEAD_OF_FACILITIES"
	RoleFacilityManager  Role = "FACILITY_MANAGER"
	RoleVendorAdmin      Role = "VENDOR_ADMIN"
	RoleVendorStaff      Role = "VENDOR_STAFF"
	RoleColleague        Role = "COLLEAGUE"
)

// AllRoles is the canonical role set, used for validation and seeding.
var AllRoles = []Role{
	RoleMainAdmin,
	RoleHeadOfFacilities,
	RoleFacilityManager,
	RoleVendorAdmin,
	RoleVendorStaff,
	RoleColleague,
}

// ValidRole reports whether r is one of the defined role constants.
func ValidRole(r Role) bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// PageKey gates the visibility of one page of the application.
type PageKey string

const (
	PageDashboard      PageKey = "dashboard"
	PageAssets         PageKey = "assets"
	PageWorkOrders     PageKey = "workOrders"
	PageMaintenance    PageKey = "maintenance"
	PageUtilities      PageKey = "utilities"
	PageFuel           PageKey = "fuel"
	PageInvoices       PageKey = "invoices"
	PageVendors        PageKey = "vendors"
	PageReports        PageKey = "reports"
	PageHelpdesk       PageKey = "helpdesk"
	PageUserManagement PageKey = "userManagement"
	PageSettings       PageKey = "settings"
)

// AllPageKeys is the canonical page set. Every persisted Permissions
// value carries every one of these keys; a missing key reads as false.
var AllPageKeys = []PageKey{
	PageDashboard,
	PageAssets,
	PageWorkOrders,
	PageMaintenance,
	PageUtilities,
	PageFuel,
	PageInvoices,
	PageVendors,
	PageReports,
	PageHelpdesk,
	PageUserManagement,
	PageSettings,
}

// ModuleKey identifies a business module whose actions are individually
// grantable.
type ModuleKey string

const (
	ModuleAssets     ModuleKey = "assets"
	ModuleWorkOrders ModuleKey = "workOrders"
	ModuleUtilities  ModuleKey = "utilities"
	ModuleFuel       ModuleKey = "fuel"
	ModuleInvoices   ModuleKey = "invoices"
	ModuleVendors    ModuleKey = "vendors"
	ModuleUsers      ModuleKey = "users"
)

// ActionKey identifies one grantable action within a module.
type ActionKey string

const (
	ActionCreate            ActionKey = "create"
	ActionEdit              ActionKey = "edit"
	ActionDelete            ActionKey = "delete"
	ActionClose             ActionKey = "close"
	ActionApprove           ActionKey = "approve"
	ActionExport            ActionKey = "export"
	ActionManagePermissions ActionKey = "managePermissions"
)

// ModuleActions is the canonical action set per module. Templates and
// Normalize populate exactly these keys; the predicate layer treats any
// key outside this table as ungranted.
var ModuleActions = map[ModuleKey][]ActionKey{
	ModuleAssets:     {ActionCreate, ActionEdit, ActionDelete},
	ModuleWorkOrders: {ActionCreate, ActionEdit, ActionDelete, ActionClose},
	ModuleUtilities:  {ActionCreate, ActionEdit, ActionDelete},
	ModuleFuel:       {ActionCreate, ActionEdit, ActionDelete},
	ModuleInvoices:   {ActionCreate, ActionApprove, ActionExport},
	ModuleVendors:    {ActionCreate, ActionEdit, ActionDelete},
	ModuleUsers:      {ActionCreate, ActionEdit, ActionDelete, ActionManagePermissions},
}

// Permissions is the per-user page-visibility and per-module action-grant
// structure. Both maps are keyed by the enumerated key types; an absent
// key always reads as denied, never as undefined.
type Permissions struct {
	Pages   map[PageKey]bool                 `json:"pages"`
	Actions map[ModuleKey]map[ActionKey]bool `json:"actions"`
}

// Clone returns a deep copy, so session snapshots never alias a
// directory record's maps.
func (p *Permissions) Clone() *Permissions {
	if p == nil {
		return nil
	}
	out := &Permissions{
		Pages:   make(map[PageKey]bool, len(p.Pages)),
		Actions: make(map[ModuleKey]map[ActionKey]bool, len(p.Actions)),
	}
	for k, v := range p.Pages {
		out.Pages[k] = v
	}
	for mod, actions := range p.Actions {
		dst := make(map[ActionKey]bool, len(actions))
		for act, v := range actions {
			dst[act] = v
		}
		out.Actions[mod] = dst
	}
	return out
}

// Normalize fills every canonical page and module/action key that is
// missing with false. Persisted values that predate a new key stay
// fail-closed instead of fail-open.
func (p *Permissions) Normalize() {
	if p.Pages == nil {
		p.Pages = make(map[PageKey]bool, len(AllPageKeys))
	}
	for _, key := range AllPageKeys {
		if _, ok := p.Pages[key]; !ok {
			p.Pages[key] = false
		}
	}
	if p.Actions == nil {
		p.Actions = make(map[ModuleKey]map[ActionKey]bool, len(ModuleActions))
	}
	for mod, actions := range ModuleActions {
		granted, ok := p.Actions[mod]
		if !ok {
			granted = make(map[ActionKey]bool, len(actions))
			p.Actions[mod] = granted
		}
		for _, act := range actions {
			if _, ok := granted[act]; !ok {
				granted[act] = false
			}
		}
	}
}
