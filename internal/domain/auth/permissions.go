package auth

import "slices"

// Role names
const (
	RoleSystem   = "system"
	RoleAdmin    = "admin"
	RoleReseller = "reseller"
	RoleMember   = "member"
)

// Capability names checked by the router
const (
	PermDashboardSystemView   = "dashboard-system-view"
	PermDashboardAdminView    = "dashboard-admin-view"
	PermDashboardResellerView = "dashboard-reseller-view"

	PermDomainsView   = "domains-view"
	PermDomainsCreate = "domains-create"
	PermDomainsEdit   = "domains-edit"
	PermDomainsDelete = "domains-delete"

	PermStoragesView   = "storages-view"
	PermStoragesCreate = "storages-create"
	PermStoragesEdit   = "storages-edit"
	PermStoragesDelete = "storages-delete"

	PermBackupView     = "backup-view"
	PermBackupRun      = "backup-run"
	PermBackupDownload = "backup-download"
	PermBackupDelete   = "backup-delete"

	PermAuditLogsView = "audit-logs-view"

	PermUsersView          = "users-view"
	PermUsersCreate        = "users-create"
	PermUsersEdit          = "users-edit"
	PermUsersDelete        = "users-delete"
	PermUsersResetPassword = "users-reset-password"

	PermRolesView   = "roles-view"
	PermRolesCreate = "roles-create"
	PermRolesEdit   = "roles-edit"
	PermRolesDelete = "roles-delete"

	PermPermissionsView   = "permissions-view"
	PermPermissionsCreate = "permissions-create"
	PermPermissionsEdit   = "permissions-edit"
	PermPermissionsDelete = "permissions-delete"
)

// AllPermissions lists every capability known to the service, in seed order.
var AllPermissions = []string{
	PermDashboardSystemView, PermDashboardAdminView, PermDashboardResellerView,
	PermDomainsView, PermDomainsCreate, PermDomainsEdit, PermDomainsDelete,
	PermStoragesView, PermStoragesCreate, PermStoragesEdit, PermStoragesDelete,
	PermBackupView, PermBackupRun, PermBackupDownload, PermBackupDelete,
	PermAuditLogsView,
	PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete, PermUsersResetPassword,
	PermRolesView, PermRolesCreate, PermRolesEdit, PermRolesDelete,
	PermPermissionsView, PermPermissionsCreate, PermPermissionsEdit, PermPermissionsDelete,
}

// IsBuiltinPermission reports whether name is checked by the router. Built-in
// permissions cannot be renamed or deleted.
func IsBuiltinPermission(name string) bool {
	return slices.Contains(AllPermissions, name)
}

// DefaultGrants is the permission set each seeded role receives.
var DefaultGrants = map[string][]string{
	RoleSystem: AllPermissions,
	RoleAdmin: {
		PermDashboardAdminView,
		PermDomainsView, PermDomainsCreate, PermDomainsEdit, PermDomainsDelete,
		PermStoragesView, PermStoragesCreate, PermStoragesEdit, PermStoragesDelete,
		PermUsersView,
	},
	RoleReseller: {PermDashboardResellerView},
	RoleMember:   {},
}
