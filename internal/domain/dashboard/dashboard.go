package dashboard

import (
	"slices"

	"panel-service/internal/domain/activity"
	"panel-service/internal/domain/auth"
)

type Kind string

const (
	KindSystem   Kind = "system"
	KindAdmin    Kind = "admin"
	KindReseller Kind = "reseller"
)

// priority is checked in order; the first capability the caller holds wins.
var priority = []struct {
	kind       Kind
	permission string
}{
	{KindSystem, auth.PermDashboardSystemView},
	{KindAdmin, auth.PermDashboardAdminView},
	{KindReseller, auth.PermDashboardResellerView},
}

// Resolve picks the dashboard for a permission set. ok is false when none applies.
func Resolve(permissions []string) (Kind, bool) {
	for _, p := range priority {
		if slices.Contains(permissions, p.permission) {
			return p.kind, true
		}
	}
	return "", false
}

// Permission returns the capability that gates kind.
func Permission(kind Kind) string {
	for _, p := range priority {
		if p.kind == kind {
			return p.permission
		}
	}
	return ""
}

type SystemStats struct {
	TotalUsers       int64              `json:"total_users"`
	TotalRoles       int64              `json:"total_roles"`
	TotalPermissions int64              `json:"total_permissions"`
	SystemHealth     string             `json:"system_health"`
	RecentActivities []activity.Summary `json:"recent_activities"`
}

type AdminStats struct {
	TotalDomains   int64 `json:"total_domains"`
	TotalStorages  int64 `json:"total_storages"`
	TotalCustomers int64 `json:"total_customers"`
	PendingOrders  int64 `json:"pending_orders"`
}

// ResellerStats has no backing data yet; every value is zero.
type ResellerStats struct {
	MyCustomers         int64 `json:"my_customers"`
	RevenueThisMonth    int64 `json:"revenue_this_month"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	CommissionEarned    int64 `json:"commission_earned"`
}

// View carries exactly one populated variant, matching Kind.
type View struct {
	Kind     Kind           `json:"kind"`
	System   *SystemStats   `json:"system,omitempty"`
	Admin    *AdminStats    `json:"admin,omitempty"`
	Reseller *ResellerStats `json:"reseller,omitempty"`
}

const HealthOnline = "Online"
