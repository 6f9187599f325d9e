// internal/shell/nav.go
package shell

import "fieldsales-console/internal/models"

// Page identifies a console screen.
type Page string

const (
	PageLogin          Page = "login"
	PageDashboard      Page = "dashboard"
	PageStores         Page = "stores"
	PageStoreDetail    Page = "store-detail"
	PageVisits         Page = "visits"
	PageVisitDetail    Page = "visit-detail"
	PageEmployees      Page = "employees"
	PageEmployeeDetail Page = "employee-detail"
	PageRequirements   Page = "requirements"
	PageComplaints     Page = "complaints"
	PageExpenses       Page = "expenses"
	PageAttendance     Page = "attendance"
	PageSalary         Page = "salary-settings"
	PageTeams          Page = "teams"
	PageNotFound       Page = "not-found"
)

// NavEntry is one sidebar link.
type NavEntry struct {
	Label     string `json:"label"`
	Path      string `json:"path"`
	Page      Page   `json:"page"`
	AdminOnly bool   `json:"adminOnly,omitempty"`
}

// DefaultNav is the full sidebar in display order.
var DefaultNav = []NavEntry{
	{Label: "Dashboard", Path: "/", Page: PageDashboard},
	{Label: "Customers", Path: "/stores", Page: PageStores},
	{Label: "Visits", Path: "/visits", Page: PageVisits},
	{Label: "Sales Executives", Path: "/employees", Page: PageEmployees},
	{Label: "Requirements", Path: "/requirements", Page: PageRequirements},
	{Label: "Complaints", Path: "/complaints", Page: PageComplaints},
	{Label: "Expenses", Path: "/expenses", Page: PageExpenses},
	{Label: "Attendance", Path: "/attendance", Page: PageAttendance, AdminOnly: true},
	{Label: "Salary Settings", Path: "/settings/salary", Page: PageSalary, AdminOnly: true},
	{Label: "Teams", Path: "/teams", Page: PageTeams, AdminOnly: true},
}

// NavFor filters DefaultNav for role. Hiding a link does not protect the
// page behind it; Resolve still serves admin pages to anyone with a token.
func NavFor(role models.Role) []NavEntry {
	entries := make([]NavEntry, 0, len(DefaultNav))
	for _, e := range DefaultNav {
		if e.AdminOnly && role != models.RoleAdmin {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
