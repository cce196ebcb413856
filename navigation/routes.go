// Package navigation gates in-app navigations by identity and role, the same
// way the SPA router does before rendering a view.
package navigation

import (
	"strings"

	"servicehub/models"
)

const (
	LoginPath   = "/login"
	DefaultPath = "/"
)

// Route is one SPA route. Role is empty for public routes.
type Route struct {
	Path string
	Name string
	Role models.Role
}

func (r Route) RequiresAuth() bool { return r.Role != "" }

// Routes is the SPA route table.
var Routes = []Route{
	{Path: "/", Name: "Home"},
	{Path: "/login", Name: "Login"},
	{Path: "/register", Name: "Register"},
	{Path: "/service-categories", Name: "ServiceCategories"},
	{Path: "/services", Name: "Services"},
	{Path: "/services/:id", Name: "ServiceDetail"},
	{Path: "/workers", Name: "WorkerListings"},
	{Path: "/workers/:id", Name: "WorkerDetail"},

	{Path: "/customer", Name: "CustomerDashboard", Role: models.RoleCustomer},
	{Path: "/customer/profile", Name: "CustomerProfile", Role: models.RoleCustomer},
	{Path: "/customer/bookings", Name: "CustomerBookings", Role: models.RoleCustomer},

	{Path: "/worker", Name: "WorkerDashboard", Role: models.RoleWorker},
	{Path: "/worker/profile", Name: "WorkerProfile", Role: models.RoleWorker},
	{Path: "/worker/jobs", Name: "WorkerJobs", Role: models.RoleWorker},
	{Path: "/worker/wallet", Name: "WorkerWallet", Role: models.RoleWorker},
	{Path: "/worker/services", Name: "WorkerServices", Role: models.RoleWorker},

	{Path: "/admin", Name: "AdminDashboard", Role: models.RoleAdmin},
}

// Match finds the route for path. Segments starting with ':' match any
// single non-empty segment.
func Match(path string) (Route, bool) {
	want := split(path)
	for _, r := range Routes {
		if matches(split(r.Path), want) {
			return r, true
		}
	}
	return Route{}, false
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matches(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if seg != path[i] {
			return false
		}
	}
	return true
}
