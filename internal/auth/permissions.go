package auth

import (
	"strings"

	"inventrobil-pos/internal/models"
)

// Capability is a named permission gating one or more operations.
type Capability string

const (
	ViewInventory  Capability = "view_inventory"
	EditInventory  Capability = "edit_inventory"
	ManageBilling  Capability = "manage_billing"
	ViewReports    Capability = "view_reports"
	ManageUsers    Capability = "manage_users"
	ChangePassword Capability = "change_password"
	AccessSettings Capability = "access_settings"
)

// AllCapabilities lists every capability in display order.
var AllCapabilities = []Capability{
	ViewInventory,
	EditInventory,
	ManageBilling,
	ViewReports,
	ManageUsers,
	ChangePassword,
	AccessSettings,
}

var roleCapabilities = map[models.Role][]Capability{
	models.RoleOwner:   AllCapabilities,
	models.RoleManager: {ViewInventory, EditInventory, ManageBilling, ViewReports},
	models.RoleCashier: {ViewInventory, ManageBilling},
}

// Label is the human-readable name used in Forbidden responses.
func (c Capability) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// Can reports whether role holds capability. Unknown roles hold nothing.
func Can(role models.Role, capability Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// Capabilities returns the full capability map for role, every capability present
// as a key. Unknown roles get an all-false map.
func Capabilities(role models.Role) map[Capability]bool {
	out := make(map[Capability]bool, len(AllCapabilities))
	for _, c := range AllCapabilities {
		out[c] = Can(role, c)
	}
	return out
}
