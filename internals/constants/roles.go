package constants

import "fmt"

const (
	RoleAdmin   = "admin"
	RoleWarden  = "warden"
	RoleStudent = "student"
)

// Error message template for role checks
const ErrOnlyStaffCanAccess = "Only admin or warden may access %s."

func RoleErrorStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyStaffCanAccess, feature)
}

// ==========================
// Grouped Role Slices
// ==========================
var (
	StaffRoles = []string{RoleAdmin, RoleWarden}
)
