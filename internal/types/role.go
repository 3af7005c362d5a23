package types

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of administrative roles. Roles form a total order:
// manager < admin < super_admin.
type Role string

const (
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRanks = map[Role]int{
	RoleManager:    1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Rank returns the role's position in the hierarchy; unknown roles rank 0.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r sits at or above min in the hierarchy.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank() && r.Rank() > 0
}

func (r Role) String() string { return string(r) }

// Claims is the JWT payload carried by every access token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
