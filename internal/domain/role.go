package domain

import "fmt"

// Role identifies the portal a request is served for.
type Role string

const (
	RoleLawyer        Role = "lawyer"
	RoleJudge         Role = "judge"
	RoleRegistrar     Role = "registrar"
	RoleBenchClerk    Role = "benchclerk"
	RoleStampReporter Role = "stampreporter"
)

// Roles returns every role in route-table order.
func Roles() []Role {
	return []Role{RoleLawyer, RoleJudge, RoleRegistrar, RoleBenchClerk, RoleStampReporter}
}

// ParseRole returns the Role named by s.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }
