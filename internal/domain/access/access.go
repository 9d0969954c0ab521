package access

import "collab-app/internal/domain/users"

// Rule is the allowed-role set for a route group. The unrestricted case is the
// explicit AnyRole variant, never an empty role list.
type Rule struct {
	unrestricted bool
	roles        []users.Role
}

var AnyRole = Rule{unrestricted: true}

func Roles(rs ...users.Role) Rule {
	return Rule{roles: rs}
}

func (r Rule) Allows(role users.Role) bool {
	if !role.Valid() {
		return false
	}
	if r.unrestricted {
		return true
	}
	for _, allowed := range r.roles {
		if allowed == role {
			return true
		}
	}
	return false
}
