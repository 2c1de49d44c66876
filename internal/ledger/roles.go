package ledger

import "strings"

// Role names a permission class.
type Role string

const (
	// RoleAdmin may grant and revoke every role and edit collection metadata.
	RoleAdmin Role = "DEFAULT_ADMIN_ROLE"
	// RoleMinter may mint, burn any asset and set per-asset royalties.
	RoleMinter Role = "MINTER_ROLE"
	// RoleRegistrar may edit the operator allowlist.
	RoleRegistrar Role = "REGISTRAR_ROLE"
)

// ParseRole validates a role name.
func ParseRole(raw string) (Role, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalidArgument("role name required")
	}
	return Role(raw), nil
}

type roleMembers struct {
	index map[Identity]struct{}
	order []Identity
}

// roleRegistry keeps holders per role in grant order.
type roleRegistry struct {
	roles map[Role]*roleMembers
}

func newRoleRegistry() *roleRegistry {
	return &roleRegistry{roles: make(map[Role]*roleMembers)}
}

func (r *roleRegistry) has(role Role, id Identity) bool {
	members, ok := r.roles[role]
	if !ok {
		return false
	}
	_, ok = members.index[id]
	return ok
}

func (r *roleRegistry) require(role Role, id Identity) error {
	if !r.has(role, id) {
		return missingRole(id, role)
	}
	return nil
}

func (r *roleRegistry) holders(role Role) []Identity {
	members, ok := r.roles[role]
	if !ok {
		return []Identity{}
	}
	out := make([]Identity, len(members.order))
	copy(out, members.order)
	return out
}

func (r *roleRegistry) grant(role Role, id Identity) {
	members, ok := r.roles[role]
	if !ok {
		members = &roleMembers{index: make(map[Identity]struct{})}
		r.roles[role] = members
	}
	if _, held := members.index[id]; held {
		return
	}
	members.index[id] = struct{}{}
	members.order = append(members.order, id)
}

func (r *roleRegistry) revoke(role Role, id Identity) {
	members, ok := r.roles[role]
	if !ok {
		return
	}
	if _, held := members.index[id]; !held {
		return
	}
	delete(members.index, id)
	for i, holder := range members.order {
		if holder == id {
			members.order = append(members.order[:i], members.order[i+1:]...)
			break
		}
	}
}
