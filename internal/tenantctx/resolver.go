package tenantctx

import (
	"github.com/villagio/backend/internal/models"
)

// Resolve merges the role's default permission map with the membership's
// sparse override map into the effective permission set. Every key present
// in the overrides replaces the role default unconditionally: an override
// can grant a permission the role lacks or revoke one it has. Keys absent
// from the result are denied.
//
// Role hierarchy is deliberately not consulted here: hierarchy answers "who
// out-ranks whom", permissions answer "who may do what".
func Resolve(m *models.Membership) models.PermissionMap {
	if m == nil || m.Role == nil {
		return models.PermissionMap{}
	}
	effective := m.Role.Permissions.Clone()
	for key, allowed := range m.PermissionOverrides {
		effective[key] = allowed
	}
	return effective
}

// Check reports whether the membership grants a single permission key.
func Check(m *models.Membership, key string) bool {
	return Resolve(m)[key]
}

// CheckMany answers a batch of permission keys from one resolved snapshot,
// so a concurrent override mutation cannot produce a partial view across
// keys within the same call.
func CheckMany(m *models.Membership, keys []string) map[string]bool {
	effective := Resolve(m)
	out := make(map[string]bool, len(keys))
	for _, key := range keys {
		out[key] = effective[key]
	}
	return out
}
