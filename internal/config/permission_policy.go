package config

import (
	"fmt"
	"strings"

	"github.com/wagiedev/acp-client-go/internal/permission"
)

// NormalizePermissionPolicy maps policy aliases to their canonical names.
//
// Aliases:
//   - "acceptAll", "allow_once" -> "allow"
//   - "deny", "reject_once" -> "reject"
func NormalizePermissionPolicy(policy string) string {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", "allow", "acceptall", "allow_once":
		return "allow"
	case "reject", "deny", "reject_once":
		return "reject"
	default:
		return policy
	}
}

// PermissionCallback resolves a named policy to a permission callback.
func PermissionCallback(policy string) (permission.Callback, error) {
	switch NormalizePermissionPolicy(policy) {
	case "allow":
		return permission.AllowPolicy, nil
	case "reject":
		return permission.RejectPolicy, nil
	default:
		return nil, fmt.Errorf("unknown permission policy %q", policy)
	}
}
