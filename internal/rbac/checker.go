package rbac

import (
	"context"
	"strings"
)

// Checker answers whether a role holds a permission. Permissions are
// "area:action" strings; a granted permission ending in "*" matches by
// prefix, and a bare "*" grants everything.
type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	for _, granted := range c.RolePermissions[role] {
		if matchPerm(granted, perm) {
			return true
		}
	}
	return false
}

// Any reports whether the role holds at least one of perms.
func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// All reports whether the role holds every one of perms.
func (c *Checker) All(role string, perms ...string) bool {
	for _, p := range perms {
		if !c.Has(role, p) {
			return false
		}
	}
	return true
}

func matchPerm(granted, perm string) bool {
	if granted == "*" || granted == perm {
		return true
	}
	if strings.HasSuffix(granted, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(granted, "*"))
	}
	return false
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

// WithRole records the caller's resolved role on the context. The auth
// middleware sets it; Require and the handlers read it.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRole).(string); ok {
		return s
	}
	return ""
}
