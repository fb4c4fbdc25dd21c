package http

import (
	"net/http"
	"strconv"

	"github.com/amtlabs/amt/internal/rbac"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func isAdmin(r *http.Request) bool {
	return rbac.RoleFromContext(r.Context()) == "admin"
}
