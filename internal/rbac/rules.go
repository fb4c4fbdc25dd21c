package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"marker": {
		"moderation:view",
		"marks:submit",
		"marks:view-own",
		"stats:view-own",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
