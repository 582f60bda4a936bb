package auth

// Role names a permission bundle.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

// Permission names a single allowed action.
type Permission string

const (
	PermUploadDocs  Permission = "upload_docs"
	PermQuery       Permission = "query"
	PermViewAudit   Permission = "view_audit"
	PermManageUsers Permission = "manage_users"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin:  {PermUploadDocs, PermQuery, PermViewAudit, PermManageUsers},
	RoleUser:   {PermUploadDocs, PermQuery},
	RoleViewer: {PermQuery},
}

// HasPermission reports whether role grants perm. Unknown roles grant nothing.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// Permissions returns the permission set for role, nil for unknown roles.
func Permissions(role Role) []Permission {
	return rolePermissions[role]
}
