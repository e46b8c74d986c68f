package models

import "github.com/golang-jwt/jwt/v5"

// Admin permissions
const (
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"
)

// AdminClaims identifies the operator behind an administrative request.
type AdminClaims struct {
	jwt.RegisteredClaims
	AdminRef    string   `json:"admin_ref"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *AdminClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
