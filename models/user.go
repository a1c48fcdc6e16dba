package models

// User is the authenticated actor as handed over by the CRM's auth layer:
// a login for audit identity plus the permission snapshot for this
// operation. The engine never authenticates users itself.
type User struct {
	Login string

	UserPermissions
}
