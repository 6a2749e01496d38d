package domain

import "time"

// Role is the access level of a user account.
type Role string

const (
	RoleSuperadmin      Role = "superadmin"
	RoleClinicAssistant Role = "clinic assistant"
)

// DefaultRole is assigned when a create request does not name a role.
const DefaultRole = RoleClinicAssistant

// Valid reports whether r is one of the recognised roles.
func (r Role) Valid() bool {
	return r == RoleSuperadmin || r == RoleClinicAssistant
}

// Roles lists every recognised role, most privileged first.
func Roles() []Role {
	return []Role{RoleSuperadmin, RoleClinicAssistant}
}

// User models a clinic staff account.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	PasswordHash    string    `json:"-"`
	Role            Role      `json:"role"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	// ProfileImageKey names the stored object behind an uploaded picture. Only
	// the upload path sets it; it is empty for externally hosted URLs.
	ProfileImageKey string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Principal is the authenticated caller of a request, resolved once per request.
type Principal struct {
	ID   string
	Role Role
}

// UserChanges is a resolved partial update handed to the store. Only set fields
// are written; PasswordHash is already hashed.
type UserChanges struct {
	FullName        Field[string]
	Email           Field[string]
	PasswordHash    Field[string]
	Role            Field[Role]
	ProfileImageURL Field[*string]
	ProfileImageKey Field[string]
}

// Empty reports whether no field is set.
func (c UserChanges) Empty() bool {
	return !c.FullName.Set && !c.Email.Set && !c.PasswordHash.Set && !c.Role.Set && !c.ProfileImageURL.Set && !c.ProfileImageKey.Set
}
