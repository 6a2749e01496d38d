// Package policy decides what a caller may see and change in user management.
//
// Every function is pure: it looks only at the principal, the requested
// operation and the target record, and never touches storage. A clinic
// assistant can neither browse nor mutate a superadmin account, and list
// requests that would reveal one come back empty instead of failing.
package policy

import (
	"github.com/clinictrack/user-service/internal/core/domain"
)

// Operation names a user-management use case; it labels denial metrics.
type Operation string

const (
	OpList   Operation = "list"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Denial reasons returned to the caller.
const (
	ReasonSelfDelete       = "you cannot delete your own account"
	ReasonCreateSuperadmin = "you do not have permission to create superadmin users"
	ReasonAssignSuperadmin = "you do not have permission to assign superadmin role"
	ReasonUpdateSuperadmin = "you do not have permission to update superadmin users"
	ReasonDeleteSuperadmin = "you do not have permission to delete superadmin users"
)

// ListScope is the role filter a list query runs with after narrowing.
type ListScope struct {
	// Role is the effective equality filter; empty means no role filter.
	Role domain.Role
	// Empty is set when the caller must receive an empty page without a query.
	Empty bool
}

// NarrowList applies the visibility rule to a requested role filter.
// Superadmins pass through unchanged. Assistants asking for superadmins get an
// empty page; any other request of theirs is forced to clinic assistants.
func NarrowList(p domain.Principal, requested domain.Role) ListScope {
	if p.Role != domain.RoleClinicAssistant {
		return ListScope{Role: requested}
	}
	if requested == domain.RoleSuperadmin {
		return ListScope{Empty: true}
	}
	return ListScope{Role: domain.RoleClinicAssistant}
}

// CanView reports whether p may read target by id. It mirrors NarrowList so an
// assistant cannot fetch a superadmin record it could never list.
func CanView(p domain.Principal, target *domain.User) bool {
	return !(p.Role == domain.RoleClinicAssistant && target.Role == domain.RoleSuperadmin)
}

// AuthorizeCreate checks the role a new account is about to receive.
func AuthorizeCreate(p domain.Principal, targetRole domain.Role) error {
	if p.Role == domain.RoleClinicAssistant && targetRole == domain.RoleSuperadmin {
		return domain.Forbidden(ReasonCreateSuperadmin)
	}
	return nil
}

// AuthorizeUpdate checks a partial update of target. Promotion to superadmin
// is evaluated before protection of an existing superadmin record.
func AuthorizeUpdate(p domain.Principal, target *domain.User, role domain.Field[domain.Role]) error {
	if p.Role != domain.RoleClinicAssistant {
		return nil
	}
	if role.Set && role.Value == domain.RoleSuperadmin {
		return domain.Forbidden(ReasonAssignSuperadmin)
	}
	if target.Role == domain.RoleSuperadmin {
		return domain.Forbidden(ReasonUpdateSuperadmin)
	}
	return nil
}

// AuthorizeSelfDelete rejects deleting one's own account regardless of role.
// It needs no lookup and runs before the target is loaded.
func AuthorizeSelfDelete(p domain.Principal, targetID string) error {
	if targetID == p.ID {
		return domain.Forbidden(ReasonSelfDelete)
	}
	return nil
}

// AuthorizeDelete checks deletion of an already loaded target.
func AuthorizeDelete(p domain.Principal, target *domain.User) error {
	if err := AuthorizeSelfDelete(p, target.ID); err != nil {
		return err
	}
	if p.Role == domain.RoleClinicAssistant && target.Role == domain.RoleSuperadmin {
		return domain.Forbidden(ReasonDeleteSuperadmin)
	}
	return nil
}
