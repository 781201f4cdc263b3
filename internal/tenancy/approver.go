package tenancy

import (
	"fmt"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// ApproverRoles returns the roles entitled to resolve a request for the given
// role, in selection priority order. Facilitator requests are approved inside
// the partner by its M&E officer (or, failing that, a donor attached to the
// partner); officer and donor grants are reserved for platform admins.
// FACILITATOR and UNASSIGNED are never eligible approvers.
func ApproverRoles(requestedRole shared.Role) ([]shared.Role, error) {
	switch requestedRole {
	case shared.RoleFacilitator:
		return []shared.Role{shared.RoleMEOfficer, shared.RoleDonor}, nil
	case shared.RoleMEOfficer, shared.RoleDonor:
		return []shared.Role{shared.RoleAdmin}, nil
	default:
		return nil, fmt.Errorf("tenancy: role %s cannot be requested: %w", requestedRole, shared.ErrInvalidInput)
	}
}

// CanResolve checks that the actor is a plausible resolver for a request
// scoped to the given partner. The addressed-approver check against the
// linked notification is stronger and happens in the workflow; this guard
// exists so an actor who was never eligible fails closed even if a
// notification was misaddressed.
func CanResolve(actor shared.Actor, requestPartnerID int64) error {
	if !actor.IsActive {
		return fmt.Errorf("tenancy: account inactive: %w", shared.ErrAccountInactive)
	}
	switch actor.Role {
	case shared.RoleAdmin, shared.RoleDonor:
		return nil
	case shared.RoleMEOfficer:
		if actor.PartnerID == nil || *actor.PartnerID != requestPartnerID {
			return fmt.Errorf("tenancy: cross-tenant access: %w", shared.ErrPermissionDenied)
		}
		return nil
	default:
		return fmt.Errorf("tenancy: role %s may not resolve role requests: %w", actor.Role, shared.ErrPermissionDenied)
	}
}
