// Package tenancy decides whether an actor may touch a resource belonging to
// a partner organization or one of its centers.
package tenancy

import (
	"fmt"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// Decision carries the outcome of an authorization check. The Reason is for
// logs and audit only; HTTP responses surface a generic Forbidden so a denial
// never confirms which partner owns the resource.
type Decision struct {
	Allowed bool
	Reason  string
}

// Guard enforces role gates and partner/center scoping.
type Guard struct{}

// NewGuard constructs a Guard.
func NewGuard() Guard {
	return Guard{}
}

// Authorize checks the actor against the required roles and the resource's
// owning partner (and, when supplied, center).
//
// ADMIN bypasses scope checks entirely. DONOR is portfolio-wide and therefore
// scope-free, but still role-gated. ME_OFFICER must match the partner;
// FACILITATOR must match the partner and, when the resource names one, the
// center.
func (Guard) Authorize(actor shared.Actor, requiredRoles []shared.Role, resourcePartnerID int64, resourceCenterID *int64) error {
	decision := decide(actor, requiredRoles, resourcePartnerID, resourceCenterID)
	if decision.Allowed {
		return nil
	}
	if decision.Reason == "account inactive" {
		return fmt.Errorf("tenancy: %s: %w", decision.Reason, shared.ErrAccountInactive)
	}
	return fmt.Errorf("tenancy: %s: %w", decision.Reason, shared.ErrPermissionDenied)
}

// Inspect returns the raw decision without wrapping it into an error.
func (Guard) Inspect(actor shared.Actor, requiredRoles []shared.Role, resourcePartnerID int64, resourceCenterID *int64) Decision {
	return decide(actor, requiredRoles, resourcePartnerID, resourceCenterID)
}

func decide(actor shared.Actor, requiredRoles []shared.Role, resourcePartnerID int64, resourceCenterID *int64) Decision {
	if !actor.IsActive {
		return Decision{Reason: "account inactive"}
	}
	if len(requiredRoles) > 0 && !containsRole(requiredRoles, actor.Role) {
		return Decision{Reason: "role not permitted"}
	}

	switch actor.Role {
	case shared.RoleAdmin, shared.RoleDonor:
		return Decision{Allowed: true}
	case shared.RoleMEOfficer:
		if actor.PartnerID == nil || *actor.PartnerID != resourcePartnerID {
			return Decision{Reason: "cross-tenant access"}
		}
		return Decision{Allowed: true}
	case shared.RoleFacilitator:
		if actor.PartnerID == nil || *actor.PartnerID != resourcePartnerID {
			return Decision{Reason: "cross-tenant access"}
		}
		if resourceCenterID != nil {
			if actor.CenterID == nil || *actor.CenterID != *resourceCenterID {
				return Decision{Reason: "cross-tenant access"}
			}
		}
		return Decision{Allowed: true}
	default:
		return Decision{Reason: "no tenant affiliation"}
	}
}

func containsRole(roles []shared.Role, role shared.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
