package shared

import "context"

// Role enumerates the closed set of platform roles.
type Role string

const (
	// RoleUnassigned is the registration default; it grants no tenant access.
	RoleUnassigned Role = "UNASSIGNED"
	// RoleFacilitator delivers training at a single center within a partner.
	RoleFacilitator Role = "FACILITATOR"
	// RoleMEOfficer runs monitoring and evaluation for one partner.
	RoleMEOfficer Role = "ME_OFFICER"
	// RoleDonor has portfolio-wide read access across partners.
	RoleDonor Role = "DONOR"
	// RoleAdmin administers the platform.
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleUnassigned, RoleFacilitator, RoleMEOfficer, RoleDonor, RoleAdmin:
		return true
	}
	return false
}

// Requestable reports whether the role may be asked for through a role request.
// ADMIN is bootstrap-only and UNASSIGNED is not a grant.
func (r Role) Requestable() bool {
	switch r {
	case RoleFacilitator, RoleMEOfficer, RoleDonor:
		return true
	}
	return false
}

// Actor is the resolved identity performing an operation. It is passed
// explicitly to services; nothing below the HTTP middleware reads it from
// ambient state.
type Actor struct {
	UserID    int64
	Email     string
	Role      Role
	PartnerID *int64
	CenterID  *int64
	IsActive  bool
}

type actorContextKey struct{}

// ContextWithActor stores the resolved actor in the request context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor placed by the authentication middleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
