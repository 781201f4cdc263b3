package tenancy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/compass-mel/compass-mel/internal/shared"
)

func ptr(v int64) *int64 { return &v }

func actor(role shared.Role, partnerID, centerID *int64) shared.Actor {
	return shared.Actor{UserID: 1, Role: role, PartnerID: partnerID, CenterID: centerID, IsActive: true}
}

func TestAdminBypassesScope(t *testing.T) {
	guard := NewGuard()
	err := guard.Authorize(actor(shared.RoleAdmin, nil, nil), nil, 99, ptr(5))
	require.NoError(t, err)
}

func TestDonorIsScopeFreeButRoleGated(t *testing.T) {
	guard := NewGuard()
	donor := actor(shared.RoleDonor, ptr(1), nil)

	require.NoError(t, guard.Authorize(donor, nil, 2, nil))

	err := guard.Authorize(donor, []shared.Role{shared.RoleAdmin}, 2, nil)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestOfficerMustMatchPartner(t *testing.T) {
	guard := NewGuard()
	officer := actor(shared.RoleMEOfficer, ptr(1), nil)

	require.NoError(t, guard.Authorize(officer, nil, 1, nil))

	err := guard.Authorize(officer, nil, 2, nil)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	decision := guard.Inspect(officer, nil, 2, nil)
	require.False(t, decision.Allowed)
	require.Equal(t, "cross-tenant access", decision.Reason)
}

func TestFacilitatorMatchesPartnerAndCenter(t *testing.T) {
	guard := NewGuard()
	facilitator := actor(shared.RoleFacilitator, ptr(1), ptr(10))

	require.NoError(t, guard.Authorize(facilitator, nil, 1, nil))
	require.NoError(t, guard.Authorize(facilitator, nil, 1, ptr(10)))

	err := guard.Authorize(facilitator, nil, 1, ptr(11))
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	err = guard.Authorize(facilitator, nil, 2, ptr(10))
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestUnassignedHasNoTenantAccess(t *testing.T) {
	guard := NewGuard()
	err := guard.Authorize(actor(shared.RoleUnassigned, nil, nil), nil, 1, nil)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestInactiveActorDenied(t *testing.T) {
	guard := NewGuard()
	inactive := shared.Actor{UserID: 1, Role: shared.RoleAdmin, IsActive: false}
	err := guard.Authorize(inactive, nil, 1, nil)
	require.ErrorIs(t, err, shared.ErrAccountInactive)
}

func TestApproverRoles(t *testing.T) {
	roles, err := ApproverRoles(shared.RoleFacilitator)
	require.NoError(t, err)
	require.Equal(t, []shared.Role{shared.RoleMEOfficer, shared.RoleDonor}, roles)

	roles, err = ApproverRoles(shared.RoleMEOfficer)
	require.NoError(t, err)
	require.Equal(t, []shared.Role{shared.RoleAdmin}, roles)

	roles, err = ApproverRoles(shared.RoleDonor)
	require.NoError(t, err)
	require.Equal(t, []shared.Role{shared.RoleAdmin}, roles)

	_, err = ApproverRoles(shared.RoleAdmin)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = ApproverRoles(shared.RoleUnassigned)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCanResolve(t *testing.T) {
	require.NoError(t, CanResolve(actor(shared.RoleAdmin, nil, nil), 7))
	require.NoError(t, CanResolve(actor(shared.RoleDonor, nil, nil), 7))
	require.NoError(t, CanResolve(actor(shared.RoleMEOfficer, ptr(7), nil), 7))

	err := CanResolve(actor(shared.RoleMEOfficer, ptr(8), nil), 7)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	err = CanResolve(actor(shared.RoleFacilitator, ptr(7), nil), 7)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	err = CanResolve(actor(shared.RoleUnassigned, nil, nil), 7)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}
