package audit

import (
	"time"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// Action codes recorded by the role-request workflow.
const (
	ActionRequestRole        = "REQUEST_ROLE"
	ActionApproveRoleRequest = "APPROVE_ROLE_REQUEST"
	ActionRejectRoleRequest  = "REJECT_ROLE_REQUEST"
)

// Entry is one append-only audit record. Entries are never updated or
// deleted; they are the compliance record donors rely on.
type Entry struct {
	ID          int64
	ActorID     int64
	ActorRole   shared.Role
	Action      string
	EntityType  string
	EntityID    string
	Description string
	At          time.Time
}

// TimelineFilters narrows the admin timeline listing.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Action   string
	Entity   string
	Page     int
	PageSize int
}

// PagingInfo carries simple pagination metadata.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
}

// Result bundles timeline rows with paging.
type Result struct {
	Rows   []Entry
	Paging PagingInfo
}
