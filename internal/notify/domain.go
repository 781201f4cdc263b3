package notify

import (
	"time"

	"github.com/google/uuid"
)

// Type enumerates notification categories.
type Type string

const (
	TypeAlert           Type = "ALERT"
	TypeReminder        Type = "REMINDER"
	TypeApprovalRequest Type = "APPROVAL_REQUEST"
	TypeInfo            Type = "INFO"
)

// Valid reports whether the type belongs to the enumeration.
func (t Type) Valid() bool {
	switch t {
	case TypeAlert, TypeReminder, TypeApprovalRequest, TypeInfo:
		return true
	}
	return false
}

// Priority orders notifications in the recipient's inbox.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

// Notification is an in-app message addressed to a single recipient.
// The workflow only ever flips the read flag; notifications are never deleted.
type Notification struct {
	ID          int64
	RecipientID int64
	Type        Type
	Title       string
	Message     string
	Priority    Priority
	RequestID   *uuid.UUID
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// CreateInput captures a notification to dispatch.
type CreateInput struct {
	RecipientID int64
	Type        Type
	Title       string
	Message     string
	Priority    Priority
	RequestID   *uuid.UUID
}
