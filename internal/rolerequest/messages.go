package rolerequest

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/compass-mel/compass-mel/internal/notify"
	"github.com/compass-mel/compass-mel/internal/shared"
)

var titleCaser = cases.Title(language.English)

// humanizeRole renders a role constant for notification copy,
// e.g. ME_OFFICER becomes "Me Officer".
func humanizeRole(role shared.Role) string {
	return titleCaser.String(strings.ToLower(strings.ReplaceAll(string(role), "_", " ")))
}

func approvalRequestTitle(role shared.Role) string {
	return fmt.Sprintf("%s role request awaiting your decision", humanizeRole(role))
}

func approvalRequestMessage(requesterName string, role shared.Role, partnerCode string) string {
	return fmt.Sprintf("%s has requested the %s role for partner %s. Review and approve or reject the request.",
		requesterName, humanizeRole(role), partnerCode)
}

func approvedTitle(role shared.Role) string {
	return fmt.Sprintf("Your %s role request was approved", humanizeRole(role))
}

func approvedMessage(role shared.Role, partnerCode string) string {
	return fmt.Sprintf("You now have the %s role for partner %s.", humanizeRole(role), partnerCode)
}

func rejectedTitle(role shared.Role) string {
	return fmt.Sprintf("Your %s role request was rejected", humanizeRole(role))
}

func rejectedMessage(role shared.Role, comment string) string {
	return fmt.Sprintf("Your %s role request was rejected: %s", humanizeRole(role), comment)
}

func reminderTitle(role shared.Role) string {
	return fmt.Sprintf("Reminder: %s role request still pending", humanizeRole(role))
}

// ReminderNotification builds the nudge sent to the approver a stale pending
// request is addressed to.
func ReminderNotification(stale StalePending) notify.CreateInput {
	req := stale.Request
	return notify.CreateInput{
		RecipientID: stale.ApproverID,
		Type:        notify.TypeReminder,
		Title:       reminderTitle(req.RequestedRole),
		Message: fmt.Sprintf("A %s role request from user %d has been waiting since %s. Please approve or reject it.",
			humanizeRole(req.RequestedRole), req.RequesterID, req.RequestedAt.Format("2 Jan 2006")),
		Priority:  notify.PriorityNormal,
		RequestID: &req.ID,
	}
}
