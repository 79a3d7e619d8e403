package notify

import (
	"fmt"

	"github.com/obata/taskwatch/internal/models"
	"github.com/obata/taskwatch/internal/temporal"
)

// Message renders the human-readable text for a notification.
func Message(n Notification) string {
	kind := "Todo"
	if n.SubjectKind == models.KindProject {
		kind = "Project"
	}
	body := body(n)
	if n.EditorName != "" {
		return fmt.Sprintf("[%s] %s: %s (by %s)", kind, n.SubjectName, body, n.EditorName)
	}
	return fmt.Sprintf("[%s] %s: %s", kind, n.SubjectName, body)
}

func body(n Notification) string {
	switch n.Property {
	case models.PropertyName:
		return "added"
	case models.PropertyAssignee:
		if n.Action == models.ActionDelete {
			return fmt.Sprintf("%s was unassigned", n.AssigneeName)
		}
		return fmt.Sprintf("assigned to %s", n.AssigneeName)
	case models.PropertyDeadline:
		switch n.Action {
		case models.ActionCreate:
			return fmt.Sprintf("deadline set to %s", formatDay(n))
		case models.ActionDelete:
			return "deadline removed"
		default:
			if n.DaysDiff != nil {
				return fmt.Sprintf("deadline moved to %s (%+d days)", formatDay(n), *n.DaysDiff)
			}
			return fmt.Sprintf("deadline moved to %s", formatDay(n))
		}
	case models.PropertyIsDone:
		if n.Action == models.ActionDelete {
			return "reopened"
		}
		return "completed"
	case models.PropertyIsClosed:
		if n.Action == models.ActionDelete {
			return "unarchived"
		}
		return "archived"
	case models.PropertyIsDelayed:
		if n.Action == models.ActionDelete {
			return "no longer delayed"
		}
		return "is delayed"
	case models.PropertyIsRecovered:
		if n.Action == models.ActionDelete {
			return "recovery flag cleared"
		}
		return "back on track"
	}
	return fmt.Sprintf("%s %s", n.Property, n.Action)
}

func formatDay(n Notification) string {
	if n.Deadline == nil {
		return "none"
	}
	return temporal.InReference(*n.Deadline).Format("2006-01-02")
}
