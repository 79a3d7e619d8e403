// Package notify delivers history events to chat tools. The syncer talks to
// the Notifier interface only; one implementation exists per chat tool and a
// Registry maps chat tool ids to implementations.
package notify

import (
	"context"
	"time"

	"github.com/obata/taskwatch/internal/models"
)

// Notification is one outbound message about a detected change.
type Notification struct {
	SubjectName string
	SubjectKind models.Kind
	Property    models.Property
	Action      models.Action

	// Payload, present depending on Property.
	Deadline     *time.Time
	DaysDiff     *int
	AssigneeName string

	// Channel within the target chat tool.
	Channel string

	// EditorName is the editor's identity resolved for the target chat tool,
	// empty for engine-derived events.
	EditorName string
}

// Notifier sends a notification via one chat tool.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Registry maps a chat tool to its notifier. A tool with no configured
// credentials is simply absent.
type Registry map[models.ChatTool]Notifier

// For returns the notifier for a chat tool.
func (r Registry) For(tool models.ChatTool) (Notifier, bool) {
	n, ok := r[tool]
	return n, ok
}
