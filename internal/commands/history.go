package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/obata/taskwatch/internal/models"
	"github.com/obata/taskwatch/internal/store"
	"github.com/obata/taskwatch/internal/temporal"
)

var (
	historyHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	historySystemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6D7383"))
	historyDelayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

var historyCmd = &cobra.Command{
	Use:   "history [external-id]",
	Short: "Show the recorded change history of a subject",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		companyID, _ := cmd.Flags().GetString("company")
		kindFlag, _ := cmd.Flags().GetString("kind")
		limit, _ := cmd.Flags().GetInt("limit")

		kind := models.Kind(kindFlag)
		if kind != models.KindTodo && kind != models.KindProject {
			fmt.Printf("Error: unknown kind '%s' (todo or project)\n", kindFlag)
			return
		}

		_, db, s, err := openStore()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer store.Close(db)

		ctx := cmd.Context()
		subject, err := s.SubjectByExternalID(ctx, companyID, kind, args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if subject == nil {
			fmt.Printf("No %s found with external id '%s'\n", kind, args[0])
			return
		}

		events, err := s.EventsForSubject(ctx, subject.ID, limit)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(events) == 0 {
			fmt.Printf("No history recorded for %s yet\n", subject.Name)
			return
		}

		fmt.Println(historyHeaderStyle.Render(fmt.Sprintf("%s (%s)", subject.Name, subject.Kind)))
		fmt.Printf("%-20s %-14s %-10s %s\n", "WHEN", "PROPERTY", "ACTION", "DETAIL")
		fmt.Println(strings.Repeat("-", 70))
		for _, event := range events {
			line := fmt.Sprintf("%-20s %-14s %-10s %s",
				temporal.InReference(event.CreatedAt).Format("2006-01-02 15:04"),
				event.Property,
				event.Action,
				eventDetail(event))
			switch {
			case event.Property == models.PropertyIsDelayed && event.Action == models.ActionCreate:
				fmt.Println(historyDelayStyle.Render(line))
			case event.IsSystemEvent():
				fmt.Println(historySystemStyle.Render(line))
			default:
				fmt.Println(line)
			}
		}
	},
}

func eventDetail(event models.Event) string {
	var parts []string
	if event.Deadline != nil {
		parts = append(parts, temporal.InReference(*event.Deadline).Format("2006-01-02"))
	}
	if event.DaysDiff != nil {
		parts = append(parts, fmt.Sprintf("%+d days", *event.DaysDiff))
	}
	if event.AssigneeID != nil {
		parts = append(parts, "user "+*event.AssigneeID)
	}
	if event.EditorID != nil {
		parts = append(parts, "by "+*event.EditorID)
	}
	return strings.Join(parts, ", ")
}

func init() {
	historyCmd.Flags().StringP("company", "c", "", "Company id the subject belongs to")
	historyCmd.Flags().StringP("kind", "k", "todo", "Subject kind: todo or project")
	historyCmd.Flags().IntP("limit", "l", 50, "Maximum number of rows to show")
}
