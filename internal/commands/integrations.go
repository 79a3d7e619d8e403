package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/obata/taskwatch/internal/store"
)

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "List companies and their chat tool routing",
	Run: func(cmd *cobra.Command, args []string) {
		_, db, s, err := openStore()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer store.Close(db)

		companies, err := s.Companies(cmd.Context())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if len(companies) == 0 {
			fmt.Println("No companies configured")
			return
		}

		fmt.Printf("%-28s %-12s %-20s %s\n", "COMPANY", "CHAT TOOL", "CHANNEL", "ENABLED")
		fmt.Println(strings.Repeat("-", 70))
		for _, company := range companies {
			if len(company.Integrations) == 0 {
				fmt.Printf("%-28s (no chat tools)\n", company.Name)
				continue
			}
			for _, integration := range company.Integrations {
				enabled := "yes"
				if !integration.Enabled {
					enabled = "no"
				}
				fmt.Printf("%-28s %-12s %-20s %s\n",
					company.Name, integration.ChatTool, integration.Channel, enabled)
			}
		}
	},
}
