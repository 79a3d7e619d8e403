package commands

import (
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/obata/taskwatch/internal/config"
	"github.com/obata/taskwatch/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "taskwatch",
	Short: "Todo change history and notification engine",
	Long: `taskwatch ingests normalized snapshots of todos and projects synced from
external task tools, records an append-only history of every change, derives
delayed/recovered flags, and notifies the owning company's chat tools.`,
}

// openStore loads the config and opens the database for a command run.
func openStore() (*config.Config, *gorm.DB, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultPath()
		if err != nil {
			return nil, nil, nil, err
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, store.New(db), nil
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(integrationsCmd)
	rootCmd.AddCommand(versionCmd)
}
