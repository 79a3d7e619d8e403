package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/obata/taskwatch/internal/config"
	"github.com/obata/taskwatch/internal/models"
	"github.com/obata/taskwatch/internal/notify"
	"github.com/obata/taskwatch/internal/store"
	"github.com/obata/taskwatch/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync [snapshot-file]",
	Short: "Process a batch of normalized subject snapshots",
	Long: `Read a snapshot document (JSON) produced by an integration fetcher,
detect changes against the stored state, record history, and notify the
company's chat tools. Reads stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		notifyFlag, _ := cmd.Flags().GetBool("notify")

		input := io.Reader(os.Stdin)
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			defer f.Close()
			input = f
		}

		batch, snapshots, err := syncer.ParseBatch(input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		cfg, db, s, err := openStore()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer store.Close(db)

		// One sync run at a time: the sqlite store has a single writer.
		lock, err := acquireLock()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer lock.Unlock()

		processor := syncer.New(s, buildRegistry(cfg), syncer.Options{
			FanOut: cfg.Sync.FanOut,
		})
		processor.ProcessBatch(cmd.Context(), batch.CompanyID, batch.Kind, snapshots, notifyFlag)

		fmt.Printf("Synced %d %s snapshot(s) for company %s\n",
			len(snapshots), batch.Kind, batch.CompanyID)
	},
}

// acquireLock takes the single-instance lock next to the database file.
func acquireLock() (*flock.Flock, error) {
	dbPath, err := store.DefaultPath()
	if err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(filepath.Dir(dbPath), "sync.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another sync is already running")
	}
	return lock, nil
}

// buildRegistry wires a notifier for every chat tool with configured
// credentials. Unconfigured tools are absent and skipped at dispatch.
func buildRegistry(cfg *config.Config) notify.Registry {
	registry := notify.Registry{}
	if cfg.Slack.Token != "" {
		registry[models.ChatToolSlack] = notify.NewSlackNotifier(cfg.Slack.Token)
	}
	if cfg.Line.Token != "" {
		registry[models.ChatToolLine] = notify.NewLineNotifier(cfg.Line.Token)
	}
	if cfg.LineWorks.Token != "" && cfg.LineWorks.BotID != "" {
		registry[models.ChatToolLineWorks] = notify.NewLineWorksNotifier(cfg.LineWorks.Token, cfg.LineWorks.BotID)
	}
	return registry
}

func init() {
	syncCmd.Flags().BoolP("notify", "n", false, "Send chat notifications for detected changes")
}
