package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/treeship-labs/treeship/internal/config"
	"github.com/treeship-labs/treeship/internal/history"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent export runs",
	Long:  `Shows the runs recorded in the local history database, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.HistoryDBPath()
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		db, err := history.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		for _, r := range runs {
			outcome := green(r.Outcome)
			if r.Outcome != "success" {
				outcome = red(r.Outcome)
			}
			channel := r.Channel
			if channel == "" {
				channel = "none"
			}
			fmt.Printf("#%-4d %s  %-9s %-4s %3d artifacts  %8s  %s\n",
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				outcome,
				channel,
				r.ArtifactCount,
				humanize.IBytes(uint64(r.TotalBytes)),
				r.Root,
			)
		}
		return nil
	},
}
