package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sales-leaderboard/internal/app"
)

var (
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List the sale alerts most recently shown on the TV screens",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 || showLimit > 500 {
			return fmt.Errorf("--limit must be between 1 and 500")
		}

		opts := app.ShowOptions{
			Limit: showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "How many presentations to list, newest first")
}
