package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sales-leaderboard/internal/app"
)

var (
	exportDate    string
	exportPNGPath string
	exportCSVPath string
	exportTop     int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the weekly seller ranking as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath: exportPNGPath,
			CSVPath: exportCSVPath,
			Top:     exportTop,
		}

		if exportDate != "" {
			date, err := time.ParseInLocation("2006-01-02", exportDate, getApp().Config.Location())
			if err != nil {
				return fmt.Errorf("invalid --date value: %w", err)
			}
			// noon keeps the day inside the same ranking week regardless of the Saturday reset
			date = date.Add(12 * time.Hour)
			opts.Date = &date
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Any day inside the ranking week (YYYY-MM-DD, defaults to today)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportTop, "top", 0, "Sellers shown in the chart (defaults to config)")
}
