package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"sales-leaderboard/internal/app"
)

var (
	simulateValue       string
	simulateSellerName  string
	simulateProcessType string
	simulateServer      string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-sale",
	Short: "模拟一笔销售并在电视屏幕上播报",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(simulateValue) == "" {
			return errors.New("--value 必须提供")
		}

		return getApp().SimulateSale(cmd.Context(), app.SimulateOptions{
			Value:       simulateValue,
			SellerName:  simulateSellerName,
			ProcessType: simulateProcessType,
			ServerURL:   simulateServer,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateValue, "value", "", "Entry value, e.g. 2500 or \"R$ 2.500,00\"")
	simulateCmd.Flags().StringVar(&simulateSellerName, "seller-name", "", "Seller name shown on screen")
	simulateCmd.Flags().StringVar(&simulateProcessType, "process-type", "", "Process type label")
	simulateCmd.Flags().StringVar(&simulateServer, "server", "", "Base URL of a running server (skips the database)")
}
