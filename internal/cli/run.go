package cli

import (
	"github.com/spf13/cobra"
)

var (
	runAddr           string
	runViewCompletion bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Serve the TV screens: sale alerts, audio cues and the live leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		if runAddr != "" {
			a.Config.Server.Addr = runAddr
		}
		if cmd.Flags().Changed("view-completion") {
			a.Config.Alerting.ViewCompletion = runViewCompletion
		}
		return a.Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVar(&runAddr, "addr", "", "Listen address for screens and API (overrides server.addr)")
	runCmd.Flags().BoolVar(&runViewCompletion, "view-completion", false, "Let screens end a presentation early with alertComplete")
}
