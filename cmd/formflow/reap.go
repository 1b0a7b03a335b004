package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/formflow/internal/reaper"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Abandon idle sessions once",
	Long: `Marks every in-progress session idle for longer than --idle as abandoned.
'formflow serve' runs the same sweep on a schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		r := app.Reaper()
		if cmd.Flags().Changed("idle") {
			idle, _ := cmd.Flags().GetDuration("idle")
			r = reaper.New(app.Store, app.Engine, reaper.WithIdleTimeout(idle), reaper.WithLogger(app.Logger))
		}
		n, err := r.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Abandoned %d session(s).\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reapCmd)
	reapCmd.Flags().Duration("idle", reaper.DefaultIdleTimeout, "Inactivity threshold")
}
