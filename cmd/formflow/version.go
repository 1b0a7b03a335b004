package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/formflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of formflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "formflow version %s\n", formflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
