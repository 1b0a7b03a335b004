package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/formflow/pkg/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of form documents",
	Long:  `Prints the JSON Schema that form documents are checked against, for editor integration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.GenerateFormSchema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
