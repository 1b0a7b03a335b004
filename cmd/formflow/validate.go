package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/formflow/internal/validator"
	"github.com/aretw0/formflow/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the forms for consistency",
	Long: `Checks every YAML and JSON document in the form directory against the form
schema, then loads every form and reports dangling step references, broken
replays, unreachable steps and variables read before they are collected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		failed := checkDocuments(out, app.Config.Dir)

		reports, err := validator.ValidateAll(cmd.Context(), app.Loader)
		if err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")
		for _, r := range reports {
			for _, issue := range r.Issues {
				fmt.Fprintf(out, "%s: %s\n", r.FormID, issue)
			}
			if r.HasErrors() || (strict && len(r.Issues) > 0) {
				failed = true
			}
		}

		if failed {
			return errors.New("validation failed")
		}
		fmt.Fprintf(out, "%d form(s) are valid! ✅\n", len(reports))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat warnings as failures")
}

// checkDocuments validates the YAML and JSON documents of dir against the
// form schema. It reports whether any document failed.
func checkDocuments(out io.Writer, dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(out, "cannot read %s: %v\n", dir, err)
		return true
	}
	failed := false
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml" && ext != ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err == nil {
			err = schema.ValidateDocument(data)
		}
		if err == nil {
			continue
		}
		failed = true
		causes := schema.ValidationErrors(err)
		if len(causes) == 0 {
			causes = []error{err}
		}
		for _, cause := range causes {
			fmt.Fprintf(out, "%s: [schema] %v\n", entry.Name(), cause)
		}
	}
	return failed
}
