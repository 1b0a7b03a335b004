package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/formflow/internal/cli"
	"github.com/aretw0/formflow/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "formflow",
	Short: "formflow runs branching, chat-style forms",
	Long: `formflow walks respondents through branching questionnaires defined as
Markdown, YAML or JSON documents, and serves them over HTTP or MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "YAML config file (default $FORMFLOW_CONFIG)")
	pf.String("dir", ".", "Directory containing the form documents")
	pf.String("loader", config.LoaderLoam, "Form loader: loam or file")
	pf.String("store", config.StoreMemory, "Submission store: memory, file, redis or sqlite")
	pf.String("store-path", "", "Session directory (file) or database DSN (sqlite)")
	pf.String("redis-addr", "", "Redis address for the redis store")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", "text", "Log format: text or json")
}

// loadConfig resolves the config file and environment, then applies the
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := map[string]*string{
		"dir":        &cfg.Dir,
		"loader":     &cfg.Loader,
		"store":      &cfg.Store.Driver,
		"store-path": &cfg.Store.Path,
		"redis-addr": &cfg.Store.Redis.Addr,
		"log-level":  &cfg.Log.Level,
		"log-format": &cfg.Log.Format,
	}
	for name, dst := range overrides {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildApp loads the config and wires an engine over it.
func buildApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.Build(cfg, nil)
}
