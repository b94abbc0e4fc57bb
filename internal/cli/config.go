package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfg "ffpopup/internal/config"
	"ffpopup/internal/settings"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configSchemaCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the config file location and contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		p, err := cfg.Load(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if fileExists(path) {
			fmt.Fprintf(out, "# %s\n", path)
		} else {
			fmt.Fprintf(out, "# %s (missing, showing defaults)\n", path)
		}
		return printParams(out, p)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Edit the config file in an interactive form",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		p, err := cfg.Load(path)
		if err != nil {
			return err
		}
		return settings.Run(path, p)
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := cfg.MarshalSchema(cfg.Schema())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func fileExists(path string) bool {
	if st, err := os.Stat(path); err == nil && !st.IsDir() {
		return true
	}
	return false
}
