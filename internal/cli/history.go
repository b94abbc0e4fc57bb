package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	cfg "ffpopup/internal/config"
	"ffpopup/internal/store"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyRemoveCmd, historyClearCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently opened paths, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cfg.HistoryFile()
		if err != nil {
			return err
		}
		list, err := store.Load(path)
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Remove paths from the history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cfg.HistoryFile()
		if err != nil {
			return err
		}
		removed, missing, err := store.Remove(path, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range removed {
			fmt.Fprintf(out, "✓ removed %s\n", p)
		}
		for _, p := range missing {
			fmt.Fprintf(out, "• not in history: %s\n", p)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every opened path",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cfg.HistoryFile()
		if err != nil {
			return err
		}
		return store.Save(path, nil)
	},
}

// recordHistory adds picked paths to the history.
func recordHistory(picked []string) error {
	path, err := cfg.HistoryFile()
	if err != nil {
		return err
	}
	return store.Add(path, picked, store.DefaultLimit)
}
