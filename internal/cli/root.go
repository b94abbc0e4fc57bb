package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"ffpopup/internal/app"
	cfg "ffpopup/internal/config"
	"ffpopup/internal/system"
)

var rootFlags struct {
	config         string
	prompt         string
	filterPosition string
	previewCmd     string
	logFile        string
	reversed       bool
	tree           bool
	startFilter    bool
	noPreview      bool
	watch          bool
	noHistory      bool
	debug          bool
	printConfig    bool
}

var rootCmd = &cobra.Command{
	Use:   "ffpopup [dir]",
	Short: "ffpopup – fuzzy file picker in popup windows",
	Long: "ffpopup lists the files under dir (default: the working directory) in a filter, " +
		"list and preview popup, and prints the opened paths on exit.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := loadParams(cmd)
		if err != nil {
			return err
		}
		if rootFlags.printConfig {
			return printParams(cmd.OutOrStdout(), params)
		}
		closer, err := openLog()
		if err != nil {
			return err
		}
		defer closer.Close()

		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		picked, err := app.Start(ctx, app.Options{
			Root:        root,
			Params:      params,
			PreviewCmd:  rootFlags.previewCmd,
			AutoPreview: !rootFlags.noPreview,
			Watch:       rootFlags.watch,
		})
		if err != nil {
			return err
		}
		if !rootFlags.noHistory {
			if err := recordHistory(picked); err != nil {
				system.Logger.Warn("history", "err", err)
			}
		}
		for _, p := range picked {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&rootFlags.config, "config", "", "config file (default: <user config dir>/ffpopup/config.yaml)")
	f.StringVar(&rootFlags.prompt, "prompt", "", "filter prompt")
	f.StringVar(&rootFlags.filterPosition, "filter-position", "", `filter position, "top" or "bottom"`)
	f.StringVar(&rootFlags.previewCmd, "cmd", "", "preview command; {} is replaced by the path")
	f.StringVar(&rootFlags.logFile, "log", "", "append logs to this file")
	f.BoolVar(&rootFlags.reversed, "reversed", false, "list items bottom to top")
	f.BoolVar(&rootFlags.tree, "tree", false, "show the directory as a tree")
	f.BoolVar(&rootFlags.startFilter, "start-filter", false, "start in insert mode")
	f.BoolVar(&rootFlags.noPreview, "no-auto-preview", false, "preview only on request")
	f.BoolVar(&rootFlags.watch, "watch", false, "re-list when files change")
	f.BoolVar(&rootFlags.noHistory, "no-history", false, "do not record opened paths")
	f.BoolVar(&rootFlags.debug, "debug", false, "log at debug level")
	f.BoolVar(&rootFlags.printConfig, "print-config", false, "print the effective config and exit")
}

// configPath is --config or the default config file.
func configPath() (string, error) {
	if rootFlags.config != "" {
		return rootFlags.config, nil
	}
	return cfg.File()
}

// loadParams reads the config file and applies the flags that were set.
func loadParams(cmd *cobra.Command) (cfg.Params, error) {
	path, err := configPath()
	if err != nil {
		return cfg.Params{}, err
	}
	p, err := cfg.Load(path)
	if err != nil {
		return p, err
	}
	f := cmd.Flags()
	if f.Changed("prompt") {
		p.Prompt = rootFlags.prompt
	}
	if f.Changed("filter-position") {
		p.FilterPosition = rootFlags.filterPosition
	}
	if f.Changed("reversed") {
		p.Reversed = rootFlags.reversed
	}
	if f.Changed("tree") {
		p.DisplayTree = rootFlags.tree
	}
	if f.Changed("start-filter") {
		p.StartFilter = rootFlags.startFilter
	}
	return p, p.Validate()
}

func printParams(w io.Writer, p cfg.Params) error {
	b, err := cfg.Marshal("config.yaml", p)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openLog() (io.Closer, error) {
	if rootFlags.logFile == "" {
		return nopCloser{}, nil
	}
	return system.SetOutput(rootFlags.logFile, rootFlags.debug)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
