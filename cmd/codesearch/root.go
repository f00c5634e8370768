package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"codesearch/internal/config"
	"codesearch/internal/service"
	"codesearch/internal/tui"
	"codesearch/internal/watch"
)

var (
	cfgPath  string
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "codesearch [root]",
	Short: "Search a source tree in natural language",
	Long: `Indexes the source files under a directory and ranks them by
semantic similarity to a free-text query.

Without a subcommand an interactive terminal UI is started.

Controls:
  Enter      - Search
  Up/Down    - Previous / next result
  Tab        - Toggle full file
  Ctrl+R     - Rescan repository
  Ctrl+C     - Quit`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML or TOML config (default ./codesearch.yaml or ~/.config/codesearch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the UI runs (default discard)")
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	root := cfg.Root
	if len(args) > 0 {
		root = args[0]
	}

	logOut := io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := newLogger(logOut)
	if err != nil {
		return err
	}

	emb, closeEmb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer closeEmb()

	loader := newLoader(cfg, logger)
	engine := service.NewEngine(loader, emb, engineOptions(cfg, logger))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(tui.New(ctx, engine, root, cfg.Search.TopK), tea.WithAltScreen(), tea.WithContext(ctx))
	loader.SetObserver(tui.Observer{Send: p.Send})

	if cfg.Watch.Enabled {
		debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
		w, err := watch.New(root, loader, debounce, logger)
		if err != nil {
			logger.Warn("watch disabled", "root", root, "error", err)
		} else {
			defer w.Close()
			go func() {
				_ = w.Run(ctx, func(context.Context) { p.Send(tui.FilesChangedMsg{}) })
			}()
		}
	}

	_, err = p.Run()
	return err
}
