package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cwarden/skuld/internal/config"
	"github.com/cwarden/skuld/internal/log"
	"github.com/cwarden/skuld/internal/store"
	"github.com/cwarden/skuld/internal/ui"
)

var (
	cfgFile   string
	storeFile string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "skuld",
	Short: "A terminal week calendar you can drag events around in",
	Long: `Skuld is a terminal calendar showing a week as a time grid. Events are
created, moved and resized with the mouse, or selected and nudged with the
keyboard, and kept in a YAML file.`,
	RunE:         runTUI,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&storeFile, "file", "f", "", "Event file to use instead of the configured store_file")
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfigFile(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if storeFile != "" {
		cfg.StoreFile = storeFile
	}
}

// openLogger opens the configured log file. The terminal belongs to the
// UI, so nothing is logged to stderr.
func openLogger() (*log.Logger, func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if level == log.LevelNone || cfg.LogFile == "" {
		return log.Nop(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return log.New(f, level), func() { f.Close() }, nil
}

func openStore(logger *log.Logger) (*store.FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StoreFile), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return store.NewFileStore(cfg.StoreFile, logger), nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := openLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := openStore(logger)
	if err != nil {
		return err
	}
	logger.Infof("starting with store %s", st.Path())

	model := ui.NewModel(cfg, st, logger)

	// Reload when the file is changed behind our back
	changes := make(chan store.ChangeEvent, 1)
	watcher, err := store.NewFileWatcher(logger, func(ev store.ChangeEvent) {
		select {
		case changes <- ev:
		default:
		}
	})
	if err != nil {
		logger.Warnf("file watcher unavailable: %v", err)
	} else {
		defer watcher.Close()
		if err := watcher.AddFile(st.Path()); err != nil {
			logger.Warnf("cannot watch %s: %v", st.Path(), err)
		} else {
			model.WatchChanges(changes)
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}
