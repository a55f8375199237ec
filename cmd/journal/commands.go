package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jwulff/steno/journal/internal/app"
	"github.com/jwulff/steno/journal/internal/config"
	"github.com/jwulff/steno/journal/internal/daemon"
	"github.com/jwulff/steno/journal/internal/db"
	"github.com/jwulff/steno/journal/internal/journal"
	"github.com/jwulff/steno/journal/internal/logging"
	"github.com/jwulff/steno/journal/internal/recognition"
	"github.com/jwulff/steno/journal/internal/wsspeech"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	Root = &cobra.Command{
		Use:           "journal",
		Short:         "Voice journal: speak an entry, keep it",
		Args:          cobra.ExactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runJournal,
	}

	List = &cobra.Command{
		Use:   "list",
		Short: "Print stored entries newest first",
		Args:  cobra.ExactArgs(0),
		RunE:  listEntries,
	}
)

func init() {
	Root.PersistentFlags().String("config", "", "Path to configuration file (optional - searches ~/.config/voice-journal and the working directory)")
	Root.AddCommand(List)
}

// speechEngine is a recognizer that can also grant microphone access.
type speechEngine interface {
	recognition.Engine
	recognition.AccessGate
}

// setup loads and validates the configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("read config flag: %w", err)
	}

	cfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

func runJournal(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting voice journal",
		zap.String("version", Version),
		zap.String("provider", cfg.Speech.Provider),
		zap.String("storage", cfg.Storage.Path),
	)

	store, err := db.Open(cfg.Storage.Path, log)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	engine := newEngine(cfg, log)
	model := app.New(app.Options{
		Engine:      engine,
		Gate:        engine,
		Store:       store,
		Locale:      cfg.Speech.Locale,
		SettleDelay: cfg.Session.SettleDelay(),
		Layout: journal.Layout{
			Date: cfg.Display.DateLayout,
			Time: cfg.Display.TimeLayout,
		},
		Log: log,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	final, err := p.Run()
	if m, ok := final.(app.Model); ok {
		m.Shutdown()
	}
	if err != nil {
		log.Error("program exited with error", zap.Error(err))
		return err
	}
	log.Info("voice journal stopped")
	return nil
}

func listEntries(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := db.Open(cfg.Storage.Path, log)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	printEntries(cmd.OutOrStdout(), store.LoadAll(cmd.Context()), time.Now())
	return nil
}

// newEngine builds the configured speech recognizer.
func newEngine(cfg *config.Config, log *zap.Logger) speechEngine {
	switch cfg.Speech.Provider {
	case config.ProviderWebsocket:
		return wsspeech.NewEngine(wsspeech.Config{
			URL:    cfg.Speech.URL,
			APIKey: cfg.Speech.APIKey,
		}, log)
	default:
		return daemon.NewEngine(cfg.Speech.SocketPath, log)
	}
}

func printEntries(w io.Writer, entries []journal.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s %s (%s) [%s]\n  %s\n",
			e.DisplayDate, e.DisplayTime,
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
			e.MoodLabel, e.Snippet)
	}
}
