// Package main provides the CLI entrypoint for guessup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/guessup/internal/config"
	"github.com/verte-zerg/guessup/internal/deck"
	"github.com/verte-zerg/guessup/internal/env"
	"github.com/verte-zerg/guessup/internal/history"
	"github.com/verte-zerg/guessup/internal/historyui"
	"github.com/verte-zerg/guessup/internal/sound"
	"github.com/verte-zerg/guessup/internal/stats"
	"github.com/verte-zerg/guessup/internal/tui"
)

const defaultCurveWindow = 10

var (
	playDeck       string
	playDeckDir    string
	playTimer      int
	playCountdown  int
	playLocale     string
	playSound      bool
	playFeedbackMs int
	playTilt       bool

	decksAll     bool
	decksLocale  string
	decksDeckDir string

	historyDeck        string
	historyLast        int
	historyCurveWindow int
	historyBrowse      bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "guessup",
		Short:         "TUI charades party game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playDeck, "deck", "", "deck id to play (default: interactive picker)")
	rootCmd.Flags().StringVar(&playDeckDir, "deck-dir", config.DefaultDeckDir(), "directory with custom deck files")
	rootCmd.Flags().IntVar(&playTimer, "timer", config.DefaultTimer, "round length in seconds")
	rootCmd.Flags().IntVar(&playCountdown, "countdown", config.DefaultCountdown, "countdown before each round")
	rootCmd.Flags().StringVar(&playLocale, "locale", config.DefaultLocale, "preferred deck locale")
	rootCmd.Flags().BoolVar(&playSound, "sound", config.DefaultSound, "timer and scoring sounds")
	rootCmd.Flags().IntVar(&playFeedbackMs, "feedback-ms", config.DefaultFeedbackMs, "feedback pulse duration in milliseconds")
	rootCmd.Flags().BoolVar(&playTilt, "tilt", config.DefaultTilt, "use the orientation sensor when available")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDecksCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "timer", &playTimer, fileCfg.Game.Timer)
	applyIntConfig(cmd, "countdown", &playCountdown, fileCfg.Game.Countdown)
	applyStringConfig(cmd, "locale", &playLocale, fileCfg.Game.Locale)
	applyBoolConfig(cmd, "sound", &playSound, fileCfg.Game.Sound)
	applyIntConfig(cmd, "feedback-ms", &playFeedbackMs, fileCfg.Game.FeedbackMs)
	applyBoolConfig(cmd, "tilt", &playTilt, fileCfg.Game.Tilt)

	settings := config.Settings{
		Timer:      playTimer,
		Countdown:  playCountdown,
		Locale:     playLocale,
		Sound:      playSound,
		FeedbackMs: playFeedbackMs,
		Tilt:       playTilt,
	}
	if err := validateSettings(settings); err != nil {
		return err
	}

	decks, err := deck.Load(playDeckDir)
	if err != nil {
		return fmt.Errorf("failed to load decks: %w", err)
	}
	displayed := deck.Displayed(decks, settings.Locale)
	if playDeck != "" {
		chosen, ok := deck.Find(decks, playDeck)
		if !ok {
			return fmt.Errorf("unknown deck %q (run: guessup decks)", playDeck)
		}
		displayed = []deck.Deck{chosen}
	}
	if len(displayed) == 0 {
		return fmt.Errorf("no decks found for locale %q", settings.Locale)
	}

	st, err := history.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	model := tui.NewModel(displayed, settings, st, env.Terminal{}, sound.NewBell(settings.Sound))
	program := tea.NewProgram(model, tea.WithAltScreen())
	model.SetSend(program.Send)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newDecksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "List available decks",
		Args:  cobra.NoArgs,
		RunE:  runDecksCmd,
	}
	cmd.Flags().BoolVar(&decksAll, "all", false, "include hidden decks and other locales")
	cmd.Flags().StringVar(&decksLocale, "locale", config.DefaultLocale, "preferred deck locale")
	cmd.Flags().StringVar(&decksDeckDir, "deck-dir", config.DefaultDeckDir(), "directory with custom deck files")
	return cmd
}

func runDecksCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "locale", &decksLocale, fileCfg.Game.Locale)

	decks, err := deck.Load(decksDeckDir)
	if err != nil {
		return fmt.Errorf("failed to load decks: %w", err)
	}
	if !decksAll {
		decks = deck.Displayed(decks, decksLocale)
	}
	if len(decks) == 0 {
		return fmt.Errorf("no decks found")
	}
	out := cmd.OutOrStdout()
	for _, d := range decks {
		marker := ""
		if d.Hidden {
			marker = "  (hidden)"
		}
		if _, err := fmt.Fprintf(out, "%-24s %-20s %s  %d cards%s\n", d.ID, d.Name, d.Locale, len(d.Cards), marker); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show game history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyDeck, "deck", "", "limit to one deck id")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N games")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window for the accuracy trend")
	cmd.Flags().BoolVar(&historyBrowse, "browse", false, "open the interactive browser")
	cmd.AddCommand(newHistoryClearCmd())
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	st, err := history.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	var records []history.Record
	if historyDeck != "" {
		records, err = st.ForDeck(ctx, historyDeck)
	} else {
		records, err = st.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if historyLast > 0 && len(records) > historyLast {
		records = records[:historyLast]
	}

	if historyBrowse {
		program := tea.NewProgram(historyui.NewModel(records), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run history TUI: %w", err)
		}
		return nil
	}
	return stats.WriteReport(cmd.OutOrStdout(), records, historyCurveWindow, stats.TermWidth(), 0)
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded games",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClearCmd,
	}
}

func runHistoryClearCmd(_ *cobra.Command, _ []string) error {
	st, err := history.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := st.Clear(context.Background()); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	logErrln("History cleared.")
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func validateSettings(s config.Settings) error {
	if s.Timer <= 0 {
		return fmt.Errorf("--timer must be > 0")
	}
	if s.Countdown < 0 {
		return fmt.Errorf("--countdown must be >= 0")
	}
	if s.Locale == "" {
		return fmt.Errorf("--locale must not be empty")
	}
	if s.FeedbackMs <= 0 {
		return fmt.Errorf("--feedback-ms must be > 0")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# guessup configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# timer = %d             # Round length in seconds (picker offers 60/90/120)
# countdown = %d           # Countdown before each round
# locale = %q           # Preferred deck locale
# sound = %t            # Timer and scoring sounds
# feedback-ms = %d      # Feedback pulse duration in milliseconds
# tilt = %t             # Use the orientation sensor when available
`,
		config.DefaultTimer,
		config.DefaultCountdown,
		config.DefaultLocale,
		config.DefaultSound,
		config.DefaultFeedbackMs,
		config.DefaultTilt,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
