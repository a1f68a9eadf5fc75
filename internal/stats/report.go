package stats

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/guessup/internal/history"
)

const terminalWidthBackup = 80

// TermWidth returns the current terminal width, or a backup value when
// stdout is not a terminal.
func TermWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// WriteReport renders the plain-text history report: totals, an
// accuracy trend, per-deck aggregates, and the most recent rounds.
// Records arrive newest first. recentRows limits the rounds table;
// zero means all retained records.
func WriteReport(w io.Writer, records []history.Record, curveWindow, width, recentRows int) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No games played yet.")
		return err
	}
	if width <= 0 {
		width = terminalWidthBackup
	}

	totals := Summarize(records)
	if _, err := fmt.Fprintf(w, "Games played:  %d\n", totals.Plays); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Time played:   %s\n", formatSeconds(totals.TotalSeconds)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg accuracy:  %.0f%%\n", totals.AvgAccuracy); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Unique words:  %d\n", totals.UniqueWords); err != nil {
		return err
	}

	series := AccuracySeries(records)
	trendWidth := width - 12
	if len(series) > 1 && trendWidth > 0 {
		smoothed := MovingAverage(series, curveWindow)
		if len(smoothed) > trendWidth {
			smoothed = smoothed[len(smoothed)-trendWidth:]
		}
		if _, err := fmt.Fprintf(w, "\nAccuracy trend (oldest to newest):\n  %s\n", Sparkline(smoothed)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "\nBy deck:"); err != nil {
		return err
	}
	deckRows := [][]string{}
	for _, s := range ByDeck(records) {
		deckRows = append(deckRows, []string{
			s.DeckName,
			strconv.Itoa(s.Plays),
			fmt.Sprintf("%.0f%%", s.AvgAccuracy),
			fmt.Sprintf("%d%%", s.BestAccuracy),
			formatSeconds(s.TotalSeconds),
		})
	}
	deckTable := formatTable(
		[]string{"Deck", "Plays", "Avg", "Best", "Time"},
		deckRows,
		map[int]bool{1: true, 2: true, 3: true, 4: true},
	)
	for _, line := range deckTable {
		if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "\nRecent rounds:"); err != nil {
		return err
	}
	recent := records
	if recentRows > 0 && len(recent) > recentRows {
		recent = recent[:recentRows]
	}
	roundRows := [][]string{}
	for _, rec := range recent {
		roundRows = append(roundRows, []string{
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			rec.DeckName,
			fmt.Sprintf("%d/%d", len(rec.CorrectWords), len(rec.CorrectWords)+len(rec.SkippedWords)),
			fmt.Sprintf("%d%%", rec.Accuracy),
			formatSeconds(rec.Duration),
		})
	}
	roundTable := formatTable(
		[]string{"When", "Deck", "Guessed", "Accuracy", "Duration"},
		roundRows,
		map[int]bool{2: true, 3: true, 4: true},
	)
	for _, line := range roundTable {
		if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func formatSeconds(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), seconds%60)
}
