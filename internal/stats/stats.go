// Package stats contains history aggregation and reporting.
package stats

import (
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/guessup/internal/history"
)

const sparkChars = " .:-=+*#%@"

// DeckSummary aggregates retained rounds for one deck.
type DeckSummary struct {
	DeckID       string
	DeckName     string
	Plays        int
	AvgAccuracy  float64
	BestAccuracy int
	TotalSeconds int
}

// Totals summarizes the whole retained history.
type Totals struct {
	Plays        int
	TotalSeconds int
	AvgAccuracy  float64
	UniqueWords  int
}

// Summarize computes overall totals from history records.
func Summarize(records []history.Record) Totals {
	var t Totals
	words := map[string]struct{}{}
	accSum := 0
	for _, rec := range records {
		t.Plays++
		t.TotalSeconds += rec.Duration
		accSum += rec.Accuracy
		for _, w := range rec.CorrectWords {
			words[w] = struct{}{}
		}
		for _, w := range rec.SkippedWords {
			words[w] = struct{}{}
		}
	}
	t.UniqueWords = len(words)
	if t.Plays > 0 {
		t.AvgAccuracy = float64(accSum) / float64(t.Plays)
	}
	return t
}

// ByDeck groups records into per-deck summaries, most played first.
func ByDeck(records []history.Record) []DeckSummary {
	byID := map[string]*DeckSummary{}
	order := []string{}
	accSums := map[string]int{}
	for _, rec := range records {
		s, ok := byID[rec.DeckID]
		if !ok {
			s = &DeckSummary{DeckID: rec.DeckID, DeckName: rec.DeckName}
			byID[rec.DeckID] = s
			order = append(order, rec.DeckID)
		}
		s.Plays++
		s.TotalSeconds += rec.Duration
		accSums[rec.DeckID] += rec.Accuracy
		if rec.Accuracy > s.BestAccuracy {
			s.BestAccuracy = rec.Accuracy
		}
	}
	out := make([]DeckSummary, 0, len(order))
	for _, id := range order {
		s := byID[id]
		s.AvgAccuracy = float64(accSums[id]) / float64(s.Plays)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Plays > out[j].Plays })
	return out
}

// AccuracySeries returns per-round accuracy in chronological order.
// History listings arrive newest first.
func AccuracySeries(records []history.Record) []float64 {
	out := make([]float64, len(records))
	for i, rec := range records {
		out[len(records)-1-i] = float64(rec.Accuracy)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
