// Package history handles SQLite persistence of finished game rounds.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // SQLite driver.
)

// MaxRecords is how many finished rounds are retained. Inserting beyond
// the cap drops the oldest records.
const MaxRecords = 100

// startedAtLayout stores start times as UTC with fixed-width fractional
// seconds so the text column sorts lexically in chronological order.
const startedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one finished round. Word lists hold display strings of the
// unique cards guessed or skipped during the round.
type Record struct {
	ID           string
	DeckID       string
	DeckName     string
	StartedAt    time.Time
	Duration     int // seconds actually played
	CorrectWords []string
	SkippedWords []string
	Accuracy     int // percentage 0-100
}

// Accuracy computes the round accuracy: round(100 * correct / (correct +
// skipped)), 0 when no attempts were made.
func Accuracy(correctWords, skippedWords []string) int {
	total := len(correctWords) + len(skippedWords)
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(len(correctWords)) / float64(total)))
}

// Store wraps SQLite access for game history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			deck_id TEXT NOT NULL,
			deck_name TEXT NOT NULL,
			started_at TEXT NOT NULL,
			duration INTEGER NOT NULL,
			correct_words TEXT NOT NULL,
			skipped_words TEXT NOT NULL,
			accuracy INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_started_at ON games(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_games_deck_id ON games(deck_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append stores a finished round, assigning its ID and accuracy, and
// trims history beyond MaxRecords in the same transaction. It returns
// the completed record.
func (s *Store) Append(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	rec.Accuracy = Accuracy(rec.CorrectWords, rec.SkippedWords)

	correct, err := encodeWords(rec.CorrectWords)
	if err != nil {
		return Record{}, err
	}
	skipped, err := encodeWords(rec.SkippedWords)
	if err != nil {
		return Record{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (id, deck_id, deck_name, started_at, duration, correct_words, skipped_words, accuracy)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.DeckID,
		rec.DeckName,
		rec.StartedAt.UTC().Format(startedAtLayout),
		rec.Duration,
		correct,
		skipped,
		rec.Accuracy,
	)
	if err != nil {
		return Record{}, err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM games WHERE id NOT IN (
			SELECT id FROM games ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, MaxRecords)
	if err != nil {
		return Record{}, err
	}

	if err = tx.Commit(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns retained records, newest first. Rows whose word lists
// fail to decode are skipped with a warning rather than failing the
// whole listing.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	return s.list(ctx, "")
}

// ForDeck returns the retained records for one deck, newest first.
func (s *Store) ForDeck(ctx context.Context, deckID string) ([]Record, error) {
	return s.list(ctx, deckID)
}

func (s *Store) list(ctx context.Context, deckID string) ([]Record, error) {
	query := `SELECT id, deck_id, deck_name, started_at, duration, correct_words, skipped_words, accuracy
		FROM games
		WHERE (? = '' OR deck_id = ?)
		ORDER BY started_at DESC, rowid DESC`
	rows, err := s.db.QueryContext(ctx, query, deckID, deckID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []Record
	for rows.Next() {
		var rec Record
		var startedAt, correct, skipped string
		if err := rows.Scan(&rec.ID, &rec.DeckID, &rec.DeckName, &startedAt, &rec.Duration, &correct, &skipped, &rec.Accuracy); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			logErrf("skipping history record %s: bad start time: %v\n", rec.ID, err)
			continue
		}
		rec.StartedAt = parsed
		if rec.CorrectWords, err = decodeWords(correct); err != nil {
			logErrf("skipping history record %s: %v\n", rec.ID, err)
			continue
		}
		if rec.SkippedWords, err = decodeWords(skipped); err != nil {
			logErrf("skipping history record %s: %v\n", rec.ID, err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Clear removes all retained records.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM games`)
	return err
}

func encodeWords(words []string) (string, error) {
	if words == nil {
		words = []string{}
	}
	data, err := json.Marshal(words)
	if err != nil {
		return "", fmt.Errorf("failed to encode word list: %w", err)
	}
	return string(data), nil
}

func decodeWords(data string) ([]string, error) {
	var words []string
	if err := json.Unmarshal([]byte(data), &words); err != nil {
		return nil, fmt.Errorf("failed to decode word list: %w", err)
	}
	return words, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
