// Package deck loads card decks from authored files and resolves deck
// inheritance into flat card lists.
package deck

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/guessup/internal/card"
)

// Deck is a named collection of cards. File-backed decks derive their ID
// as "<locale>-<basename>"; "<locale>/<basename>" is accepted as an
// equivalent spelling in extends references.
type Deck struct {
	ID          string
	Name        string
	Description string
	Locale      string
	Cards       []card.Card
	Extends     []string
	Hidden      bool
}

// StringList decodes a YAML value that may be a single scalar or a
// sequence of scalars.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = StringList(items)
		return nil
	default:
		return fmt.Errorf("extends must be a string or a list of strings")
	}
}

type header struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Locale      string     `yaml:"locale"`
	Extends     StringList `yaml:"extends"`
	Hidden      bool       `yaml:"hidden"`
}

// LoadFS walks fsys for "<locale>/<name>.md" deck files and parses them.
// Files that fail to parse are logged and skipped.
func LoadFS(fsys fs.FS) ([]Deck, error) {
	var decks []Deck
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read deck file %s: %w", p, err)
		}
		parsed, err := parseFile(p, data)
		if err != nil {
			logErrf("skipping deck file %s: %v\n", p, err)
			return nil
		}
		decks = append(decks, parsed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decks, nil
}

// LoadDir loads user deck files from a directory on disk. A missing
// directory is not an error: the user simply has no custom decks.
func LoadDir(dir string) ([]Deck, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat deck directory: %w", err)
	}
	return LoadFS(os.DirFS(dir))
}

// parseFile parses one authored deck file. The file may open with a
// "---"-delimited YAML header (name, description, locale, extends,
// hidden) followed by one card per line. Lines starting with "#" and
// blank lines are ignored.
func parseFile(p string, data []byte) (Deck, error) {
	locale := path.Dir(p)
	if locale == "." {
		locale = ""
	} else {
		// Only the top-level directory names the locale.
		locale = strings.SplitN(locale, "/", 2)[0]
	}
	base := strings.TrimSuffix(path.Base(p), ".md")

	head, body, err := splitFrontmatter(string(data))
	if err != nil {
		return Deck{}, err
	}

	var h header
	if head != "" {
		if err := yaml.Unmarshal([]byte(head), &h); err != nil {
			return Deck{}, fmt.Errorf("failed to parse deck header: %w", err)
		}
	}

	var cards []card.Card
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cards = append(cards, card.Parse(line))
	}

	d := Deck{
		Name:        h.Name,
		Description: h.Description,
		Locale:      h.Locale,
		Cards:       cards,
		Extends:     []string(h.Extends),
		Hidden:      h.Hidden,
	}
	if d.Name == "" {
		d.Name = base
	}
	if d.Locale == "" {
		d.Locale = locale
	}
	if d.Locale == "" {
		return Deck{}, fmt.Errorf("deck has no locale (place the file under a locale directory or set locale in the header)")
	}
	d.ID = d.Locale + "-" + base
	return d, nil
}

// splitFrontmatter separates an optional leading "---" YAML block from
// the card body. Windows-authored files arrive with CRLF endings, so
// they are normalized before the delimiter checks.
func splitFrontmatter(content string) (head, body string, err error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	trimmed := strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(trimmed, "---\n") && trimmed != "---" {
		return "", trimmed, nil
	}
	rest := strings.TrimPrefix(trimmed, "---\n")
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", "", fmt.Errorf("unterminated frontmatter block")
	}
	head = rest[:idx]
	body = rest[idx+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return head, body, nil
}

// Find returns the deck with the given ID.
func Find(decks []Deck, id string) (Deck, bool) {
	for _, d := range decks {
		if d.ID == id {
			return d, true
		}
	}
	return Deck{}, false
}

// Displayed orders visible decks for selection: decks matching the
// preferred locale first, then everything else.
func Displayed(decks []Deck, locale string) []Deck {
	var current, other []Deck
	for _, d := range decks {
		if d.Hidden {
			continue
		}
		if d.Locale == locale {
			current = append(current, d)
		} else {
			other = append(other, d)
		}
	}
	return append(current, other...)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
