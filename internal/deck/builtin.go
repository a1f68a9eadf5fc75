package deck

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed builtin
var builtinFS embed.FS

// Builtin returns the decks shipped with the binary.
func Builtin() ([]Deck, error) {
	sub, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("failed to open builtin decks: %w", err)
	}
	return LoadFS(sub)
}

// Load combines builtin decks with user deck files from userDir and
// resolves extends references across the whole set. A user deck whose ID
// collides with a builtin deck replaces it.
func Load(userDir string) ([]Deck, error) {
	builtin, err := Builtin()
	if err != nil {
		return nil, err
	}
	user, err := LoadDir(userDir)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(builtin))
	merged := make([]Deck, 0, len(builtin)+len(user))
	for _, d := range builtin {
		byID[d.ID] = len(merged)
		merged = append(merged, d)
	}
	for _, d := range user {
		if idx, ok := byID[d.ID]; ok {
			merged[idx] = d
			continue
		}
		byID[d.ID] = len(merged)
		merged = append(merged, d)
	}

	return Resolve(merged), nil
}
