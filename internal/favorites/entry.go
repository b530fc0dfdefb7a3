package favorites

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyPath is returned when a favorite path is empty.
var ErrEmptyPath = errors.New("favorites: empty path")

// ErrMalformed is returned by ParseEntry for text that is not "count:path".
var ErrMalformed = errors.New("favorites: malformed entry")

// State distinguishes live favorites from ones marked for removal.
type State int

const (
	// Active entries are eligible for snapshots.
	Active State = iota
	// Removed entries are tombstones, compacted on the next load.
	Removed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Entry is one favorite. Identity is Path; Count is the usage count.
type Entry struct {
	Path  string
	Count int
	State State

	seq int
}

// String renders the entry as "count:path".
func (e Entry) String() string {
	return strconv.Itoa(e.Count) + ":" + e.Path
}

// ParseEntry parses the "count:path" form produced by String. A count of
// zero or less yields a Removed entry.
func ParseEntry(s string) (Entry, error) {
	countText, path, ok := strings.Cut(s, ":")
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	count, err := strconv.Atoi(strings.TrimSpace(countText))
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bad count in %q", ErrMalformed, s)
	}
	if path == "" {
		return Entry{}, fmt.Errorf("%w: %q", ErrEmptyPath, s)
	}

	e := Entry{Path: path, Count: count}
	if count <= 0 {
		e.State = Removed
	}
	return e, nil
}

func (e Entry) live() bool {
	return e.State == Active && e.Count > 0
}
