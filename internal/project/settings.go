package project

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"adhoc-index/internal/logging"
)

const (
	DefaultMaxFavorites       = 20
	DefaultFavoriteUsageCount = 1
	DefaultCharset            = "UTF-8"

	keyName               = "name"
	keyCharset            = "charset"
	keyMaxFavorites       = "maxFavorites"
	keyFavoriteUsageCount = "favoriteUsageCount"
	favoritesNode         = "favorites"
)

// ErrUnknownCharset is returned for charset names missing from the IANA registry.
var ErrUnknownCharset = errors.New("unknown charset")

// Settings is a point-in-time view of a project's stored settings.
type Settings struct {
	Name               string
	Charset            string
	MaxFavorites       int
	FavoriteUsageCount int
}

// CanonicalCharset returns the IANA name for charset. An empty name means
// DefaultCharset.
func CanonicalCharset(charset string) (string, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		return DefaultCharset, nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCharset, charset)
	}
	if enc == nil {
		// Registered but without an implementation; keep the caller's spelling.
		return charset, nil
	}
	name, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return charset, nil
	}
	return name, nil
}

// Settings returns the project's current settings. Read failures fall back
// to defaults.
func (p *Project) Settings() Settings {
	return Settings{
		Name:               p.Name(),
		Charset:            p.Charset(),
		MaxFavorites:       p.MaxFavorites(),
		FavoriteUsageCount: p.FavoriteUsageCount(),
	}
}

// Name returns the display name, which defaults to the directory name.
func (p *Project) Name() string {
	node := p.Prefs()
	name, err := node.Get(keyName, "")
	if err != nil {
		logging.Warn("Failed to read project name: %v", err)
	}
	if name == "" {
		return p.tree().Root().Name()
	}
	return name
}

// SetName stores a display name.
func (p *Project) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if name == p.Name() {
		return nil
	}
	return p.Prefs().Put(keyName, name)
}

// Charset returns the stored charset, or DefaultCharset.
func (p *Project) Charset() string {
	charset, err := p.Prefs().Get(keyCharset, DefaultCharset)
	if err != nil {
		logging.Warn("Failed to read project charset: %v", err)
		return DefaultCharset
	}
	if _, err := CanonicalCharset(charset); err != nil {
		logging.Warn("Ignoring stored charset: %v", err)
		return DefaultCharset
	}
	return charset
}

// SetCharset validates charset and stores its canonical name. An empty name
// resets it to DefaultCharset.
func (p *Project) SetCharset(charset string) error {
	name, err := CanonicalCharset(charset)
	if err != nil {
		return err
	}
	return p.Prefs().Put(keyCharset, name)
}

// MaxFavorites returns how many favorites a snapshot may hold.
func (p *Project) MaxFavorites() int {
	return p.intSetting(keyMaxFavorites, DefaultMaxFavorites)
}

// SetMaxFavorites stores the capacity and republishes favorites if it changed.
func (p *Project) SetMaxFavorites(n int) error {
	return p.setPolicy(keyMaxFavorites, DefaultMaxFavorites, n)
}

// FavoriteUsageCount returns the minimum use count for a favorite to show.
func (p *Project) FavoriteUsageCount() int {
	return p.intSetting(keyFavoriteUsageCount, DefaultFavoriteUsageCount)
}

// SetFavoriteUsageCount stores the threshold and republishes favorites if it
// changed.
func (p *Project) SetFavoriteUsageCount(n int) error {
	return p.setPolicy(keyFavoriteUsageCount, DefaultFavoriteUsageCount, n)
}

func (p *Project) intSetting(key string, def int) int {
	v, err := p.Prefs().Int(key, def)
	if err != nil {
		logging.Warn("Failed to read %s: %v", key, err)
		return def
	}
	return max(v, 1)
}

// setPolicy stores a favorites knob. Values below 1 are stored as 1.
func (p *Project) setPolicy(key string, def, n int) error {
	n = max(n, 1)
	if p.intSetting(key, def) == n {
		return nil
	}
	if err := p.Prefs().PutInt(key, n); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	p.publishFavorites()
	return nil
}
