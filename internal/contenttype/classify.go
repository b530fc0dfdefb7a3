package contenttype

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category is the display grouping derived from a raw content type.
// Two categories are the same group when their display names are equal,
// whatever raw spelling produced them.
type Category struct {
	rawType     string
	displayName string
}

// RawType returns the content type the category was classified from.
func (c Category) RawType() string {
	return c.rawType
}

// DisplayName returns the friendly name used for grouping and ordering.
func (c Category) DisplayName() string {
	return c.displayName
}

// String returns the display name.
func (c Category) String() string {
	return c.displayName
}

// Key returns the identity of the category.
func (c Category) Key() string {
	return c.displayName
}

// Equal reports whether both categories group the same files.
func (c Category) Equal(other Category) bool {
	return c.displayName == other.displayName
}

// Resolved reports whether the display name is a friendly name rather than
// the raw major/minor string.
func (c Category) Resolved() bool {
	return !strings.Contains(c.displayName, "/")
}

// IsZero reports whether c is the zero Category.
func (c Category) IsZero() bool {
	return c.rawType == "" && c.displayName == ""
}

var friendlyNames = map[string]string{
	"text/x-java":            "Java",
	"application/javascript": "Javascript",
	"text/x-javascript":      "Javascript",
	"text/javascript":        "Javascript",
	"text/html":              "HTML",
	"text/xml":               "XML",
	"text/plain":             "Text",
	"application/unknown":    "Unknown",
	UnknownType:              "Unknown",
	"application/pdf":        "PDFs",
	"application/vnd.ms-wpl": "Playlists",
	"image/svg":              "Images",
}

func init() {
	for ext := range ImageExtensions {
		friendlyNames[MimeTypes[ext]] = "Images"
	}
	for ext := range VideoExtensions {
		friendlyNames[MimeTypes[ext]] = "Videos"
	}
}

// Classify maps a raw content type to its Category. It is pure and safe for
// concurrent use.
func Classify(rawType string) Category {
	t := stripParameters(rawType)
	if t == "" {
		t = UnknownType
	}
	return Category{
		rawType:     rawType,
		displayName: displayName(t),
	}
}

// stripParameters trims rawType and drops MIME parameters. Case is kept so
// unresolved names show the type as written.
func stripParameters(rawType string) string {
	if i := strings.IndexByte(rawType, ';'); i >= 0 {
		rawType = rawType[:i]
	}
	return strings.TrimSpace(rawType)
}

// displayName matches t case-insensitively but builds names from t as given.
func displayName(t string) string {
	lower := strings.ToLower(t)
	if name, ok := friendlyNames[lower]; ok {
		return name
	}
	if strings.HasPrefix(lower, "text/xml") {
		return "XML"
	}

	var minor string
	switch {
	case hasPrefixFold(t, "text/") && len(t) > len("text/"):
		minor = t[len("text/"):]
	case hasPrefixFold(t, "application/") && len(t) > len("application/"):
		minor = t[len("application/"):]
	default:
		return t
	}

	if len(minor) > 2 && hasPrefixFold(minor, "x-") {
		minor = minor[2:]
	}
	return upperFirst(minor)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Compare orders categories: resolved names first, then case-insensitively by
// display name. It returns a negative number when a sorts before b.
func Compare(a, b Category) int {
	aResolved, bResolved := a.Resolved(), b.Resolved()
	if aResolved != bResolved {
		if aResolved {
			return -1
		}
		return 1
	}
	if c := strings.Compare(strings.ToLower(a.displayName), strings.ToLower(b.displayName)); c != 0 {
		return c
	}
	return strings.Compare(a.displayName, b.displayName)
}

// Sort sorts categories in place by Compare.
func Sort(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		return Compare(categories[i], categories[j]) < 0
	})
}
