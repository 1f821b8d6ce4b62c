// Per-keyword page snapshots written by the fetch step and read by the parse step

package cache

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gofrs/flock"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Dir holds at most one snapshot per keyword. A snapshot belongs to the
// keyword step that created it and is released when that step ends.
type Dir struct {
	path string
}

// Open creates the cache directory when missing.
func Open(path string) (*Dir, error) {
	if path == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Slug turns a keyword into a file-name safe token:
// "Café Data/Pull" -> "cafe-data-pull"
func Slug(keyword string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, keyword)
	if err != nil {
		folded = keyword
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "keyword"
	}
	return slug
}

// Lock claims the directory for one run. A second run sharing it would
// overwrite this run's snapshots, so it gets an error instead.
func (d *Dir) Lock() (unlock func() error, err error) {
	fl := flock.New(filepath.Join(d.path, ".lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock cache directory: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("cache directory %s is in use by another run", d.path)
	}
	return fl.Unlock, nil
}

// Path is where the snapshot for keyword lives.
func (d *Dir) Path(keyword string) string {
	return filepath.Join(d.path, Slug(keyword)+".html")
}

// Write stores markup for keyword, overwriting any earlier snapshot.
func (d *Dir) Write(keyword, markup string) error {
	return os.WriteFile(d.Path(keyword), []byte(markup), 0644)
}

func (d *Dir) Read(keyword string) (string, error) {
	data, err := os.ReadFile(d.Path(keyword))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Release removes the keyword's snapshot. Removal is best effort: a failure is
// logged and the file stays behind until the next pass overwrites it.
func (d *Dir) Release(keyword string) {
	err := os.Remove(d.Path(keyword))
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return
	}
	log.Printf("⚠️ Could not remove cache file for '%s': %v", keyword, err)
}
