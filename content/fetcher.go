package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// idPattern restricts content IDs to characters that are safe as file names
// and as storage keys.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]*$`)

// Fetcher loads a content record with every relation needed for graph
// construction.
type Fetcher interface {
	FetchArticle(ctx context.Context, id string) (*Article, error)
}

// ValidateID reports whether id is a well-formed content ID.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid content id %q", id)
	}
	return nil
}

// FileFetcher reads articles exported as one JSON document per file
// (<dir>/<id>.json).
type FileFetcher struct {
	dir string
}

// NewFileFetcher creates a fetcher rooted at dir.
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{dir: dir}
}

// Dir returns the directory the fetcher reads from.
func (f *FileFetcher) Dir() string {
	return f.dir
}

// FetchArticle loads the article with the given ID.
func (f *FileFetcher) FetchArticle(ctx context.Context, id string) (*Article, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(f.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read article %s: %w", id, err)
	}

	var a Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse article %s: %w", id, err)
	}
	if a.ID == "" {
		a.ID = id
	}
	return &a, nil
}

// ResolveIDs expands a glob pattern (with ** support) relative to dir and
// returns the content IDs of the matching JSON files, in match order.
func ResolveIDs(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.json"
	}
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(dir, pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		id, ok := IDFromPath(match)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IDFromPath derives the content ID from a record file path.
func IDFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".json") {
		return "", false
	}
	id := strings.TrimSuffix(base, ".json")
	if ValidateID(id) != nil {
		return "", false
	}
	return id, true
}
