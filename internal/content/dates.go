package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
)

// Date keywords understood in frontmatter.
const (
	dateGitLastModified = "git last modified"
	dateLastModified    = "last modified"
	dateCreated         = "created"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// GitDater resolves the last commit time of files in a work tree.
type GitDater struct {
	once sync.Once
	repo *git.Repository
	root string
	err  error
	dir  string

	mu    sync.Mutex
	cache map[string]time.Time
}

// NewGitDater prepares a dater for the repository containing dir. The
// repository is opened lazily.
func NewGitDater(dir string) *GitDater {
	return &GitDater{dir: dir, cache: make(map[string]time.Time)}
}

func (g *GitDater) open() error {
	g.once.Do(func() {
		abs, err := filepath.Abs(g.dir)
		if err != nil {
			g.err = err
			return
		}
		repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			g.err = fmt.Errorf("open git repository: %w", err)
			return
		}
		wt, err := repo.Worktree()
		if err != nil {
			g.err = fmt.Errorf("open worktree: %w", err)
			return
		}
		g.repo = repo
		g.root = wt.Filesystem.Root()
	})
	return g.err
}

// LastModified returns the committer time of the newest commit touching
// path, which is absolute or relative to the working directory.
func (g *GitDater) LastModified(path string) (time.Time, error) {
	if err := g.open(); err != nil {
		return time.Time{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, err
	}
	rel, err := filepath.Rel(g.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return time.Time{}, fmt.Errorf("%s is outside the repository", path)
	}
	rel = filepath.ToSlash(rel)

	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.cache[rel]; ok {
		return t, nil
	}

	iter, err := g.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return time.Time{}, fmt.Errorf("git log %s: %w", rel, err)
	}
	defer iter.Close()
	commit, err := iter.Next()
	if err != nil {
		return time.Time{}, fmt.Errorf("no commits for %s: %w", rel, err)
	}
	t := commit.Committer.When
	g.cache[rel] = t
	return t, nil
}

var errUnknownDate = errors.New("unrecognised date")

// resolveDate interprets a frontmatter date value. info describes the source
// file and dater may be nil when git dates are disabled.
func resolveDate(v any, path string, info os.FileInfo, dater *GitDater) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return info.ModTime(), nil
	case time.Time:
		return d, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(d)) {
		case dateGitLastModified:
			if dater == nil {
				return info.ModTime(), nil
			}
			t, err := dater.LastModified(path)
			if err != nil {
				// Uncommitted files fall back to the file time.
				return info.ModTime(), nil
			}
			return t, nil
		case dateLastModified, dateCreated:
			return info.ModTime(), nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(d)); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %v", errUnknownDate, v)
}
