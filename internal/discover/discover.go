package discover

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultExtension is the file extension discovered when none is configured.
const DefaultExtension = ".py"

// IgnoreFileName is the optional gitignore-style file read from each root.
const IgnoreFileName = ".codegraphignore"

// DefaultIgnorePatterns are path substrings excluded from discovery:
// version control, caches, virtual environments, build output and IDE
// metadata. They are matched against "/" + the root-relative path.
var DefaultIgnorePatterns = []string{
	"/.git/", "/.hg/", "/.svn/",
	"/__pycache__/", "/.pytest_cache/", "/.mypy_cache/", "/.ruff_cache/",
	"/.tox/", "/.nox/", "/.cache/",
	"/venv/", "/.venv/", "/env/", "/.env/", "/site-packages/", "/node_modules/",
	"/build/", "/dist/", "/.eggs/", ".egg-info/",
	"/.idea/", "/.vscode/", "/.vs/",
}

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // relative to the discovery root, slash-separated
}

// Options configures file discovery.
type Options struct {
	Extension      string   // defaults to DefaultExtension
	IgnorePatterns []string // nil means DefaultIgnorePatterns
	IgnoreFile     string   // gitignore-style file; defaults to <root>/.codegraphignore
}

func (o *Options) extension() string {
	if o == nil || o.Extension == "" {
		return DefaultExtension
	}
	if !strings.HasPrefix(o.Extension, ".") {
		return "." + o.Extension
	}
	return o.Extension
}

func (o *Options) patterns() []string {
	if o == nil || o.IgnorePatterns == nil {
		return DefaultIgnorePatterns
	}
	return o.IgnorePatterns
}

// Ignored reports whether the slash-separated relative path contains any of
// patterns. Directories should be passed with a trailing slash.
func Ignored(rel string, patterns []string) bool {
	p := "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
	for _, pattern := range patterns {
		if pattern != "" && strings.Contains(p, pattern) {
			return true
		}
	}
	return false
}

// Discover walks root and returns the files carrying the configured
// extension, sorted by absolute path.
func Discover(ctx context.Context, root string, opts *Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// Check cancellation before starting walk
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := opts.extension()
	patterns := opts.patterns()

	ignPath := filepath.Join(root, IgnoreFileName)
	if opts != nil && opts.IgnoreFile != "" {
		ignPath = opts.IgnoreFile
	}
	gitIgnore := loadIgnoreFile(ignPath)

	var files []FileInfo

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if path == root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if Ignored(rel+"/", patterns) || (gitIgnore != nil && gitIgnore.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || filepath.Ext(path) != ext {
			return nil
		}
		if Ignored(rel, patterns) || (gitIgnore != nil && gitIgnore.MatchesPath(rel)) {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: rel,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func loadIgnoreFile(path string) *ignore.GitIgnore {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
