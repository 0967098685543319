// Package project parses source files and aggregates them into a
// ProjectGraph.
package project

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/codegraph/internal/discover"
	"github.com/DeusData/codegraph/internal/extract"
	"github.com/DeusData/codegraph/internal/lang"
	"github.com/DeusData/codegraph/internal/parser"
)

// ErrInvalidRoot is returned when a root path is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid project root")

// ParsedFile is the result of parsing one file. A file that could not be
// read or parsed is still present, with empty metadata and a parse error.
type ParsedFile struct {
	Path        string                `json:"path"` // root-relative, slash-separated
	AbsPath     string                `json:"-"`
	SizeBytes   int64                 `json:"size_bytes"`
	LineCount   int                   `json:"line_count"`
	ContentHash string                `json:"content_hash,omitempty"`
	Parsed      bool                  `json:"parsed"` // a syntax tree was produced
	Metadata    *extract.FileMetadata `json:"metadata"`
	ParseErrors []string              `json:"parse_errors"`
}

// ProjectGraph aggregates every parsed file under the project roots.
type ProjectGraph struct {
	Root           string        `json:"root"`
	TotalFiles     int           `json:"total_files"`
	TotalLines     int           `json:"total_lines"`
	TotalSizeBytes int64         `json:"total_size_bytes"`
	Files          []*ParsedFile `json:"files"`
	Errors         []string      `json:"errors"`
}

// ProgressFunc observes aggregation. index is the 1-based count of files
// finished so far.
type ProgressFunc func(index, total int, path string)

// Options configures Parse.
type Options struct {
	Extension      string   // defaults to ".py"
	IgnorePatterns []string // nil means discover.DefaultIgnorePatterns
	Workers        int      // defaults to runtime.NumCPU()
	Progress       ProgressFunc
}

// ParseFile reads and parses the file at path. root determines the file's
// relative path. ParseFile never fails; problems land in ParseErrors.
func ParseFile(path, root string) *ParsedFile {
	rel := relPath(root, path)
	pf := &ParsedFile{
		Path:        rel,
		AbsPath:     path,
		Metadata:    extract.NewFileMetadata(),
		ParseErrors: []string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return pf.failed(path, err)
	}
	l, ok := lang.LanguageForExtension(filepath.Ext(path))
	if !ok {
		return pf.failed(path, fmt.Errorf("unsupported file extension %q", filepath.Ext(path)))
	}
	tree, err := parser.ParseSyntax(l, stripBOM(data))
	if err != nil {
		return pf.failed(path, err)
	}

	pf.Parsed = true
	pf.SizeBytes = int64(len(data))
	pf.LineCount = bytes.Count(data, []byte{'\n'}) + 1
	pf.ContentHash = contentHash(data)
	pf.Metadata = extract.Extract(tree.Root, "")
	if tree.HasError {
		pf.ParseErrors = append(pf.ParseErrors, "Syntax error in "+rel)
	}
	return pf
}

func (pf *ParsedFile) failed(path string, err error) *ParsedFile {
	pf.SizeBytes = 0
	pf.LineCount = 0
	pf.Metadata = extract.NewFileMetadata()
	pf.ParseErrors = []string{fmt.Sprintf("Failed to parse %s: %v", path, err)}
	return pf
}

// Parse discovers and parses every matching file under roots. File paths are
// relative to the deepest directory containing all roots. Files are parsed in
// parallel and reported in sorted absolute-path order.
func Parse(ctx context.Context, roots []string, opts Options) (*ProjectGraph, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no roots given", ErrInvalidRoot)
	}
	absRoots := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := validateRoot(r)
		if err != nil {
			return nil, err
		}
		absRoots = append(absRoots, abs)
	}
	base := commonDir(absRoots)

	ext := opts.Extension
	if ext == "" {
		ext = discover.DefaultExtension
	}

	seen := map[string]bool{}
	var paths []string
	for _, r := range absRoots {
		files, err := discover.Discover(ctx, r, &discover.Options{
			Extension:      ext,
			IgnorePatterns: opts.IgnorePatterns,
		})
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", r, err)
		}
		for _, f := range files {
			if !seen[f.Path] {
				seen[f.Path] = true
				paths = append(paths, f.Path)
			}
		}
	}
	sort.Strings(paths)

	graph := &ProjectGraph{
		Root:   base,
		Files:  []*ParsedFile{},
		Errors: []string{},
	}
	if len(paths) == 0 {
		graph.Errors = append(graph.Errors,
			fmt.Sprintf("No %s files found in %s", ext, strings.Join(absRoots, ", ")))
		return graph, nil
	}

	results, err := parseAll(ctx, paths, base, opts)
	if err != nil {
		return nil, err
	}

	for _, pf := range results {
		graph.Files = append(graph.Files, pf)
		graph.TotalLines += pf.LineCount
		graph.TotalSizeBytes += pf.SizeBytes
		for _, e := range pf.ParseErrors {
			slog.Warn("parse.file_error", "path", pf.Path, "err", e)
		}
		graph.Errors = append(graph.Errors, pf.ParseErrors...)
	}
	graph.TotalFiles = len(graph.Files)
	return graph, nil
}

// parseAll fans ParseFile out over a worker pool. Results keep the order of
// paths.
func parseAll(ctx context.Context, paths []string, base string, opts Options) ([]*ParsedFile, error) {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	results := make([]*ParsedFile, len(paths))
	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = ParseFile(path, base)
			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(done, len(paths), results[i].Path)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse files: %w", err)
	}
	return results, nil
}

func validateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s does not exist", ErrInvalidRoot, root)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}
	return abs, nil
}

// commonDir returns the deepest directory that contains every path.
func commonDir(paths []string) string {
	base := filepath.Clean(paths[0])
	for _, p := range paths[1:] {
		p = filepath.Clean(p)
		for !within(base, p) {
			parent := filepath.Dir(base)
			if parent == base {
				break
			}
			base = parent
		}
	}
	return base
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func stripBOM(source []byte) []byte {
	if len(source) >= 3 && source[0] == 0xEF && source[1] == 0xBB && source[2] == 0xBF {
		return source[3:]
	}
	return source
}

func contentHash(data []byte) string {
	h := xxh3.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
