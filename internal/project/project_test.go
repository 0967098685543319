package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "pkg/a.py", "class Foo:\n    def bar(self):\n        x = 1\n")

	pf := ParseFile(path, dir)
	assert.Equal(t, "pkg/a.py", pf.Path)
	assert.Equal(t, int64(44), pf.SizeBytes)
	assert.Equal(t, 4, pf.LineCount)
	assert.Len(t, pf.ContentHash, 16)
	assert.Empty(t, pf.ParseErrors)
	require.Contains(t, pf.Metadata.Classes, "Foo")
	assert.Contains(t, pf.Metadata.Classes["Foo"].Methods, "Foo.bar")
}

func TestParseFileBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bom.py", "\xEF\xBB\xBFx = 1")

	pf := ParseFile(path, dir)
	assert.Empty(t, pf.ParseErrors)
	assert.Equal(t, []string{"x"}, pf.Metadata.Variables)
	assert.Equal(t, 1, pf.LineCount)
}

func TestParseFileSyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.py", "class Good:\n    pass\n\ndef broken(:\n")

	pf := ParseFile(path, dir)
	assert.Equal(t, []string{"Syntax error in bad.py"}, pf.ParseErrors)
	assert.True(t, pf.Parsed)
	assert.Contains(t, pf.Metadata.Classes, "Good")
	assert.NotZero(t, pf.SizeBytes)
}

func TestParseFileUnreadable(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "gone.py")

	pf := ParseFile(missing, dir)
	assert.Equal(t, "gone.py", pf.Path)
	require.Len(t, pf.ParseErrors, 1)
	assert.Contains(t, pf.ParseErrors[0], "Failed to parse "+missing)
	assert.Zero(t, pf.SizeBytes)
	assert.False(t, pf.Parsed)
	assert.Empty(t, pf.Metadata.Classes)
	assert.NotNil(t, pf.Metadata.Functions)
}

func TestParseProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.py", "import a\n")
	writeFile(t, dir, "a.py", "def f():\n    pass\n")
	writeFile(t, dir, "broken.py", "def broken(:\n")
	writeFile(t, dir, ".venv/lib/site.py", "x = 1\n")
	writeFile(t, dir, "notes.txt", "ignored")

	var (
		mu     sync.Mutex
		calls  []int
		totals []int
	)
	g, err := Parse(context.Background(), []string{dir}, Options{
		Workers: 2,
		Progress: func(i, total int, _ string) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, i)
			totals = append(totals, total)
		},
	})
	require.NoError(t, err)

	require.Equal(t, 3, g.TotalFiles)
	paths := []string{g.Files[0].Path, g.Files[1].Path, g.Files[2].Path}
	assert.Equal(t, []string{"a.py", "b.py", "broken.py"}, paths)
	assert.Equal(t, []string{"Syntax error in broken.py"}, g.Errors)
	assert.Equal(t, 3+2+2, g.TotalLines)

	assert.ElementsMatch(t, []int{1, 2, 3}, calls)
	assert.Equal(t, []int{3, 3, 3}, totals)

	s := Summarize(g)
	assert.Equal(t, 3, s.SuccessfulParses)
	assert.Equal(t, 0, s.FailedParses)
	assert.Equal(t, []string{"broken.py"}, s.FilesWithErrors)
}

func TestSummarizeCountsUnreadableAsFailed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.py", "x = 1
")
	writeFile(t, dir, "broken.py", "def broken(:\n")

	g := &ProjectGraph{
		Files: []*ParsedFile{
			ParseFile(filepath.Join(dir, "ok.py"), dir),
			ParseFile(filepath.Join(dir, "broken.py"), dir),
			ParseFile(filepath.Join(dir, "gone.py"), dir),
		},
	}
	g.TotalFiles = len(g.Files)

	s := Summarize(g)
	assert.Equal(t, 3, s.TotalFiles)
	assert.Equal(t, 2, s.SuccessfulParses)
	assert.Equal(t, 1, s.FailedParses)
	assert.Equal(t, []string{"broken.py", "gone.py"}, s.FilesWithErrors)
}

func TestParseDeterministic(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"z.py", "m/n.py", "a.py", "m/__init__.py"} {
		writeFile(t, dir, name, "class C:\n    v = 1\n")
	}

	first, err := Parse(context.Background(), []string{dir}, Options{Workers: 4})
	require.NoError(t, err)
	second, err := Parse(context.Background(), []string{dir}, Options{Workers: 1})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseMultipleRoots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "svc/app.py", "x = 1\n")
	writeFile(t, dir, "lib/util.py", "y = 2\n")

	g, err := Parse(context.Background(), []string{
		filepath.Join(dir, "svc"),
		filepath.Join(dir, "lib"),
		filepath.Join(dir, "lib"),
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, dir, g.Root)
	require.Len(t, g.Files, 2)
	assert.Equal(t, "lib/util.py", g.Files[0].Path)
	assert.Equal(t, "svc/app.py", g.Files[1].Path)
}

func TestParseNoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# nothing")

	g, err := Parse(context.Background(), []string{dir}, Options{})
	require.NoError(t, err)
	assert.Zero(t, g.TotalFiles)
	assert.Empty(t, g.Files)
	assert.Len(t, g.Errors, 1)
}

func TestParseInvalidRoot(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.py", "")

	_, err := Parse(context.Background(), []string{filepath.Join(dir, "missing")}, Options{})
	assert.True(t, errors.Is(err, ErrInvalidRoot), "got %v", err)

	_, err = Parse(context.Background(), []string{file}, Options{})
	assert.ErrorIs(t, err, ErrInvalidRoot)

	_, err = Parse(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrInvalidRoot)
}

func TestParseCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, []string{dir}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommonDir(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + "work"
	assert.Equal(t, root, commonDir([]string{root + sep + "a", root + sep + "b" + sep + "c"}))
	assert.Equal(t, root+sep+"a", commonDir([]string{root + sep + "a"}))
	assert.Equal(t, root, commonDir([]string{root + sep + "ab", root + sep + "a"}))
}
