// Package fqn derives scope-qualified names and stable entity IDs.
package fqn

import (
	"path"
	"path/filepath"
	"strings"
)

// Separator joins an entity ID to its enclosing scope's ID.
const Separator = "::"

// Qualify returns name prefixed by its enclosing scope, joined with ".".
// An empty context means module scope.
//   - Qualify("", "Foo")    -> "Foo"
//   - Qualify("Foo", "bar") -> "Foo.bar"
func Qualify(context, name string) string {
	if context == "" {
		return name
	}
	return context + "." + name
}

// FileID returns the ID of a file: its slash-separated, root-relative path.
func FileID(relPath string) string {
	return filepath.ToSlash(relPath)
}

// EntityID returns the ID of a class, function or variable declared in the
// file fileID under the dotted scope path fullName.
// Example: EntityID("a.py", "Foo.bar.x") -> "a.py::Foo::bar::x"
func EntityID(fileID, fullName string) string {
	return fileID + Separator + strings.ReplaceAll(fullName, ".", Separator)
}

// ModuleName returns the dotted import path of a source file.
// Examples:
//   - pkg/util.py        -> pkg.util
//   - pkg/sub/__init__.py -> pkg.sub
func ModuleName(relPath string) string {
	relPath = filepath.ToSlash(relPath)
	relPath = strings.TrimSuffix(relPath, path.Ext(relPath))
	parts := strings.Split(relPath, "/")

	// For Python __init__.py, drop the __init__ part
	if len(parts) > 1 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

// Stem returns the file name without directory and extension.
func Stem(relPath string) string {
	base := path.Base(filepath.ToSlash(relPath))
	return strings.TrimSuffix(base, path.Ext(base))
}
