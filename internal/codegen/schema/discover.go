// Package schema finds the schema documents a generation run compiles.
package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExt is the extension of protobuf schema documents.
const DefaultExt = ".proto"

// Set is the collection of schema files discovered in one directory.
// Paths are root joined with the entry name and sorted; order carries no meaning.
type Set []string

// Discover lists root one level deep and returns every regular file whose
// extension is exactly ext. Subdirectories are skipped, not descended into.
// A listing failure or an unreadable entry aborts discovery.
func Discover(root, ext string) (Set, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list schema directory %s: %w", root, err)
	}

	set := Set{}
	for _, entry := range entries {
		ok, err := Match(root, entry, ext)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", filepath.Join(root, entry.Name()), err)
		}
		if ok {
			set = append(set, filepath.Join(root, entry.Name()))
		}
	}
	sort.Strings(set)
	return set, nil
}

// Match reports whether entry, listed from dir, is a regular file with
// extension ext. The comparison is case-sensitive on the last extension
// component. Symlinks are judged by their target.
func Match(dir string, entry fs.DirEntry, ext string) (bool, error) {
	if entry.IsDir() {
		return false, nil
	}
	if extension(entry.Name()) != ext {
		return false, nil
	}
	if entry.Type().IsRegular() {
		return true, nil
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// extension is filepath.Ext except that a leading dot starts a hidden name,
// not an extension: ".proto" has none.
func extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i:]
}
