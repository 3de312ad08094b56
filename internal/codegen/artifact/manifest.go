// Package artifact records the content of a generated output directory so
// two generation runs can be compared byte for byte.
package artifact

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// File is one generated file. Path is slash-separated and relative to the
// manifest root.
type File struct {
	Path   string `json:"path" yaml:"path" toml:"path"`
	Size   int64  `json:"size" yaml:"size" toml:"size"`
	Digest string `json:"digest" yaml:"digest" toml:"digest"`
}

// Manifest is the Generated Artifact Set of one output directory.
type Manifest struct {
	Root   string `json:"root" yaml:"root" toml:"root"`
	Digest string `json:"digest" yaml:"digest" toml:"digest"`
	Files  []File `json:"files" yaml:"files" toml:"files"`
}

// Scan hashes every regular file below root. A missing root yields an empty
// manifest.
func Scan(root string) (*Manifest, error) {
	m := &Manifest{Root: root, Files: []File{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		f, err := hashFile(path)
		if err != nil {
			return err
		}
		f.Path = filepath.ToSlash(rel)
		m.Files = append(m.Files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan generated output %s: %w", root, err)
	}

	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	m.Digest = m.sum()
	return m, nil
}

func hashFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()

	h, _ := blake2b.New256(nil)
	n, err := io.Copy(h, fh)
	if err != nil {
		return File{}, err
	}
	return File{Size: n, Digest: hex.EncodeToString(h.Sum(nil))}, nil
}

// sum folds the sorted file list into one digest. Root is excluded so the
// same output hashed from two checkouts agrees.
func (m *Manifest) sum() string {
	h, _ := blake2b.New256(nil)
	for _, f := range m.Files {
		fmt.Fprintf(h, "%s\x00%d\x00%s\n", f.Path, f.Size, f.Digest)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Diff returns the paths whose content differs between m and other, including
// paths present on only one side, sorted.
func (m *Manifest) Diff(other *Manifest) []string {
	a := m.index()
	b := other.index()
	var out []string
	for p, d := range a {
		if bd, ok := b[p]; !ok || bd != d {
			out = append(out, p)
		}
	}
	for p := range b {
		if _, ok := a[p]; !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Sync makes dst hold exactly the regular files below src. Files whose
// digest already matches are left alone; files dst has that src lacks are
// removed and returned, sorted and slash-separated.
func Sync(src, dst string) ([]string, error) {
	want, err := Scan(src)
	if err != nil {
		return nil, err
	}
	have, err := Scan(dst)
	if err != nil {
		return nil, err
	}
	wantIdx := want.index()
	haveIdx := have.index()

	var removed []string
	for _, f := range have.Files {
		if _, ok := wantIdx[f.Path]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dst, filepath.FromSlash(f.Path))); err != nil {
			return nil, fmt.Errorf("remove stale output: %w", err)
		}
		removed = append(removed, f.Path)
	}
	for _, f := range want.Files {
		if haveIdx[f.Path] == f.Digest {
			continue
		}
		rel := filepath.FromSlash(f.Path)
		if err := copyFile(filepath.Join(src, rel), filepath.Join(dst, rel)); err != nil {
			return nil, fmt.Errorf("write output %s: %w", f.Path, err)
		}
	}
	return removed, nil
}

func copyFile(from, to string) error {
	info, err := os.Stat(from)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(from)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	return os.WriteFile(to, data, info.Mode().Perm())
}

// Equal reports whether both manifests describe byte-identical file sets.
func (m *Manifest) Equal(other *Manifest) bool {
	return m.Digest == other.Digest
}

func (m *Manifest) index() map[string]string {
	idx := make(map[string]string, len(m.Files))
	for _, f := range m.Files {
		idx[f.Path] = f.Digest
	}
	return idx
}
