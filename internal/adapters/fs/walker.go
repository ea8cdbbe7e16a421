// Package fs resolves configured key parts and cache paths against the local
// filesystem.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker yields the files under a directory tree.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every file under root in lexical order, skipping version
// control directories. Yielded paths start with root, the way
// filepath.WalkDir reports them.
func (w *Walker) WalkFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if name := d.Name(); name == ".git" || name == ".jj" {
					return filepath.SkipDir
				}
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
