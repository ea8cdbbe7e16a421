package fs

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.KeyResolver = (*Resolver)(nil)

// Resolver implements ports.KeyResolver over the local filesystem.
type Resolver struct {
	walker *Walker
}

// NewResolver creates a new Resolver.
func NewResolver(walker *Walker) *Resolver {
	return &Resolver{walker: walker}
}

// ResolveKey produces one fingerprint segment per part, in order. A part
// naming an existing file becomes the hash of that file's content; a part
// naming a directory or matching a glob becomes one hash over every matched
// file; anything else stays a literal segment.
func (r *Resolver) ResolveKey(ctx context.Context, parts []string, workdir string) (domain.Fingerprint, error) {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if err := ctx.Err(); err != nil {
			return domain.Fingerprint{}, err
		}

		segment, err := r.resolvePart(part, workdir)
		if err != nil {
			return domain.Fingerprint{}, err
		}
		segments = append(segments, segment)
	}

	fp, err := domain.NewFingerprint(segments...)
	if err != nil {
		return domain.Fingerprint{}, zerr.Wrap(err, "resolve key parts")
	}
	return fp, nil
}

// ResolvePaths expands the configured cache path patterns into a fingerprint
// of cleaned, sorted, de-duplicated absolute paths. Every pattern must match
// at least one existing path.
func (r *Resolver) ResolvePaths(ctx context.Context, patterns []string, workdir string) (domain.Fingerprint, error) {
	if len(patterns) == 0 {
		return domain.Fingerprint{}, zerr.With(domain.ErrNoPathsResolved, "workdir", workdir)
	}

	unique := make(map[string]bool)
	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return domain.Fingerprint{}, err
		}

		anchored := anchor(pattern, workdir)
		matches, err := filepath.Glob(anchored)
		if err != nil {
			return domain.Fingerprint{}, zerr.With(zerr.Wrap(err, "glob cache path"), "pattern", pattern)
		}
		if len(matches) == 0 {
			return domain.Fingerprint{}, zerr.With(domain.ErrNoPathsResolved, "pattern", pattern)
		}
		for _, match := range matches {
			unique[filepath.Clean(match)] = true
		}
	}

	paths := make([]string, 0, len(unique))
	for path := range unique {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	fp, err := domain.NewFingerprint(paths...)
	if err != nil {
		return domain.Fingerprint{}, zerr.Wrap(err, "resolve cache paths")
	}
	return fp, nil
}

// resolvePart maps one key part to its segment value.
func (r *Resolver) resolvePart(part, workdir string) (string, error) {
	anchored := anchor(part, workdir)

	info, err := os.Stat(anchored)
	switch {
	case err == nil && !info.IsDir():
		return r.hashFiles(workdir, anchored)
	case err == nil:
		return r.hashTree(workdir, anchored)
	}

	matches, globErr := filepath.Glob(anchored)
	if globErr == nil && len(matches) > 0 {
		digest := xxhash.New()
		for _, match := range matches {
			if err := r.hashInto(digest, workdir, match); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%016x", digest.Sum64()), nil
	}

	// Not a file, directory, or glob; the part is its own segment.
	return part, nil
}

func (r *Resolver) hashFiles(workdir string, paths ...string) (string, error) {
	digest := xxhash.New()
	for _, path := range paths {
		if err := r.hashFileInto(digest, workdir, path); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

func (r *Resolver) hashTree(workdir, root string) (string, error) {
	digest := xxhash.New()
	if err := r.hashInto(digest, workdir, root); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

// hashInto feeds the path (file or directory tree) into digest.
func (r *Resolver) hashInto(digest *xxhash.Digest, workdir, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "stat key part"), "path", path)
	}

	if !info.IsDir() {
		return r.hashFileInto(digest, workdir, path)
	}

	for file := range r.walker.WalkFiles(path) {
		if err := r.hashFileInto(digest, workdir, file); err != nil {
			return err
		}
	}
	return nil
}

// hashFileInto writes the file's identity and content hash into digest.
// Paths are recorded relative to the working directory so keys agree across
// machines.
func (r *Resolver) hashFileInto(digest *xxhash.Digest, workdir, path string) error {
	name := path
	if rel, err := filepath.Rel(workdir, path); err == nil {
		name = filepath.ToSlash(rel)
	}
	_, _ = digest.WriteString(name)
	_, _ = digest.Write([]byte{0})

	content, err := fileHash(path)
	if err != nil {
		return err
	}
	if err := binary.Write(digest, binary.LittleEndian, content); err != nil {
		return zerr.Wrap(err, "write hash to digest")
	}
	return nil
}

// fileHash computes the xxhash of a file's content.
func fileHash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "open file"), "path", path)
	}
	defer f.Close()

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "hash file content"), "path", path)
	}
	return digest.Sum64(), nil
}

// anchor joins a relative part with the working directory.
func anchor(part, workdir string) string {
	if filepath.IsAbs(part) {
		return part
	}
	return filepath.Join(workdir, part)
}
