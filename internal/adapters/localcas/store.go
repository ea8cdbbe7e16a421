// Package localcas implements the cache backend over a local directory.
//
// It serves the index, content store, and file-set downloader ports from one
// root, which makes self-hosted caches (a mounted share, a CI volume) and
// offline round-trip tests possible without a cache service. Blobs are
// content-addressed files, manifests and entries are YAML documents.
package localcas

import (
	"bytes"
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	blobDir  = "blobs"
	entryDir = "entries"

	// copyConcurrency bounds parallel blob transfers for file sets.
	copyConcurrency = 4
)

var (
	_ ports.CacheIndex        = (*Store)(nil)
	_ ports.ContentStore      = (*Store)(nil)
	_ ports.FileSetDownloader = (*Store)(nil)
)

// Store is a directory-rooted cache backend.
type Store struct {
	fs  afero.Fs
	log ports.Logger
}

// New creates a Store over the given filesystem.
func New(fs afero.Fs, log ports.Logger) *Store {
	return &Store{fs: fs, log: log}
}

// NewAtDir creates a Store rooted at an OS directory.
func NewAtDir(root string, log ports.Logger) *Store {
	return New(afero.NewBasePathFs(afero.NewOsFs(), root), log)
}

// entryDoc is the persisted form of a cache entry.
type entryDoc struct {
	Fingerprint []string `yaml:"fingerprint"`
	Format      string   `yaml:"format"`
	Root        string   `yaml:"root"`
	Manifest    string   `yaml:"manifest"`
	Proof       []byte   `yaml:"proof,omitempty"`
}

// Lookup returns the first candidate with a stored entry. Candidate order is
// the ranking: earlier candidates win.
func (s *Store) Lookup(ctx context.Context, candidates []domain.Fingerprint) (*domain.CacheEntry, error) {
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := afero.ReadFile(s.fs, s.entryPath(candidate))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, "read cache entry"), "fingerprint", candidate.String())
		}

		entry, err := decodeEntry(raw)
		if err != nil {
			return nil, zerr.With(err, "fingerprint", candidate.String())
		}
		return entry, nil
	}
	return nil, nil
}

// Register stores the entry. The first write for a fingerprint wins; a
// second registration reports domain.ErrEntryExists.
func (s *Store) Register(ctx context.Context, entry domain.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := entryDoc{
		Fingerprint: entry.Fingerprint.Segments(),
		Format:      string(entry.Format),
		Root:        string(entry.Ref.Root),
		Manifest:    string(entry.Ref.Manifest),
		Proof:       entry.Ref.Proof,
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return zerr.Wrap(err, "encode cache entry")
	}

	if err := s.fs.MkdirAll(entryDir, 0o755); err != nil {
		return zerr.Wrap(err, "create entry directory")
	}

	f, err := s.fs.OpenFile(s.entryPath(entry.Fingerprint), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return zerr.With(domain.ErrEntryExists, "fingerprint", entry.Fingerprint.String())
		}
		return zerr.Wrap(err, "create cache entry")
	}
	defer f.Close()

	if _, err := f.Write(raw); err != nil {
		return zerr.Wrap(err, "write cache entry")
	}
	return nil
}

// Publish uploads the content rooted at an OS path. A plain file becomes a
// single-item manifest named after the file; a directory becomes one item
// per contained file, paths rooted at the directory's base name.
func (s *Store) Publish(ctx context.Context, root string) (domain.ContentRef, error) {
	info, err := os.Stat(root)
	if err != nil {
		return domain.ContentRef{}, zerr.With(zerr.Wrap(err, "stat publish source"), "path", root)
	}

	var manifest domain.Manifest
	if info.IsDir() {
		manifest, err = s.publishTree(ctx, root)
	} else {
		manifest, err = s.publishFile(ctx, root)
	}
	if err != nil {
		return domain.ContentRef{}, err
	}

	raw, err := yaml.Marshal(manifest)
	if err != nil {
		return domain.ContentRef{}, zerr.Wrap(err, "encode manifest")
	}
	manifestID, err := s.writeBlob(bytes.NewReader(raw))
	if err != nil {
		return domain.ContentRef{}, err
	}

	ref := domain.ContentRef{Manifest: manifestID}
	if info.IsDir() || len(manifest.Items) != 1 {
		ref.Root = manifestID
	} else {
		ref.Root = manifest.Items[0].Blob
	}
	return ref, nil
}

// FetchManifest retrieves and decodes a published manifest.
func (s *Store) FetchManifest(ctx context.Context, ref domain.ContentRef) (*domain.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := s.Open(ctx, ref.Manifest)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, zerr.Wrap(err, "read manifest blob")
	}

	var manifest domain.Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, zerr.Wrap(err, "decode manifest")
	}
	return &manifest, nil
}

// Open streams one blob.
func (s *Store) Open(ctx context.Context, blob domain.BlobID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.fs.Open(path.Join(blobDir, string(blob)))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "open blob"), "blob", string(blob))
	}
	return f, nil
}

// Download copies the manifest items under filter into targetDir, preserving
// relative paths. An empty filter copies every item.
func (s *Store) Download(ctx context.Context, manifest *domain.Manifest, filter string, targetDir string) error {
	if manifest == nil {
		return zerr.With(domain.ErrMalformedManifest, "reason", "nil manifest")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(copyConcurrency)

	for _, item := range manifest.ItemsUnder(filter) {
		g.Go(func() error {
			return s.downloadItem(ctx, item, targetDir)
		})
	}
	return g.Wait()
}

func (s *Store) downloadItem(ctx context.Context, item domain.ManifestItem, targetDir string) error {
	src, err := s.Open(ctx, item.Blob)
	if err != nil {
		return err
	}
	defer src.Close()

	dest := filepath.Join(targetDir, filepath.FromSlash(item.Path))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "create download directory"), "path", dest)
	}

	f, err := os.Create(dest)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "create downloaded file"), "path", dest)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return zerr.With(zerr.Wrap(err, "download blob"), "path", dest)
	}
	return nil
}

func (s *Store) publishFile(ctx context.Context, file string) (domain.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return domain.Manifest{}, err
	}

	f, err := os.Open(file)
	if err != nil {
		return domain.Manifest{}, zerr.With(zerr.Wrap(err, "open publish source"), "path", file)
	}
	defer f.Close()

	id, err := s.writeBlob(f)
	if err != nil {
		return domain.Manifest{}, err
	}
	return domain.Manifest{Items: []domain.ManifestItem{
		{Path: filepath.Base(file), Blob: id},
	}}, nil
}

func (s *Store) publishTree(ctx context.Context, dir string) (domain.Manifest, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return domain.Manifest{}, zerr.With(zerr.Wrap(err, "walk publish source"), "path", dir)
	}
	sort.Strings(files)

	base := filepath.Base(dir)
	items := make([]domain.ManifestItem, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(copyConcurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(file)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "open publish source"), "path", file)
			}
			defer f.Close()

			id, err := s.writeBlob(f)
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(dir, file)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "relativize publish path"), "path", file)
			}
			items[i] = domain.ManifestItem{
				Path: path.Join(base, filepath.ToSlash(rel)),
				Blob: id,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Manifest{}, err
	}

	return domain.Manifest{Items: items}, nil
}

// writeBlob stores content addressed by its hash and returns the blob id.
// Re-publishing identical content lands on the same blob.
func (s *Store) writeBlob(src io.Reader) (domain.BlobID, error) {
	if err := s.fs.MkdirAll(blobDir, 0o755); err != nil {
		return "", zerr.Wrap(err, "create blob directory")
	}

	// Staged next to the final location so the rename stays on one volume.
	tmp, err := afero.TempFile(s.fs, blobDir, "incoming-*")
	if err != nil {
		return "", zerr.Wrap(err, "create staging blob")
	}
	tmpName := tmp.Name()

	digest := xxhash.New()
	_, copyErr := io.Copy(io.MultiWriter(tmp, digest), src)
	closeErr := tmp.Close()
	if copyErr != nil {
		s.discardStaging(tmpName)
		return "", zerr.Wrap(copyErr, "stage blob content")
	}
	if closeErr != nil {
		s.discardStaging(tmpName)
		return "", zerr.Wrap(closeErr, "close staging blob")
	}

	id := domain.BlobID(fmt.Sprintf("%016x", digest.Sum64()))
	final := path.Join(blobDir, string(id))

	if err := s.fs.Rename(tmpName, final); err != nil {
		// Another writer landed the same content first.
		if ok, _ := afero.Exists(s.fs, final); ok {
			s.discardStaging(tmpName)
			return id, nil
		}
		return "", zerr.With(zerr.Wrap(err, "store blob"), "blob", string(id))
	}
	return id, nil
}

func (s *Store) discardStaging(name string) {
	if err := s.fs.Remove(name); err != nil {
		s.log.Warn(fmt.Sprintf("staging blob %s left behind: %v", name, err))
	}
}

func (s *Store) entryPath(fp domain.Fingerprint) string {
	name := fmt.Sprintf("%016x", xxhash.Sum64String(fp.Key()))
	return path.Join(entryDir, name+".yaml")
}

func decodeEntry(raw []byte) (*domain.CacheEntry, error) {
	var doc entryDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, zerr.Wrap(err, "decode cache entry")
	}

	fp, err := domain.NewFingerprint(doc.Fingerprint...)
	if err != nil {
		return nil, zerr.Wrap(err, "decode entry fingerprint")
	}
	format, err := domain.ParseContentFormat(doc.Format)
	if err != nil {
		return nil, err
	}

	return &domain.CacheEntry{
		Fingerprint: fp,
		Format:      format,
		Ref: domain.ContentRef{
			Root:     domain.BlobID(doc.Root),
			Manifest: domain.BlobID(doc.Manifest),
			Proof:    doc.Proof,
		},
	}, nil
}

