// Package cache implements the save and restore workflows.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"go.trai.ch/zerr"
)

// SaveRequest carries one save invocation.
type SaveRequest struct {
	// Backend is the dialed cache backend for the configured endpoint.
	Backend ports.Backend

	// Workdir anchors relative key parts and cache paths.
	Workdir string

	Cache domain.CacheSpec
}

// RestoreRequest carries one restore invocation.
type RestoreRequest struct {
	Backend ports.Backend
	Workdir string
	Cache   domain.CacheSpec

	// DryRun reports the classification without downloading anything.
	DryRun bool
}

// Orchestrator drives the cache workflows. All state lives in the request;
// one Orchestrator serves any number of sequential operations.
type Orchestrator struct {
	resolver ports.KeyResolver
	archiver ports.Archiver
	vars     ports.VariableSink
	tel      ports.Telemetry
	log      ports.Logger
}

// New creates an Orchestrator.
func New(
	resolver ports.KeyResolver,
	archiver ports.Archiver,
	vars ports.VariableSink,
	tel ports.Telemetry,
	log ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		archiver: archiver,
		vars:     vars,
		tel:      tel,
		log:      log,
	}
}

// Save uploads the configured cache paths under the resolved fingerprint.
// Saving against a fingerprint that already has an entry is a no-op success:
// entries are immutable, so there is nothing to refresh.
func (o *Orchestrator) Save(ctx context.Context, req SaveRequest) error {
	key, err := o.resolveKey(ctx, req.Cache.KeyParts, req.Workdir)
	if err != nil {
		return err
	}

	exists, err := o.checkExists(ctx, req.Backend, key)
	if err != nil {
		return err
	}
	if exists {
		o.log.Info("cache entry already exists, skipping save")
		return nil
	}

	paths, err := o.resolvePaths(ctx, req)
	if err != nil {
		return err
	}

	source, packed, err := o.packageContent(ctx, paths, req)
	if err != nil {
		return err
	}
	if packed {
		// The archive is temporary; it goes away on success and on every
		// failure past this point.
		defer o.removeTemp(source)
	}

	ref, err := o.publish(ctx, req.Backend, source)
	if err != nil {
		return err
	}

	// The registered format describes what was actually published: only a
	// packed upload restores through the archive path.
	format := domain.FormatFileSet
	if packed {
		format = domain.FormatSingleArchive
	}

	if err := o.register(ctx, req.Backend, domain.CacheEntry{
		Fingerprint: key,
		Format:      format,
		Ref:         ref,
	}); err != nil {
		return err
	}

	o.log.Info("cache saved for key: " + key.String())
	return nil
}

// Restore downloads the best matching entry into the working directory and
// reports the hit classification. A miss is a nil error. The configured hit
// variable is always written, whatever else happens.
func (o *Orchestrator) Restore(ctx context.Context, req RestoreRequest) (domain.Hit, error) {
	hit, err := o.restore(ctx, req)

	// The body writes the variable as soon as classification is known; this
	// covers the paths that fail before that point.
	if verr := o.setHitVariable(req.Cache.HitVariable, hit); verr != nil && err == nil {
		err = verr
	}
	return hit, err
}

func (o *Orchestrator) restore(ctx context.Context, req RestoreRequest) (domain.Hit, error) {
	candidates, err := o.resolveCandidates(ctx, req)
	if err != nil {
		return domain.HitMiss, err
	}

	entry, err := o.lookup(ctx, req.Backend, candidates)
	if err != nil {
		return domain.HitMiss, err
	}
	if entry == nil {
		o.log.Info("cache miss")
		return domain.HitMiss, nil
	}

	matched := entry.Fingerprint
	hit := domain.ClassifyHit(candidates, &matched)
	o.log.Info(fmt.Sprintf("cache hit (%s): %s", hit, matched))

	// Classification is decided; publish it before any download so callers
	// can rely on the variable even when extraction fails mid-way.
	if err := o.setHitVariable(req.Cache.HitVariable, hit); err != nil {
		return hit, err
	}

	if req.DryRun {
		o.log.Info("dry run: download and extraction skipped")
		return hit, nil
	}

	manifest, err := o.fetchManifest(ctx, req.Backend, entry.Ref)
	if err != nil {
		return hit, err
	}

	switch entry.Format {
	case domain.FormatSingleArchive:
		err = o.extractArchive(ctx, req, manifest)
	case domain.FormatFileSet:
		err = o.downloadFiles(ctx, req, manifest)
	default:
		err = zerr.With(domain.ErrUnknownContentFormat, "format", string(entry.Format))
	}
	if err != nil {
		return hit, err
	}

	o.log.Info("cache restored for key: " + matched.String())
	return hit, nil
}

func (o *Orchestrator) resolveKey(ctx context.Context, parts []string, workdir string) (domain.Fingerprint, error) {
	ctx, vertex := o.tel.Record(ctx, "resolve cache key")
	key, err := o.resolver.ResolveKey(ctx, parts, workdir)
	vertex.Complete(err)
	if err != nil {
		return domain.Fingerprint{}, zerr.Wrap(err, "resolve cache key")
	}
	o.log.Info("resolved key: " + key.String())
	return key, nil
}

func (o *Orchestrator) resolveCandidates(ctx context.Context, req RestoreRequest) ([]domain.Fingerprint, error) {
	key, err := o.resolveKey(ctx, req.Cache.KeyParts, req.Workdir)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Fingerprint, 0, 1+len(req.Cache.RestoreKeys))
	candidates = append(candidates, key)
	for _, parts := range req.Cache.RestoreKeys {
		fallback, err := o.resolver.ResolveKey(ctx, parts, req.Workdir)
		if err != nil {
			return nil, zerr.Wrap(err, "resolve restore key")
		}
		candidates = append(candidates, fallback)
	}
	return candidates, nil
}

func (o *Orchestrator) checkExists(ctx context.Context, backend ports.Backend, key domain.Fingerprint) (bool, error) {
	ctx, vertex := o.tel.Record(ctx, "check existing entry")
	entry, err := backend.Index.Lookup(ctx, []domain.Fingerprint{key})
	if err != nil {
		vertex.Complete(err)
		return false, zerr.Wrap(err, "check existing entry")
	}
	if entry != nil {
		vertex.Cached()
	}
	vertex.Complete(nil)
	return entry != nil, nil
}

func (o *Orchestrator) resolvePaths(ctx context.Context, req SaveRequest) (domain.Fingerprint, error) {
	ctx, vertex := o.tel.Record(ctx, "resolve cache paths")
	paths, err := o.resolver.ResolvePaths(ctx, req.Cache.Paths, req.Workdir)
	vertex.Complete(err)
	if err != nil {
		return domain.Fingerprint{}, zerr.Wrap(err, "resolve cache paths")
	}
	o.log.Info("resolved paths: " + paths.String())
	return paths, nil
}

// packageContent decides the upload source. Multiple resolved paths under
// the archive format are packed into one temporary archive; a single
// resolved path is uploaded as-is. The file set format never packs, and
// uploads only the first resolved path for multi-path keys, a preserved
// limitation of the wire contract.
func (o *Orchestrator) packageContent(ctx context.Context, paths domain.Fingerprint, req SaveRequest) (source string, packed bool, err error) {
	if req.Cache.Format == domain.FormatSingleArchive && !paths.SingleSegment() {
		ctx, vertex := o.tel.Record(ctx, "pack cache content")
		archive, err := o.archiver.Pack(ctx, paths.Segments(), req.Workdir)
		vertex.Complete(err)
		if err != nil {
			return "", false, zerr.Wrap(err, "pack cache content")
		}
		return archive, true, nil
	}

	if !paths.SingleSegment() {
		o.log.Warn("file set save uploads only the first resolved path: " + paths.Segment(0))
	}
	return paths.Segment(0), false, nil
}

func (o *Orchestrator) publish(ctx context.Context, backend ports.Backend, source string) (domain.ContentRef, error) {
	ctx, vertex := o.tel.Record(ctx, "publish cache content")
	ref, err := backend.Store.Publish(ctx, source)
	vertex.Complete(err)
	if err != nil {
		return domain.ContentRef{}, zerr.Wrap(err, "publish cache content")
	}
	return ref, nil
}

func (o *Orchestrator) register(ctx context.Context, backend ports.Backend, entry domain.CacheEntry) error {
	ctx, vertex := o.tel.Record(ctx, "register cache entry")
	err := backend.Index.Register(ctx, entry)
	if err != nil && errors.Is(err, domain.ErrEntryExists) {
		// Another save landed this fingerprint first. The entry is
		// immutable, so their content is as good as ours.
		o.log.Info("cache entry already exists, keeping the first write")
		err = nil
	}
	vertex.Complete(err)
	if err != nil {
		return zerr.Wrap(err, "register cache entry")
	}
	return nil
}

func (o *Orchestrator) lookup(ctx context.Context, backend ports.Backend, candidates []domain.Fingerprint) (*domain.CacheEntry, error) {
	ctx, vertex := o.tel.Record(ctx, "look up cache entry")
	entry, err := backend.Index.Lookup(ctx, candidates)
	vertex.Complete(err)
	if err != nil {
		return nil, zerr.Wrap(err, "look up cache entry")
	}
	return entry, nil
}

func (o *Orchestrator) fetchManifest(ctx context.Context, backend ports.Backend, ref domain.ContentRef) (*domain.Manifest, error) {
	ctx, vertex := o.tel.Record(ctx, "fetch cache manifest")
	manifest, err := backend.Store.FetchManifest(ctx, ref)
	vertex.Complete(err)
	if err != nil {
		return nil, zerr.Wrap(err, "fetch cache manifest")
	}
	return manifest, nil
}

func (o *Orchestrator) extractArchive(ctx context.Context, req RestoreRequest, manifest *domain.Manifest) error {
	item, err := manifest.ArchiveItem()
	if err != nil {
		return err
	}

	download := func(ctx context.Context, w io.Writer) error {
		r, err := req.Backend.Store.Open(ctx, item.Blob)
		if err != nil {
			return err
		}
		defer r.Close()
		if _, err := io.Copy(w, r); err != nil {
			return zerr.Wrap(err, "stream archive blob")
		}
		return nil
	}

	ctx, vertex := o.tel.Record(ctx, "extract cache archive")
	err = o.archiver.Unpack(ctx, manifest, download, req.Workdir)
	vertex.Complete(err)
	if err != nil {
		return zerr.Wrap(err, "extract cache archive")
	}
	return nil
}

func (o *Orchestrator) downloadFiles(ctx context.Context, req RestoreRequest, manifest *domain.Manifest) error {
	// Only the first configured cache path narrows the download, a preserved
	// limitation of the wire contract. It reduces to its base name because
	// publish roots manifest paths the same way.
	var filter string
	if len(req.Cache.Paths) > 0 {
		filter = filepath.ToSlash(filepath.Base(filepath.Clean(req.Cache.Paths[0])))
	}

	ctx, vertex := o.tel.Record(ctx, "download cache files")
	err := req.Backend.Downloader.Download(ctx, manifest, filter, req.Workdir)
	vertex.Complete(err)
	if err != nil {
		return zerr.Wrap(err, "download cache files")
	}
	return nil
}

func (o *Orchestrator) setHitVariable(name string, hit domain.Hit) error {
	if name == "" {
		name = domain.DefaultHitVariable
	}
	if err := o.vars.Set(name, hit.Variable()); err != nil {
		return zerr.Wrap(err, "set hit variable")
	}
	return nil
}

// removeTemp deletes a temporary archive, best-effort.
func (o *Orchestrator) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		o.log.Warn("temporary archive left behind: " + err.Error())
	}
}
