// Package tar implements the archive transcoder over an external tar tool.
//
// Archives are never parsed in-process: packing streams a path list into the
// tool's stdin, unpacking streams the downloaded archive bytes the same way.
// Both operations are built as one supervised process task.
package tar

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethanis/pipecache/internal/adapters/proc"
	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"go.trai.ch/zerr"
)

// Transcoder implements ports.Archiver.
type Transcoder struct {
	selector *Selector
	log      ports.Logger

	// run is proc.Run unless a test substitutes it.
	run func(ctx context.Context, task proc.Task, onFailure func(), log ports.Logger) error
}

// NewTranscoder creates a Transcoder using the given tool selector.
func NewTranscoder(selector *Selector, log ports.Logger) *Transcoder {
	return &Transcoder{
		selector: selector,
		log:      log,
		run:      proc.Run,
	}
}

// Pack archives the given directories into a randomly named temporary tar
// file and returns its path. The caller owns deleting the file; on any
// failure after the file is created it is removed before the error surfaces.
//
// Packing is directory-oriented: an input path naming a plain file is a
// validation error.
func (t *Transcoder) Pack(ctx context.Context, paths []string, workdir string) (string, error) {
	if len(paths) == 0 {
		return "", zerr.With(domain.ErrNoPathsResolved, "workdir", workdir)
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "stat input path"), "path", p)
		}
		if !info.IsDir() {
			return "", zerr.With(domain.ErrNotADirectory, "path", p)
		}
	}

	archiveFile, err := os.CreateTemp("", "pipecache-*."+domain.ArchiveSuffix)
	if err != nil {
		return "", zerr.Wrap(err, "create temporary archive")
	}
	archive := archiveFile.Name()
	if err := archiveFile.Close(); err != nil {
		t.removeArchive(archive)
		return "", zerr.Wrap(err, "close temporary archive")
	}

	tool, args := t.selector.PackCommand(archive, workdir)
	task := proc.Task{
		Tool: tool,
		Args: args,
		Dir:  workdir,
		Pump: pathListPump(paths, workdir),
	}

	if err := t.run(ctx, task, func() { t.removeArchive(archive) }, t.log); err != nil {
		return "", err
	}
	return archive, nil
}

// Unpack validates the manifest shape, then extracts the archive it
// describes into workdir, streaming bytes from download into the tool. The
// manifest is rejected before download is invoked.
func (t *Transcoder) Unpack(ctx context.Context, manifest *domain.Manifest, download ports.DownloadFunc, workdir string) error {
	if manifest == nil {
		return zerr.With(domain.ErrMalformedManifest, "reason", "nil manifest")
	}
	if _, err := manifest.ArchiveItem(); err != nil {
		return err
	}
	if download == nil {
		return zerr.New("download function is required")
	}

	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "create working directory"), "dir", workdir)
	}

	tool, args := t.selector.UnpackCommand(ctx)
	task := proc.Task{
		Tool: tool,
		Args: args,
		Dir:  workdir,
		Pump: func(ctx context.Context, stdin io.WriteCloser) error {
			if err := download(ctx, stdin); err != nil {
				return err
			}
			return stdin.Close()
		},
	}

	return t.run(ctx, task, nil, t.log)
}

// removeArchive is the best-effort cleanup for a partial archive.
func (t *Transcoder) removeArchive(archive string) {
	if err := os.Remove(archive); err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.log.Warn("could not remove temporary archive: " + err.Error())
	}
}

// pathListPump writes one input path per line, relative to workdir when the
// path lies under it, then closes stdin to signal end-of-list. Feeding the
// list through stdin avoids command-line length limits.
func pathListPump(paths []string, workdir string) proc.PumpFunc {
	return func(ctx context.Context, stdin io.WriteCloser) error {
		w := bufio.NewWriter(stdin)
		for _, p := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			line := p
			if rel, err := filepath.Rel(workdir, p); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				line = rel
			}
			if _, err := w.WriteString(line + "\n"); err != nil {
				return zerr.Wrap(err, "write path list")
			}
		}
		if err := w.Flush(); err != nil {
			return zerr.Wrap(err, "flush path list")
		}
		return stdin.Close()
	}
}
