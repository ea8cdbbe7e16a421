package localcas_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/ethanis/pipecache/internal/adapters/localcas"
	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newStore(t *testing.T) (*localcas.Store, afero.Fs) {
	t.Helper()
	ctrl := gomock.NewController(t)
	memfs := afero.NewMemMapFs()
	return localcas.New(memfs, mocks.NewMockLogger(ctrl)), memfs
}

func mustFingerprint(t *testing.T, segments ...string) domain.Fingerprint {
	t.Helper()
	fp, err := domain.NewFingerprint(segments...)
	require.NoError(t, err)
	return fp
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readBlob(t *testing.T, store *localcas.Store, blob domain.BlobID) []byte {
	t.Helper()
	r, err := store.Open(context.Background(), blob)
	require.NoError(t, err)
	defer r.Close()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	return raw
}

func TestPublishFile(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "archive.tar")
	mustWrite(t, src, "tar bytes")

	ref, err := store.Publish(ctx, src)
	require.NoError(t, err)

	manifest, err := store.FetchManifest(ctx, ref)
	require.NoError(t, err)
	require.Len(t, manifest.Items, 1)
	assert.Equal(t, "archive.tar", manifest.Items[0].Path)

	item, err := manifest.ArchiveItem()
	require.NoError(t, err)

	assert.Equal(t, item.Blob, ref.Root, "a single file publish roots at the file blob")
	assert.Equal(t, []byte("tar bytes"), readBlob(t, store, item.Blob))
}

func TestPublishDirectory(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "node_modules")
	mustWrite(t, filepath.Join(src, "pkg", "index.js"), "module.exports = 1\n")
	mustWrite(t, filepath.Join(src, "pkg", "lib", "util.js"), "module.exports = 2\n")
	mustWrite(t, filepath.Join(src, ".bin", "tool"), "#!/bin/sh\n")

	ref, err := store.Publish(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, ref.Manifest, ref.Root, "a directory publish roots at the manifest")

	manifest, err := store.FetchManifest(ctx, ref)
	require.NoError(t, err)
	require.Len(t, manifest.Items, 3)

	paths := make([]string, 0, len(manifest.Items))
	for _, item := range manifest.Items {
		paths = append(paths, item.Path)
	}
	assert.ElementsMatch(t, []string{
		"node_modules/.bin/tool",
		"node_modules/pkg/index.js",
		"node_modules/pkg/lib/util.js",
	}, paths)

	target := t.TempDir()
	require.NoError(t, store.Download(ctx, manifest, "", target))
	for _, item := range manifest.Items {
		got, err := os.ReadFile(filepath.Join(target, filepath.FromSlash(item.Path)))
		require.NoError(t, err)
		assert.Equal(t, readBlob(t, store, item.Blob), got, item.Path)
	}
}

func TestPublish_DeduplicatesBlobs(t *testing.T) {
	store, memfs := newStore(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "dist")
	mustWrite(t, filepath.Join(src, "a.txt"), "same bytes")
	mustWrite(t, filepath.Join(src, "b.txt"), "same bytes")

	ref, err := store.Publish(ctx, src)
	require.NoError(t, err)

	manifest, err := store.FetchManifest(ctx, ref)
	require.NoError(t, err)
	require.Len(t, manifest.Items, 2)
	assert.Equal(t, manifest.Items[0].Blob, manifest.Items[1].Blob)

	// One content blob plus the manifest blob, nothing staged left over.
	infos, err := afero.ReadDir(memfs, "blobs")
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestDownload_FilterNarrows(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "out")
	mustWrite(t, filepath.Join(src, "a", "x.txt"), "ax")
	mustWrite(t, filepath.Join(src, "a", "xy.txt"), "axy")
	mustWrite(t, filepath.Join(src, "b", "z.txt"), "bz")

	ref, err := store.Publish(ctx, src)
	require.NoError(t, err)
	manifest, err := store.FetchManifest(ctx, ref)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "subtree", filter: "out/a", want: []string{"out/a/x.txt", "out/a/xy.txt"}},
		{name: "exact file", filter: "out/a/x.txt", want: []string{"out/a/x.txt"}},
		{name: "prefix stops at path boundary", filter: "out/a/x", want: nil},
		{name: "empty filter takes everything", filter: "", want: []string{"out/a/x.txt", "out/a/xy.txt", "out/b/z.txt"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := t.TempDir()
			require.NoError(t, store.Download(ctx, manifest, tc.filter, target))

			var got []string
			err := filepath.WalkDir(target, func(p string, d os.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				rel, err := filepath.Rel(target, p)
				if err != nil {
					return err
				}
				got = append(got, filepath.ToSlash(rel))
				return nil
			})
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, got)
		})
	}
}

func TestRegisterAndLookup(t *testing.T) {
	store, memfs := newStore(t)
	ctx := context.Background()

	fp := mustFingerprint(t, "npm", "Linux", "f00dfeed")
	entry := domain.CacheEntry{
		Fingerprint: fp,
		Format:      domain.FormatSingleArchive,
		Ref: domain.ContentRef{
			Root:     "aaaa",
			Manifest: "bbbb",
			Proof:    []byte("seal"),
		},
	}
	require.NoError(t, store.Register(ctx, entry))

	// The entry lands under a name derived from the joined key.
	name := fmt.Sprintf("%016x.yaml", xxhash.Sum64String(fp.Key()))
	exists, err := afero.Exists(memfs, filepath.ToSlash(filepath.Join("entries", name)))
	require.NoError(t, err)
	assert.True(t, exists)

	miss := mustFingerprint(t, "npm", "Linux", "deadbeef")
	got, err := store.Lookup(ctx, []domain.Fingerprint{miss, fp})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.Fingerprint.Equal(fp))
	assert.Equal(t, domain.FormatSingleArchive, got.Format)
	assert.Equal(t, entry.Ref, got.Ref)
}

func TestLookup_CandidateOrderWins(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	first := mustFingerprint(t, "npm", "Linux")
	second := mustFingerprint(t, "npm")
	for _, fp := range []domain.Fingerprint{first, second} {
		require.NoError(t, store.Register(ctx, domain.CacheEntry{
			Fingerprint: fp,
			Format:      domain.FormatSingleArchive,
			Ref:         domain.ContentRef{Root: domain.BlobID(fp.SummarizeV1()), Manifest: "m"},
		}))
	}

	got, err := store.Lookup(ctx, []domain.Fingerprint{second, first})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Fingerprint.Equal(second))
}

func TestLookup_MissReturnsNil(t *testing.T) {
	store, _ := newStore(t)

	got, err := store.Lookup(context.Background(), []domain.Fingerprint{
		mustFingerprint(t, "nothing", "here"),
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegister_FirstWriteWins(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	fp := mustFingerprint(t, "npm", "Linux", "f00dfeed")
	require.NoError(t, store.Register(ctx, domain.CacheEntry{
		Fingerprint: fp,
		Format:      domain.FormatSingleArchive,
		Ref:         domain.ContentRef{Root: "original", Manifest: "m1"},
	}))

	err := store.Register(ctx, domain.CacheEntry{
		Fingerprint: fp,
		Format:      domain.FormatSingleArchive,
		Ref:         domain.ContentRef{Root: "usurper", Manifest: "m2"},
	})
	require.ErrorIs(t, err, domain.ErrEntryExists)

	got, err := store.Lookup(ctx, []domain.Fingerprint{fp})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.BlobID("original"), got.Ref.Root)
}

func TestNewAtDir_PersistsAcrossInstances(t *testing.T) {
	ctrl := gomock.NewController(t)
	root := t.TempDir()
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "archive.tar")
	mustWrite(t, src, "persisted tar")

	first := localcas.NewAtDir(root, mocks.NewMockLogger(ctrl))
	ref, err := first.Publish(ctx, src)
	require.NoError(t, err)

	fp := mustFingerprint(t, "npm", "Linux", "0123abcd")
	require.NoError(t, first.Register(ctx, domain.CacheEntry{
		Fingerprint: fp,
		Format:      domain.FormatSingleArchive,
		Ref:         ref,
	}))

	// A fresh instance over the same directory sees everything.
	second := localcas.NewAtDir(root, mocks.NewMockLogger(ctrl))
	got, err := second.Lookup(ctx, []domain.Fingerprint{fp})
	require.NoError(t, err)
	require.NotNil(t, got)

	manifest, err := second.FetchManifest(ctx, got.Ref)
	require.NoError(t, err)
	item, err := manifest.ArchiveItem()
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted tar"), readBlob(t, second, item.Blob))
}
