package remote_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/ethanis/pipecache/internal/adapters/remote"
	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is an in-memory stand-in for the cache service API.
type fakeService struct {
	mu      sync.Mutex
	entries map[string][]byte
	blobs   map[string][]byte
}

func newFakeService(t *testing.T) (*fakeService, *remote.Client) {
	t.Helper()
	svc := &fakeService{
		entries: map[string][]byte{},
		blobs:   map[string][]byte{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /_apis/cache/entries", svc.lookup)
	mux.HandleFunc("PUT /_apis/cache/entries/{digest}", svc.register)
	mux.HandleFunc("POST /_apis/cache/blobs", svc.upload)
	mux.HandleFunc("GET /_apis/cache/blobs/{id}", svc.fetch)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := remote.NewClient(server.URL)
	require.NoError(t, err)
	return svc, client
}

func (s *fakeService) lookup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range r.URL.Query()["key"] {
		digest := fmt.Sprintf("%016x", xxhash.Sum64String(key))
		if doc, ok := s.entries[digest]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(doc)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *fakeService) register(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	digest := r.PathValue("digest")
	if _, ok := s.entries[digest]; ok {
		w.WriteHeader(http.StatusConflict)
		return
	}
	doc, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.entries[digest] = doc
	w.WriteHeader(http.StatusCreated)
}

func (s *fakeService) upload(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	id := fmt.Sprintf("%016x", xxhash.Sum64(content))

	s.mu.Lock()
	s.blobs[id] = content
	s.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"blobId": id})
}

func (s *fakeService) fetch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	content, ok := s.blobs[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(content)
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

func TestNewClient_RejectsNonHTTPEndpoints(t *testing.T) {
	for _, endpoint := range []string{"ftp://cache.example.com", "/var/cache", "cache.example.com"} {
		_, err := remote.NewClient(endpoint)
		assert.Error(t, err, endpoint)
	}
}

func TestLookup_MissReturnsNil(t *testing.T) {
	_, client := newFakeService(t)

	got, err := client.Lookup(context.Background(), []domain.Fingerprint{
		mustFingerprint(t, "npm", "Linux", "deadbeef"),
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRegisterAndLookup(t *testing.T) {
	_, client := newFakeService(t)
	ctx := context.Background()

	fp := mustFingerprint(t, "npm", "Linux", "f00dfeed")
	entry := domain.CacheEntry{
		Fingerprint: fp,
		Format:      domain.FormatFileSet,
		Ref: domain.ContentRef{
			Root:     "aaaa",
			Manifest: "bbbb",
			Proof:    []byte("seal"),
		},
	}
	require.NoError(t, client.Register(ctx, entry))

	miss := mustFingerprint(t, "npm", "Linux", "deadbeef")
	got, err := client.Lookup(ctx, []domain.Fingerprint{miss, fp})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.Fingerprint.Equal(fp))
	assert.Equal(t, domain.FormatFileSet, got.Format)
	assert.Equal(t, entry.Ref, got.Ref)
}

func TestRegister_ConflictReportsEntryExists(t *testing.T) {
	_, client := newFakeService(t)
	ctx := context.Background()

	fp := mustFingerprint(t, "npm", "Linux", "f00dfeed")
	entry := domain.CacheEntry{
		Fingerprint: fp,
		Format:      domain.FormatSingleArchive,
		Ref:         domain.ContentRef{Root: "aaaa", Manifest: "bbbb"},
	}
	require.NoError(t, client.Register(ctx, entry))

	err := client.Register(ctx, entry)
	require.ErrorIs(t, err, domain.ErrEntryExists)
}

func TestPublishFile_RoundTrip(t *testing.T) {
	_, client := newFakeService(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "archive.tar")
	mustWrite(t, src, "tar bytes")

	ref, err := client.Publish(ctx, src)
	require.NoError(t, err)

	manifest, err := client.FetchManifest(ctx, ref)
	require.NoError(t, err)
	item, err := manifest.ArchiveItem()
	require.NoError(t, err)
	assert.Equal(t, item.Blob, ref.Root)

	r, err := client.Open(ctx, item.Blob)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("tar bytes"), got)
}

func TestPublishDirectoryAndDownload(t *testing.T) {
	_, client := newFakeService(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "dist")
	mustWrite(t, filepath.Join(src, "app.js"), "bundle")
	mustWrite(t, filepath.Join(src, "assets", "logo.svg"), "<svg/>")

	ref, err := client.Publish(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, ref.Manifest, ref.Root)

	manifest, err := client.FetchManifest(ctx, ref)
	require.NoError(t, err)
	require.Len(t, manifest.Items, 2)

	target := t.TempDir()
	require.NoError(t, client.Download(ctx, manifest, "", target))

	got, err := os.ReadFile(filepath.Join(target, "dist", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bundle"), got)
	got, err = os.ReadFile(filepath.Join(target, "dist", "assets", "logo.svg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("<svg/>"), got)

	// Narrowed download leaves the rest of the manifest alone.
	narrow := t.TempDir()
	require.NoError(t, client.Download(ctx, manifest, "dist/assets", narrow))
	assert.FileExists(t, filepath.Join(narrow, "dist", "assets", "logo.svg"))
	assert.NoFileExists(t, filepath.Join(narrow, "dist", "app.js"))
}

func TestOpen_MissingBlobFails(t *testing.T) {
	_, client := newFakeService(t)

	_, err := client.Open(context.Background(), "0000000000000000")
	require.Error(t, err)
}

func TestLookup_ServiceFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cache service unavailable", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := remote.NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), []domain.Fingerprint{
		mustFingerprint(t, "npm"),
	})
	require.Error(t, err)
}
