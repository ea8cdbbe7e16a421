// Package remote implements the cache backend over the pipeline cache HTTP
// API. Entries are JSON documents addressed by a digest of the fingerprint
// key; blobs are opaque content-addressed streams.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	iofs "io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/ethanis/pipecache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	entriesRoute = "_apis/cache/entries"
	blobsRoute   = "_apis/cache/blobs"

	// transferConcurrency bounds parallel blob transfers for file sets.
	transferConcurrency = 8

	// bodySnippetLimit caps how much of an error response lands in logs.
	bodySnippetLimit = 512
)

var (
	_ ports.CacheIndex        = (*Client)(nil)
	_ ports.ContentStore      = (*Client)(nil)
	_ ports.FileSetDownloader = (*Client)(nil)
)

// Client talks to a pipeline cache service.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient creates a Client for the service at endpoint.
func NewClient(endpoint string) (*Client, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "parse cache endpoint"), "endpoint", endpoint)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, zerr.With(zerr.New("endpoint scheme must be http or https"), "endpoint", endpoint)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	return &Client{base: base, http: http.DefaultClient}, nil
}

// entryDoc is the wire form of a cache entry.
type entryDoc struct {
	Fingerprint []string          `json:"fingerprint"`
	Format      string            `json:"format"`
	Ref         domain.ContentRef `json:"ref"`
}

// blobReceipt is the service's answer to a blob upload.
type blobReceipt struct {
	BlobID string `json:"blobId"`
}

// Lookup asks the service for the best entry among the ranked candidates.
// The service answers 204 when nothing matches.
func (c *Client) Lookup(ctx context.Context, candidates []domain.Fingerprint) (*domain.CacheEntry, error) {
	query := url.Values{}
	for _, candidate := range candidates {
		query.Add("key", candidate.Key())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.route(entriesRoute)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, zerr.Wrap(err, "build lookup request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, zerr.Wrap(err, "query cache entries")
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, c.statusError("lookup", resp)
	}

	var doc entryDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, zerr.Wrap(err, "decode cache entry")
	}
	return doc.toEntry()
}

// Register creates the entry. The service answers 409 when the fingerprint
// is already taken, which surfaces as domain.ErrEntryExists.
func (c *Client) Register(ctx context.Context, entry domain.CacheEntry) error {
	doc := entryDoc{
		Fingerprint: entry.Fingerprint.Segments(),
		Format:      string(entry.Format),
		Ref:         entry.Ref,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return zerr.Wrap(err, "encode cache entry")
	}

	target := c.route(entriesRoute, keyDigest(entry.Fingerprint))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return zerr.Wrap(err, "build register request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zerr.Wrap(err, "register cache entry")
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusConflict:
		return zerr.With(domain.ErrEntryExists, "fingerprint", entry.Fingerprint.String())
	default:
		return c.statusError("register", resp)
	}
}

// Publish uploads the content rooted at an OS path. A plain file becomes a
// single-item manifest named after the file; a directory becomes one item
// per contained file, paths rooted at the directory's base name.
func (c *Client) Publish(ctx context.Context, root string) (domain.ContentRef, error) {
	info, err := os.Stat(root)
	if err != nil {
		return domain.ContentRef{}, zerr.With(zerr.Wrap(err, "stat publish source"), "path", root)
	}

	var manifest domain.Manifest
	if info.IsDir() {
		manifest, err = c.publishTree(ctx, root)
	} else {
		manifest, err = c.publishFile(ctx, root)
	}
	if err != nil {
		return domain.ContentRef{}, err
	}

	raw, err := json.Marshal(manifest)
	if err != nil {
		return domain.ContentRef{}, zerr.Wrap(err, "encode manifest")
	}
	manifestID, err := c.uploadBlob(ctx, bytes.NewReader(raw))
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
func (c *Client) FetchManifest(ctx context.Context, ref domain.ContentRef) (*domain.Manifest, error) {
	r, err := c.Open(ctx, ref.Manifest)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var manifest domain.Manifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, zerr.Wrap(err, "decode manifest")
	}
	return &manifest, nil
}

// Open streams one blob. The caller owns the returned reader.
func (c *Client) Open(ctx context.Context, blob domain.BlobID) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.route(blobsRoute, string(blob)), nil)
	if err != nil {
		return nil, zerr.Wrap(err, "build blob request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "fetch blob"), "blob", string(blob))
	}
	if resp.StatusCode != http.StatusOK {
		defer drain(resp.Body)
		return nil, zerr.With(c.statusError("fetch blob", resp), "blob", string(blob))
	}
	return resp.Body, nil
}

// Download copies the manifest items under filter into targetDir, preserving
// relative paths. An empty filter copies every item.
func (c *Client) Download(ctx context.Context, manifest *domain.Manifest, filter string, targetDir string) error {
	if manifest == nil {
		return zerr.With(domain.ErrMalformedManifest, "reason", "nil manifest")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(transferConcurrency)

	for _, item := range manifest.ItemsUnder(filter) {
		g.Go(func() error {
			return c.downloadItem(ctx, item, targetDir)
		})
	}
	return g.Wait()
}

func (c *Client) downloadItem(ctx context.Context, item domain.ManifestItem, targetDir string) error {
	src, err := c.Open(ctx, item.Blob)
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

func (c *Client) publishFile(ctx context.Context, file string) (domain.Manifest, error) {
	f, err := os.Open(file)
	if err != nil {
		return domain.Manifest{}, zerr.With(zerr.Wrap(err, "open publish source"), "path", file)
	}
	defer f.Close()

	id, err := c.uploadBlob(ctx, f)
	if err != nil {
		return domain.Manifest{}, err
	}
	return domain.Manifest{Items: []domain.ManifestItem{
		{Path: filepath.Base(file), Blob: id},
	}}, nil
}

func (c *Client) publishTree(ctx context.Context, dir string) (domain.Manifest, error) {
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
	g.SetLimit(transferConcurrency)
	for i, file := range files {
		g.Go(func() error {
			f, err := os.Open(file)
			if err != nil {
				return zerr.With(zerr.Wrap(err, "open publish source"), "path", file)
			}
			defer f.Close()

			id, err := c.uploadBlob(ctx, f)
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

func (c *Client) uploadBlob(ctx context.Context, src io.Reader) (domain.BlobID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.route(blobsRoute), src)
	if err != nil {
		return "", zerr.Wrap(err, "build upload request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", zerr.Wrap(err, "upload blob")
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", c.statusError("upload blob", resp)
	}

	var receipt blobReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return "", zerr.Wrap(err, "decode upload receipt")
	}
	if receipt.BlobID == "" {
		return "", zerr.New("upload receipt carries no blob id")
	}
	return domain.BlobID(receipt.BlobID), nil
}

func (c *Client) route(parts ...string) string {
	u := *c.base
	u.Path = path.Join(append([]string{u.Path}, parts...)...)
	return u.String()
}

func (c *Client) statusError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
	err := zerr.With(
		zerr.New(op+" rejected by cache service"),
		"status", strconv.Itoa(resp.StatusCode),
	)
	if text := strings.TrimSpace(string(snippet)); text != "" {
		err = zerr.With(err, "body", text)
	}
	return err
}

func (doc entryDoc) toEntry() (*domain.CacheEntry, error) {
	fp, err := domain.NewFingerprint(doc.Fingerprint...)
	if err != nil {
		return nil, zerr.Wrap(err, "decode entry fingerprint")
	}
	format, err := domain.ParseContentFormat(doc.Format)
	if err != nil {
		return nil, err
	}
	return &domain.CacheEntry{Fingerprint: fp, Format: format, Ref: doc.Ref}, nil
}

// keyDigest names the entry resource for a fingerprint.
func keyDigest(fp domain.Fingerprint) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fp.Key()))
}

// drain finishes the body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
	_ = body.Close()
}
