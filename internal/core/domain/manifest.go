package domain

import "strings"

// ArchiveSuffix is the reserved manifest item suffix identifying the packed
// archive blob of a SingleArchive entry. Matching is case-insensitive.
const ArchiveSuffix = "archive.tar"

// BlobID is an opaque content identifier issued by the content store.
type BlobID string

// String returns the raw identifier.
func (b BlobID) String() string { return string(b) }

// ManifestItem maps one relative path to the blob holding its content.
type ManifestItem struct {
	Path string `yaml:"path" json:"path"`
	Blob BlobID `yaml:"blob" json:"blob"`
}

// Manifest describes the shape of a stored payload as an ordered list of
// path-to-blob items.
type Manifest struct {
	Items []ManifestItem `yaml:"items" json:"items"`
}

// ArchiveItem validates the SingleArchive manifest shape and returns its one
// item. The manifest must contain exactly one item whose path ends in
// ArchiveSuffix; any other shape returns ErrMalformedManifest. Callers must
// run this validation before starting any download.
func (m *Manifest) ArchiveItem() (ManifestItem, error) {
	if len(m.Items) != 1 {
		return ManifestItem{}, ErrMalformedManifest
	}
	item := m.Items[0]
	if !IsArchivePath(item.Path) {
		return ManifestItem{}, ErrMalformedManifest
	}
	return item, nil
}

// IsArchivePath reports whether path names the reserved archive content.
func IsArchivePath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ArchiveSuffix)
}

// ItemsUnder returns the items whose slash-separated paths equal the prefix
// or sit below it. An empty prefix keeps every item. Matching stops at path
// boundaries, so "out/a" does not cover "out/ab".
func (m *Manifest) ItemsUnder(prefix string) []ManifestItem {
	if prefix == "" {
		return m.Items
	}
	var items []ManifestItem
	for _, item := range m.Items {
		if item.Path == prefix || strings.HasPrefix(item.Path, prefix+"/") {
			items = append(items, item)
		}
	}
	return items
}
