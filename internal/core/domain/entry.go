package domain

// ContentFormat selects how a cache payload is stored: one packed archive
// blob, or a direct tree of files addressed per path.
type ContentFormat string

const (
	// FormatSingleArchive stores the payload as a single packed archive blob.
	FormatSingleArchive ContentFormat = "archive"
	// FormatFileSet stores the payload as individual files addressed by path.
	FormatFileSet ContentFormat = "files"
)

// ParseContentFormat validates a config-provided format name. The empty
// string defaults to FormatSingleArchive.
func ParseContentFormat(s string) (ContentFormat, error) {
	switch ContentFormat(s) {
	case "":
		return FormatSingleArchive, nil
	case FormatSingleArchive, FormatFileSet:
		return ContentFormat(s), nil
	default:
		return "", ErrUnknownContentFormat
	}
}

// String returns the wire name of the format.
func (f ContentFormat) String() string { return string(f) }

// ContentRef is the opaque handle returned by the content store for a
// published payload: the payload root, the manifest describing its shape,
// and integrity proof data the store may require to serve it back.
type ContentRef struct {
	Root     BlobID `yaml:"root" json:"root"`
	Manifest BlobID `yaml:"manifest" json:"manifest"`
	Proof    []byte `yaml:"proof,omitempty" json:"proof,omitempty"`
}

// CacheEntry is the descriptor the remote index persists per fingerprint.
// Entries are written once on a successful save and never mutated; saving
// against an existing fingerprint is an idempotent skip, not an overwrite.
type CacheEntry struct {
	Fingerprint Fingerprint
	Format      ContentFormat
	Ref         ContentRef
}
