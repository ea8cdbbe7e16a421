package domain

import "go.trai.ch/zerr"

var (
	// ErrEmptyFingerprint is returned when a fingerprint would have no
	// segments or an empty segment.
	ErrEmptyFingerprint = zerr.New("fingerprint must have at least one non-empty segment")

	// ErrMalformedManifest is returned when a SingleArchive manifest does not
	// contain exactly one item ending in the archive suffix.
	ErrMalformedManifest = zerr.New("malformed manifest: expected exactly one archive item")

	// ErrUnknownContentFormat is returned when a config names a content
	// format this client does not implement.
	ErrUnknownContentFormat = zerr.New("unknown content format")

	// ErrNotADirectory is returned when a file path is given where packing
	// requires a directory.
	ErrNotADirectory = zerr.New("path is not a directory")

	// ErrNoPathsResolved is returned when the configured cache paths expand
	// to nothing on disk.
	ErrNoPathsResolved = zerr.New("no cache paths resolved")

	// ErrToolNotFound is returned when an external tool could not be started
	// at all (missing from PATH, permission denied). It distinguishes a
	// missing dependency from a failing one.
	ErrToolNotFound = zerr.New("external tool not found")

	// ErrToolFailed is returned when an external tool started but exited
	// non-zero.
	ErrToolFailed = zerr.New("external tool failed")

	// ErrEntryExists is reported by an index when registering a fingerprint
	// that already has an entry. The first write wins; entries are immutable.
	ErrEntryExists = zerr.New("cache entry already exists")

	// ErrEndpointRequired is returned when neither config nor environment
	// provide a cache endpoint.
	ErrEndpointRequired = zerr.New("cache endpoint not configured")

	// ErrConfigInvalid is returned when the config file fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")
)
