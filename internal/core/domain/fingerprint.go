// Package domain defines the core value types for the cache client.
package domain

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// SegmentSeparator joins fingerprint segments into their canonical wire form.
// U+001F (unit separator) cannot appear in key parts or file paths, so the
// joined form is unambiguous.
const SegmentSeparator = "\x1f"

// Fingerprint is one cache key candidate: an ordered, non-empty sequence of
// opaque string segments. Segment order is significant and is preserved
// end-to-end; two fingerprints with the same segments in a different order
// identify different cache entries.
type Fingerprint struct {
	segments []string
}

// NewFingerprint creates a Fingerprint from the given segments.
// It returns ErrEmptyFingerprint if no segments are provided or any segment
// is empty.
func NewFingerprint(segments ...string) (Fingerprint, error) {
	if len(segments) == 0 {
		return Fingerprint{}, ErrEmptyFingerprint
	}
	for _, s := range segments {
		if s == "" {
			return Fingerprint{}, ErrEmptyFingerprint
		}
	}
	copied := make([]string, len(segments))
	copy(copied, segments)
	return Fingerprint{segments: copied}, nil
}

// ParseFingerprint reconstructs a Fingerprint from its canonical joined form.
func ParseFingerprint(key string) (Fingerprint, error) {
	if key == "" {
		return Fingerprint{}, ErrEmptyFingerprint
	}
	return NewFingerprint(strings.Split(key, SegmentSeparator)...)
}

// Segments returns a copy of the ordered segments.
func (f Fingerprint) Segments() []string {
	copied := make([]string, len(f.segments))
	copy(copied, f.segments)
	return copied
}

// Segment returns the segment at index i without copying.
func (f Fingerprint) Segment(i int) string {
	return f.segments[i]
}

// Len returns the number of segments.
func (f Fingerprint) Len() int {
	return len(f.segments)
}

// IsZero reports whether the fingerprint has no segments at all.
func (f Fingerprint) IsZero() bool {
	return len(f.segments) == 0
}

// SingleSegment reports whether the fingerprint consists of exactly one
// segment. Single-segment fingerprints are usable directly as a literal
// path or identity without hashing.
func (f Fingerprint) SingleSegment() bool {
	return len(f.segments) == 1
}

// Key returns the canonical joined form used as a map key and on the wire.
func (f Fingerprint) Key() string {
	return strings.Join(f.segments, SegmentSeparator)
}

// Equal reports whether both fingerprints have identical segments in
// identical order.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if len(f.segments) != len(other.segments) {
		return false
	}
	for i, s := range f.segments {
		if other.segments[i] != s {
			return false
		}
	}
	return true
}

// SummarizeV1 returns the lossy single-string summary of the fingerprint.
// First-generation clients stored a single hash string as their whole cache
// key; this reproduces that form from a segmented fingerprint so lookups can
// recognize entries written by those clients. It is used only for legacy
// comparison, never as a storage key for new entries.
func (f Fingerprint) SummarizeV1() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(f.Key()))
}

// String renders the segments for log output.
func (f Fingerprint) String() string {
	return strings.Join(f.segments, "|")
}
