package domain

// Hit classifies the outcome of a restore lookup.
type Hit int

const (
	// HitMiss means no entry matched any requested fingerprint.
	HitMiss Hit = iota
	// HitInexact means an entry matched, but not one of the requested
	// fingerprints verbatim (the index ranked in a related candidate).
	HitInexact
	// HitExact means the matched entry equals a requested fingerprint, or is
	// a legacy single-segment entry equal to a candidate's v1 summary.
	HitExact
)

// Variable returns the value exposed to callers through the hit variable.
// Callers branch on this to decide whether to skip rebuild steps.
func (h Hit) Variable() string {
	switch h {
	case HitExact:
		return "true"
	case HitInexact:
		return "inexact"
	default:
		return "false"
	}
}

// String renders the classification for log output.
func (h Hit) String() string {
	switch h {
	case HitExact:
		return "exact"
	case HitInexact:
		return "inexact"
	default:
		return "miss"
	}
}

// ClassifyHit compares the matched entry fingerprint against the requested
// candidates. The match is exact when it equals a candidate verbatim, or when
// it is single-segment and its literal value equals the v1 summary of a
// candidate (entries written by first-generation clients). Any other match is
// inexact; a nil match is a miss.
func ClassifyHit(requested []Fingerprint, matched *Fingerprint) Hit {
	if matched == nil || matched.IsZero() {
		return HitMiss
	}
	for _, candidate := range requested {
		if candidate.Equal(*matched) {
			return HitExact
		}
		if matched.SingleSegment() && matched.Segment(0) == candidate.SummarizeV1() {
			return HitExact
		}
	}
	return HitInexact
}
