package domain_test

import (
	"testing"

	"github.com/ethanis/pipecache/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFingerprint(t *testing.T, segments ...string) domain.Fingerprint {
	t.Helper()
	fp, err := domain.NewFingerprint(segments...)
	require.NoError(t, err)
	return fp
}

func TestClassifyHit(t *testing.T) {
	summaryOfA := mustFingerprint(t, "A").SummarizeV1()

	tests := []struct {
		name      string
		requested [][]string
		matched   []string
		want      domain.Hit
	}{
		{
			name:      "verbatim match against first candidate",
			requested: [][]string{{"A", "B"}, {"A"}},
			matched:   []string{"A", "B"},
			want:      domain.HitExact,
		},
		{
			name:      "verbatim match against restore candidate",
			requested: [][]string{{"A", "B"}, {"A"}},
			matched:   []string{"A"},
			want:      domain.HitExact,
		},
		{
			name:      "single segment equal to a candidate's v1 summary",
			requested: [][]string{{"A"}},
			matched:   []string{summaryOfA},
			want:      domain.HitExact,
		},
		{
			name:      "prefix match is only inexact",
			requested: [][]string{{"A", "B"}},
			matched:   []string{"A", "C"},
			want:      domain.HitInexact,
		},
		{
			name:      "unrelated entry is inexact",
			requested: [][]string{{"A", "B"}},
			matched:   []string{"Z"},
			want:      domain.HitInexact,
		},
		{
			name:      "no entry found",
			requested: [][]string{{"A", "B"}},
			matched:   nil,
			want:      domain.HitMiss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := make([]domain.Fingerprint, 0, len(tt.requested))
			for _, segs := range tt.requested {
				candidates = append(candidates, mustFingerprint(t, segs...))
			}

			var matched *domain.Fingerprint
			if tt.matched != nil {
				fp := mustFingerprint(t, tt.matched...)
				matched = &fp
			}

			assert.Equal(t, tt.want, domain.ClassifyHit(candidates, matched))
		})
	}
}

func TestClassifyHit_ZeroMatched(t *testing.T) {
	candidates := []domain.Fingerprint{mustFingerprint(t, "A")}
	var zero domain.Fingerprint

	assert.Equal(t, domain.HitMiss, domain.ClassifyHit(candidates, &zero))
}

func TestHit_Variable(t *testing.T) {
	tests := []struct {
		name string
		hit  domain.Hit
		want string
	}{
		{name: "miss", hit: domain.HitMiss, want: "false"},
		{name: "inexact", hit: domain.HitInexact, want: "inexact"},
		{name: "exact", hit: domain.HitExact, want: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hit.Variable())
		})
	}
}

func TestHit_String(t *testing.T) {
	assert.Equal(t, "miss", domain.HitMiss.String())
	assert.Equal(t, "inexact", domain.HitInexact.String())
	assert.Equal(t, "exact", domain.HitExact.String())
}
