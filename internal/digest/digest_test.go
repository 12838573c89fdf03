package digest

import (
	"strings"
	"testing"

	"accountbot/internal/domain"
)

func TestFormatDigestEmpty(t *testing.T) {
	got := FormatDigest(domain.SelectionStats{})
	if got != "No account selections since the last digest." {
		t.Fatalf("unexpected empty digest: %q", got)
	}
}

func TestFormatDigest(t *testing.T) {
	stats := domain.SelectionStats{
		Total:         10,
		AICount:       7,
		FallbackCount: 3,
		AvgConfidence: 0.815,
		BucketBelow50: 1,
		Bucket50to70:  2,
		Bucket70to90:  4,
		Bucket90Plus:  3,
	}
	got := FormatDigest(stats)

	for _, want := range []string{"10 total", "7 AI", "3 fallback", "82%", "<50%: 1", "90%+: 3"} {
		if !strings.Contains(got, want) {
			t.Fatalf("digest missing %q: %q", want, got)
		}
	}
}
