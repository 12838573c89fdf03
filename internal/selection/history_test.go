package selection

import (
	"math"
	"testing"

	"accountbot/internal/domain"
)

func usageLog(pairs ...[2]string) []domain.UsageRecord {
	out := make([]domain.UsageRecord, len(pairs))
	for i, p := range pairs {
		out[i] = domain.UsageRecord{IssueKey: p[0], AccountKey: p[1]}
	}
	return out
}

func TestUsageShareRatio(t *testing.T) {
	log := usageLog(
		[2]string{"WEB-1", "ACC-A"},
		[2]string{"WEB-2", "ACC-A"},
		[2]string{"WEB-3", "ACC-B"},
		[2]string{"WEB-4", "ACC-A"},
		[2]string{"OPS-1", "ACC-B"},
	)

	got := UsageShare("ACC-A", "WEB", log)
	want := 3.0 / 4.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("UsageShare = %f, want %f", got, want)
	}
}

func TestUsageShareBoundaries(t *testing.T) {
	log := usageLog(
		[2]string{"WEB-1", "ACC-A"},
		[2]string{"WEB-2", "ACC-A"},
	)

	if got := UsageShare("ACC-A", "WEB", log); got != 1.0 {
		t.Fatalf("K=N should yield 1.0, got %f", got)
	}
	if got := UsageShare("ACC-B", "WEB", log); got != 0 {
		t.Fatalf("K=0 should yield 0, got %f", got)
	}
}

func TestUsageShareNoProjectRecords(t *testing.T) {
	log := usageLog([2]string{"OPS-1", "ACC-A"})
	if got := UsageShare("ACC-A", "WEB", log); got != 0 {
		t.Fatalf("no project records should yield 0, got %f", got)
	}
	if got := UsageShare("ACC-A", "WEB", nil); got != 0 {
		t.Fatalf("empty log should yield 0, got %f", got)
	}
}

func TestUsageShareRequiresHyphenatedPrefix(t *testing.T) {
	// "WEBX-1" must not count as a WEB issue; the prefix includes the hyphen.
	log := usageLog(
		[2]string{"WEBX-1", "ACC-A"},
		[2]string{"WEB-1", "ACC-B"},
	)
	if got := UsageShare("ACC-A", "WEB", log); got != 0 {
		t.Fatalf("WEBX-1 should not match project WEB, got %f", got)
	}
	if got := UsageShare("ACC-B", "WEB", log); got != 1.0 {
		t.Fatalf("WEB-1 should match project WEB, got %f", got)
	}
}
