package selection

import (
	"context"
	"errors"
	"strings"
	"testing"

	"accountbot/internal/domain"
)

type fakeClassifier struct {
	result domain.AIClassification
	err    error
	calls  int
	last   ClassifyRequest
}

func (f *fakeClassifier) Classify(_ context.Context, req ClassifyRequest) (domain.AIClassification, error) {
	f.calls++
	f.last = req
	return f.result, f.err
}

type fakeExtractor struct {
	records []domain.AccountPattern
	err     error
}

func (f *fakeExtractor) ExtractPatterns(_ context.Context, _, _ string, _ []domain.TimeEntry) ([]domain.AccountPattern, error) {
	return f.records, f.err
}

func threeCandidates() []domain.Account {
	return []domain.Account{
		{ID: 1, Key: "ACC-A", Name: "Infrastructure Maintenance"},
		{ID: 2, Key: "ACC-B", Name: "Website Redesign"},
		{ID: 3, Key: "ACC-C", Name: "Internal Training"},
	}
}

func TestSelectNoCandidates(t *testing.T) {
	engine := NewEngine(&fakeClassifier{}, nil)
	got := engine.Select(context.Background(), domain.WorkItem{Key: "WEB-1"}, nil, domain.SelectionContext{})

	if got.Account != nil {
		t.Fatalf("expected nil account, got %+v", got.Account)
	}
	if got.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %f", got.Confidence)
	}
	if got.Method != domain.MethodNone {
		t.Fatalf("expected method none, got %s", got.Method)
	}
}

func TestSelectSingleCandidateSkipsAllScoring(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("must not be called")}
	engine := NewEngine(classifier, nil)
	only := domain.Account{ID: 7, Key: "ACC-X", Name: "Only Account"}

	got := engine.Select(context.Background(), domain.WorkItem{Key: "WEB-1"}, []domain.Account{only}, domain.SelectionContext{})

	if got.Account == nil || got.Account.Key != "ACC-X" {
		t.Fatalf("expected sole candidate, got %+v", got.Account)
	}
	if got.Confidence != 1.0 {
		t.Fatalf("expected confidence exactly 1.0, got %f", got.Confidence)
	}
	if classifier.calls != 0 {
		t.Fatalf("classifier must not be invoked for a singleton list, calls=%d", classifier.calls)
	}
	if len(got.Suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %d", len(got.Suggestions))
	}
}

func TestSelectAdoptsAIClassification(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AIClassification{SelectedKey: "ACC-B", Confidence: 0.87, Available: true}}
	engine := NewEngine(classifier, nil)

	item := domain.WorkItem{
		Key:         "WEB-10",
		ProjectKey:  "WEB",
		ProjectName: "Customer Portal",
		Summary:     "Redesign homepage banner",
		IssueType:   "Task",
		Status:      "In Progress",
	}
	got := engine.Select(context.Background(), item, threeCandidates(), domain.SelectionContext{})

	if got.Account == nil || got.Account.Key != "ACC-B" {
		t.Fatalf("expected AI-selected ACC-B, got %+v", got.Account)
	}
	if got.Confidence != 0.87 {
		t.Fatalf("expected classifier confidence 0.87, got %f", got.Confidence)
	}
	if !strings.Contains(got.Reason, "87%") {
		t.Fatalf("reason must embed the confidence percentage, got %q", got.Reason)
	}
	if got.Method != domain.MethodAI {
		t.Fatalf("expected method ai, got %s", got.Method)
	}
	for _, s := range got.Suggestions {
		if s.Account.Key == "ACC-B" {
			t.Fatalf("suggestions must not include the chosen account")
		}
		if strings.Contains(s.Reason, "AI") {
			t.Fatalf("suggestion reasons must not claim AI influence, got %q", s.Reason)
		}
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier must be invoked exactly once, calls=%d", classifier.calls)
	}
}

func TestSelectBuildsClassifierRequest(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AIClassification{SelectedKey: "ACC-A", Confidence: 0.9, Available: true}}
	engine := NewEngine(classifier, nil)

	item := domain.WorkItem{
		Key:         "WEB-10",
		ProjectKey:  "WEB",
		ProjectName: "Customer Portal",
		Summary:     "Redesign homepage banner",
		IssueType:   "Task",
		Status:      "In Progress",
	}
	sctx := domain.SelectionContext{Description: "moving the hero image"}
	engine.Select(context.Background(), item, threeCandidates(), sctx)

	if classifier.last.Text != "Redesign homepage banner\n\nmoving the hero image" {
		t.Fatalf("unexpected classifier text: %q", classifier.last.Text)
	}
	if classifier.last.Context != "Project: Customer Portal (WEB). Issue Type: Task. Status: In Progress" {
		t.Fatalf("unexpected classifier context: %q", classifier.last.Context)
	}
	if len(classifier.last.Options) != 3 || classifier.last.Options[1].ID != "ACC-B" {
		t.Fatalf("unexpected classifier options: %+v", classifier.last.Options)
	}
}

func TestSelectDefaultsOmittedAIConfidence(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AIClassification{SelectedKey: "ACC-A", Available: true}}
	engine := NewEngine(classifier, nil)

	got := engine.Select(context.Background(), domain.WorkItem{Key: "WEB-1", ProjectKey: "WEB"}, threeCandidates(), domain.SelectionContext{})

	if got.Confidence != 0.8 {
		t.Fatalf("expected default confidence 0.8, got %f", got.Confidence)
	}
	if !strings.Contains(got.Reason, "80%") {
		t.Fatalf("reason should embed the default percentage, got %q", got.Reason)
	}
}

func TestSelectFallsBackOnUnknownKey(t *testing.T) {
	classifier := &fakeClassifier{result: domain.AIClassification{SelectedKey: "ACC-STALE", Confidence: 0.95, Available: true}}
	engine := NewEngine(classifier, nil)

	got := engine.Select(context.Background(), domain.WorkItem{Key: "WEB-1", ProjectKey: "WEB"}, threeCandidates(), domain.SelectionContext{})

	if got.Account == nil {
		t.Fatalf("fallback must still choose an account")
	}
	if got.Method != domain.MethodFallback {
		t.Fatalf("expected method fallback, got %s", got.Method)
	}
	if classifier.calls != 1 {
		t.Fatalf("classifier must not be retried, calls=%d", classifier.calls)
	}
}

func TestSelectFallsBackOnClassifierError(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("classifier down")}
	engine := NewEngine(classifier, nil)

	got := engine.Select(context.Background(), domain.WorkItem{Key: "WEB-1", ProjectKey: "WEB"}, threeCandidates(), domain.SelectionContext{})

	if got.Account == nil {
		t.Fatalf("classifier errors must degrade to fallback, not a nil result")
	}
	if got.Method != domain.MethodFallback {
		t.Fatalf("expected method fallback, got %s", got.Method)
	}
}

func TestSelectFallbackScenarioHistoryDominates(t *testing.T) {
	// A was used 4/5 times on this project; the summary shares a keyword
	// with B's name only; the classifier is unavailable. Historical weight
	// (0.6*0.8) must beat B's partial lexical contribution.
	classifier := &fakeClassifier{result: domain.AIClassification{Available: false}}
	engine := NewEngine(classifier, nil)

	item := domain.WorkItem{
		Key:         "WEB-10",
		ProjectKey:  "WEB",
		ProjectName: "Customer Portal",
		Summary:     "Redesign homepage banner",
	}
	sctx := domain.SelectionContext{
		UsageLog: usageLog(
			[2]string{"WEB-1", "ACC-A"},
			[2]string{"WEB-2", "ACC-A"},
			[2]string{"WEB-3", "ACC-A"},
			[2]string{"WEB-4", "ACC-A"},
			[2]string{"WEB-5", "ACC-C"},
		),
	}
	got := engine.Select(context.Background(), item, threeCandidates(), sctx)

	if got.Account == nil || got.Account.Key != "ACC-A" {
		t.Fatalf("expected history-dominant ACC-A, got %+v", got.Account)
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Fatalf("fallback confidence out of range: %f", got.Confidence)
	}
	foundB := false
	for _, s := range got.Suggestions {
		if s.Account.Key == "ACC-B" {
			foundB = true
		}
	}
	if !foundB {
		t.Fatalf("expected ACC-B among suggestions, got %+v", got.Suggestions)
	}
	if len(got.Suggestions) > 2 {
		t.Fatalf("at most 2 suggestions allowed, got %d", len(got.Suggestions))
	}
	for i := 1; i < len(got.Suggestions); i++ {
		if got.Suggestions[i].Score > got.Suggestions[i-1].Score {
			t.Fatalf("suggestions not in descending score order: %+v", got.Suggestions)
		}
	}
}

func TestSelectFallbackTiesKeepCallerOrder(t *testing.T) {
	engine := NewEngine(nil, nil)
	candidates := []domain.Account{
		{ID: 1, Key: "ACC-1", Name: "Zeta"},
		{ID: 2, Key: "ACC-2", Name: "Alpha"},
		{ID: 3, Key: "ACC-3", Name: "Midway"},
	}

	got := engine.Select(context.Background(), domain.WorkItem{Key: "OPS-1", ProjectKey: "OPS", Summary: "unrelated work"}, candidates, domain.SelectionContext{})

	if got.Account == nil || got.Account.Key != "ACC-1" {
		t.Fatalf("all-zero scores must keep caller order, got %+v", got.Account)
	}
	if len(got.Suggestions) != 2 || got.Suggestions[0].Account.Key != "ACC-2" || got.Suggestions[1].Account.Key != "ACC-3" {
		t.Fatalf("tied suggestions must keep caller order, got %+v", got.Suggestions)
	}
}

func TestSelectUsesPatternExtractorWhenRichHistoryPresent(t *testing.T) {
	extractor := &fakeExtractor{records: []domain.AccountPattern{
		{AccountKey: "ACC-C", MatchScore: 0.9, Reasons: []string{"logged 4 past entries on WEB-10"}},
	}}
	engine := NewEngine(nil, extractor)

	item := domain.WorkItem{Key: "WEB-10", ProjectKey: "WEB", Summary: "unrelated"}
	sctx := domain.SelectionContext{
		Entries: []domain.TimeEntry{{IssueKey: "WEB-10", AccountKey: "ACC-C", Description: "past work"}},
	}
	got := engine.Select(context.Background(), item, threeCandidates(), sctx)

	if got.Account == nil || got.Account.Key != "ACC-C" {
		t.Fatalf("expected pattern-matched ACC-C, got %+v", got.Account)
	}
	if !strings.Contains(got.Reason, "logged 4 past entries on WEB-10") {
		t.Fatalf("expected learned reason, got %q", got.Reason)
	}
}

func TestSelectPatternExtractorErrorFallsBackToUsageLog(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("pattern service down")}
	engine := NewEngine(nil, extractor)

	item := domain.WorkItem{Key: "WEB-10", ProjectKey: "WEB", Summary: "unrelated"}
	sctx := domain.SelectionContext{
		Entries:  []domain.TimeEntry{{IssueKey: "WEB-1", AccountKey: "ACC-A"}},
		UsageLog: usageLog([2]string{"WEB-1", "ACC-A"}),
	}
	got := engine.Select(context.Background(), item, threeCandidates(), sctx)

	if got.Account == nil || got.Account.Key != "ACC-A" {
		t.Fatalf("expected basic-aggregator winner ACC-A, got %+v", got.Account)
	}
}
