package domain

import "time"

// Account is a billing/work account a time entry can be booked against.
// Accounts are caller-supplied; the engine never creates or mutates them.
type Account struct {
	ID   int64
	Key  string
	Name string
}

// WorkItem is the issue-linked unit of tracked work a selection is made for.
type WorkItem struct {
	Key         string
	ProjectKey  string
	ProjectName string
	Summary     string
	IssueType   string
	Status      string
}

// UsageRecord is one logged use of an account for an issue.
type UsageRecord struct {
	IssueKey   string
	AccountKey string
}

// TimeEntry is a full past work entry, rich enough for content-aware
// similarity scoring.
type TimeEntry struct {
	IssueKey    string
	ProjectKey  string
	AccountKey  string
	Description string
	LoggedAt    time.Time
	Seconds     int
}

// SelectionContext carries the per-call history and free text. It is
// supplied per call and never retained.
type SelectionContext struct {
	Description string
	UsageLog    []UsageRecord
	Entries     []TimeEntry
}

// AIClassification is the classifier's opinion for one selection call.
// Available=false or an empty SelectedKey both mean "no usable AI opinion".
// The zero value is the neutral placeholder used on the fallback path.
type AIClassification struct {
	SelectedKey string
	Confidence  float64
	Available   bool
}

// AccountPattern is one per-account record from the historical pattern
// extraction collaborator. Reasons are ranked, best first.
type AccountPattern struct {
	AccountKey string
	MatchScore float64
	Reasons    []string
}

// ScoredCandidate pairs a candidate account with its fallback score and a
// human-readable explanation. Ephemeral within a single selection call.
type ScoredCandidate struct {
	Account Account
	Score   float64
	Reason  string
}

// Selection method labels, stored on audit rows.
const (
	MethodNone     = "none"
	MethodSingle   = "single"
	MethodAI       = "ai"
	MethodFallback = "fallback"
)

// Selection is the engine's result. Confidence is always in [0,1];
// Suggestions never include the chosen account and hold at most two
// entries, ordered by descending score.
type Selection struct {
	Account     *Account
	Confidence  float64
	Reason      string
	Method      string
	Suggestions []ScoredCandidate
}

// SelectionRecord is a stored audit row for one completed selection.
type SelectionRecord struct {
	ID          int64
	IssueKey    string
	AccountKey  string
	AccountName string
	Confidence  float64
	Method      string
	Reason      string
	DecidedAt   time.Time
}

// SelectionStats summarizes selections over a period for the digest.
type SelectionStats struct {
	Total         int
	AICount       int
	FallbackCount int
	AvgConfidence float64
	BucketBelow50 int
	Bucket50to70  int
	Bucket70to90  int
	Bucket90Plus  int
}
