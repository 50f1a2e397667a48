package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// SnapshotData captures durable tutor state at a point in time.
type SnapshotData struct {
	Version int                  `json:"version"`
	Mastery *MasterySnapshotData `json:"mastery,omitempty"`
}

// MasterySnapshotData is every student's concept mastery. Format is the
// semantic version of the layout.
type MasterySnapshotData struct {
	Format   string                          `json:"format"`
	Students map[string][]ConceptMasteryData `json:"students"`
}

// ConceptMasteryData is one concept row of a mastery snapshot.
type ConceptMasteryData struct {
	Concept   string    `json:"concept"`
	Mastery   float64   `json:"mastery"`
	Learn     float64   `json:"p_t,omitempty"`
	Slip      float64   `json:"p_s,omitempty"`
	Guess     float64   `json:"p_g,omitempty"`
	Attempts  int       `json:"attempts"`
	Correct   int       `json:"correct"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot represents a point-in-time capture of tutor state.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages state snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage per purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage per model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// MasteryEventData records one mastery update.
type MasteryEventData struct {
	StudentID   string
	Concept     string
	Correct     bool
	OldMastery  float64
	NewMastery  float64
	Learn       float64
	Slip        float64
	Guess       float64
	Explanation string
}

// MasteryEventRecord is a stored mastery update.
type MasteryEventRecord struct {
	Sequence  int64
	Timestamp time.Time
	MasteryEventData
}

// HintEventData records one intervention decision and the hint delivered.
type HintEventData struct {
	SessionID string
	StudentID string
	Concept   string
	FocusType string
	HintLevel int
	Path      string
	Urgency   float64
	Reasons   []string
	HintText  string
	Fallback  bool // hint text came from the teaching moment, not the LLM
}

// HintEventRecord is a stored hint event.
type HintEventRecord struct {
	Sequence  int64
	Timestamp time.Time
	HintEventData
}

// VivaAnswerEventData records one scored viva answer.
type VivaAnswerEventData struct {
	SessionID       string
	StudentID       string
	QuestionID      string
	QuestionType    string
	Transcript      string
	DurationSeconds float64
	Score           float64
	Matched         []string
	Missing         []string
	Scorer          string
	Acceptable      bool
}

// VivaVerdictEventData records a final viva verdict.
type VivaVerdictEventData struct {
	SessionID      string
	StudentID      string
	Verdict        string
	AverageScore   float64
	Answered       int
	TotalQuestions int
}

// VivaVerdictRecord is a stored viva verdict.
type VivaVerdictRecord struct {
	Sequence  int64
	Timestamp time.Time
	VivaVerdictEventData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)
	// GetLLMEvent returns nil when no event has the id.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	AppendMasteryEvent(ctx context.Context, data MasteryEventData) error
	QueryMasteryEvents(ctx context.Context, studentID string, opts QueryOpts) ([]MasteryEventRecord, error)

	AppendHintEvent(ctx context.Context, data HintEventData) error
	QueryHintEvents(ctx context.Context, studentID string, opts QueryOpts) ([]HintEventRecord, error)

	AppendVivaAnswer(ctx context.Context, data VivaAnswerEventData) error
	AppendVivaVerdict(ctx context.Context, data VivaVerdictEventData) error
	QueryVivaVerdicts(ctx context.Context, studentID string, opts QueryOpts) ([]VivaVerdictRecord, error)
}
