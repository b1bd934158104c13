package store

import (
	"context"
	"errors"
	"time"

	"github.com/gpteach/gpteach/internal/plan"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrArchived is returned when filing into an archived class.
	ErrArchived = errors.New("class is archived")

	// ErrNotArchived is returned when deleting a class that is still active.
	ErrNotArchived = errors.New("class is not archived")

	// ErrWrongClass is returned when a folder belongs to another class.
	ErrWrongClass = errors.New("folder belongs to another class")

	// ErrTrashed is returned when filing a plan that is in the trash.
	ErrTrashed = errors.New("plan is in the trash")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// PlanSummary is the list view of a stored plan.
type PlanSummary struct {
	ID         string
	Title      string
	TemplateID string
	Grade      string
	Subject    string
	Topic      string
	ClassID    string
	FolderID   string
	UpdatedAt  time.Time
}

// PlanRepo persists lesson plan documents.
type PlanRepo interface {
	// Save inserts or replaces the plan with d.ID.
	Save(ctx context.Context, d *plan.Document) error

	// Get returns the plan with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*plan.Document, error)

	// List returns summaries of plans outside the trash, most recently
	// updated first.
	List(ctx context.Context, limit int) ([]PlanSummary, error)

	// Delete permanently removes the plan with id, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// PlanFilter narrows a library listing. Unfiled takes precedence over
// ClassID; FolderID applies only with ClassID.
type PlanFilter struct {
	ClassID  string
	FolderID string
	Unfiled  bool
	Trashed  bool
	Limit    int
}

// LibraryRepo organises plans into classes and folders.
type LibraryRepo interface {
	// CreateClass stores a new class.
	CreateClass(ctx context.Context, c *plan.Class) error

	// GetClass returns the class with id, or ErrNotFound.
	GetClass(ctx context.Context, id string) (*plan.Class, error)

	// ListClasses returns active or archived classes, by name.
	ListClasses(ctx context.Context, archived bool) ([]plan.Class, error)

	// ArchiveClass hides a class from the library.
	ArchiveClass(ctx context.Context, id string) error

	// UnarchiveClass restores an archived class.
	UnarchiveClass(ctx context.Context, id string) error

	// DeleteClass permanently removes an archived class with its folders
	// and plans. It returns ErrNotArchived for an active class.
	DeleteClass(ctx context.Context, id string) error

	// CreateFolder stores a folder inside an active class.
	CreateFolder(ctx context.Context, f *plan.Folder) error

	// ListFolders returns the live folders directly under parentID.
	ListFolders(ctx context.Context, classID, parentID string) ([]plan.Folder, error)

	// DeleteFolder moves a folder, its subfolders and their plans to the trash.
	DeleteFolder(ctx context.Context, id string) error

	// FindPlans lists plans matching f, most recently updated first.
	FindPlans(ctx context.Context, f PlanFilter) ([]PlanSummary, error)

	// MovePlan files a plan under a class and optional folder. An empty
	// classID unfiles it.
	MovePlan(ctx context.Context, planID, classID, folderID string) (*plan.Document, error)

	// DuplicatePlan stores a copy of a plan next to the original.
	DuplicatePlan(ctx context.Context, planID string) (*plan.Document, error)

	// TrashPlan moves a plan to the trash.
	TrashPlan(ctx context.Context, planID string) error

	// RestorePlan takes a plan out of the trash.
	RestorePlan(ctx context.Context, planID string) error
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

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM calls by purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
	Failures     int
}

// ModelUsage aggregates LLM calls by model for cost estimation.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// WizardEventData records a single wizard transition.
type WizardEventData struct {
	SessionID  string
	Action     string
	FieldLabel string
	PlanID     string
	Detail     string
}

// WizardEvent is a stored wizard event.
type WizardEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	WizardEventData
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns a single event by id, or nil if none exists.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// AppendWizardEvent records a wizard transition.
	AppendWizardEvent(ctx context.Context, data WizardEventData) error

	// QueryWizardEvents returns wizard events, newest first. An empty
	// sessionID matches every session.
	QueryWizardEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]WizardEvent, error)
}
