package domain

// DateLayout is the wire format for calendar dates. Timestamps use RFC3339 UTC.
const DateLayout = "2006-01-02"

// Assignment statuses persisted in the database. "overdue" is derived at
// view time and never stored.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusOverdue    = "overdue"
)

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

const (
	ProgressPending   = "pending"
	ProgressCompleted = "completed"
)

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type Hive struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	OwnerUserID *string `json:"owner_user_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type Task struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Category        string  `json:"category,omitempty"`
	DueWindowDays   *int    `json:"due_window_days,omitempty"`
	CreatedByUserID *string `json:"created_by_user_id,omitempty"`
	Archived        bool    `json:"archived"`
	CreatedAt       string  `json:"created_at"`
}

type TaskStep struct {
	ID               string  `json:"id"`
	TaskID           string  `json:"task_id"`
	OrderIndex       int     `json:"order_index"`
	Title            string  `json:"title"`
	ContentText      *string `json:"content_text,omitempty"`
	MediaURL         *string `json:"media_url,omitempty"`
	MediaKind        *string `json:"media_kind,omitempty"`
	RequireUserMedia bool    `json:"require_user_media"`
	CreatedAt        string  `json:"created_at"`
}

type Assignment struct {
	ID              string  `json:"id"`
	TaskID          string  `json:"task_id"`
	HiveID          string  `json:"hive_id"`
	GroupID         *string `json:"group_id,omitempty"`
	CreatedByUserID *string `json:"created_by_user_id,omitempty"`
	StartDate       *string `json:"start_date,omitempty"`
	DueDate         string  `json:"due_date"`
	Status          string  `json:"status"`
	Archived        bool    `json:"archived"`
	CompletedAt     *string `json:"completed_at,omitempty"`
	ReviewStatus    string  `json:"review_status"`
	ReviewComment   *string `json:"review_comment,omitempty"`
	ReviewByUserID  *string `json:"review_by_user_id,omitempty"`
	ReviewAt        *string `json:"review_at,omitempty"`
	Rating          *int    `json:"rating,omitempty"`
	RatingComment   *string `json:"rating_comment,omitempty"`
	RatedAt         *string `json:"rated_at,omitempty"`
	NotifiedStart   bool    `json:"notified_start"`
	NotifiedDueSoon bool    `json:"notified_due_soon"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type Progress struct {
	ID           string  `json:"id"`
	AssignmentID string  `json:"assignment_id"`
	TaskStepID   string  `json:"task_step_id"`
	UserID       string  `json:"user_id"`
	Status       string  `json:"status"`
	CompletedAt  *string `json:"completed_at,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	EvidenceURL  *string `json:"evidence_url,omitempty"`
	EvidenceKind *string `json:"evidence_kind,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type HiveEvent struct {
	ID        int64   `json:"id"`
	HiveID    string  `json:"hive_id"`
	Type      string  `json:"type"`
	Payload   string  `json:"payload"`
	UserID    *string `json:"user_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type Notification struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Body      string  `json:"body,omitempty"`
	Link      string  `json:"link,omitempty"`
	CreatedAt string  `json:"created_at"`
	ReadAt    *string `json:"read_at,omitempty"`
}
