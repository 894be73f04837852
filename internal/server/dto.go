package server

// Request bodies for the HTTP API. Responses reuse the domain and engine
// types directly; they already carry the wire-format JSON tags.

type CreateUserRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty" enum:"user,manager,admin"`
}

type CreateHiveRequest struct {
	ID          string `json:"id,omitempty"`
	Label       string `json:"label"`
	OwnerUserID string `json:"owner_user_id,omitempty"`
}

type UpdateHiveRequest struct {
	Label       *string `json:"label,omitempty"`
	OwnerUserID *string `json:"owner_user_id,omitempty"`
}

type CreateGroupRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type CreateTaskRequest struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	Category      string `json:"category,omitempty"`
	DueWindowDays *int   `json:"due_window_days,omitempty"`
}

type CreateTaskStepRequest struct {
	ID               string `json:"id,omitempty"`
	OrderIndex       int    `json:"order_index"`
	Title            string `json:"title"`
	ContentText      string `json:"content_text,omitempty"`
	MediaURL         string `json:"media_url,omitempty"`
	MediaKind        string `json:"media_kind,omitempty"`
	RequireUserMedia bool   `json:"require_user_media,omitempty"`
}

type CreateAssignmentRequest struct {
	TaskID    string `json:"task_id"`
	HiveID    string `json:"hive_id"`
	GroupID   string `json:"group_id,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	DueDate   string `json:"due_date,omitempty"`
}

type CreateAssignmentsBulkRequest struct {
	TaskID    string   `json:"task_id"`
	HiveIDs   []string `json:"hive_ids"`
	StartDate string   `json:"start_date,omitempty"`
	DueDate   string   `json:"due_date,omitempty"`
}

type UpdateDatesRequest struct {
	StartDate *string `json:"start_date,omitempty"`
	DueDate   string  `json:"due_date,omitempty"`
}

type ReviewRequest struct {
	Status  string `json:"status" enum:"approved,rejected"`
	Comment string `json:"comment,omitempty"`
}

type RatingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type CompleteStepRequest struct {
	UserID       string `json:"user_id,omitempty"`
	Notes        string `json:"notes,omitempty"`
	EvidenceURL  string `json:"evidence_url,omitempty"`
	EvidenceKind string `json:"evidence_kind,omitempty"`
}

type ManualNoteRequest struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"`
}
