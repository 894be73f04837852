package hivelinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Hiveline HTTP API client.
type Client struct {
	BaseURL    string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, actorID string) *Client {
	return &Client{
		BaseURL: baseURL,
		ActorID: actorID,
		Timeout: 10 * time.Second,
	}
}

// Assignment represents the API assignment model (partial).
type Assignment struct {
	ID           string  `json:"id"`
	TaskID       string  `json:"task_id"`
	HiveID       string  `json:"hive_id"`
	StartDate    *string `json:"start_date,omitempty"`
	DueDate      string  `json:"due_date"`
	Status       string  `json:"status"`
	ViewStatus   string  `json:"view_status,omitempty"`
	ReviewStatus string  `json:"review_status"`
	Rating       *int    `json:"rating,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

// Progress represents one ledger row.
type Progress struct {
	ID           string  `json:"id"`
	AssignmentID string  `json:"assignment_id"`
	TaskStepID   string  `json:"task_step_id"`
	UserID       string  `json:"user_id"`
	Status       string  `json:"status"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

// Event represents a hive history entry.
type Event struct {
	ID        int64   `json:"id"`
	HiveID    string  `json:"hive_id"`
	Type      string  `json:"type"`
	Payload   string  `json:"payload"`
	UserID    *string `json:"user_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// HistoryPage wraps one page of a hive's history.
type HistoryPage struct {
	Events []Event `json:"events"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
	Total  int     `json:"total"`
}

// Notification represents a queued notification.
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

// SweepResult counts the notifications one sweep produced.
type SweepResult struct {
	StartNotified   int `json:"start_notified"`
	DueSoonNotified int `json:"due_soon_notified"`
	OverdueReminded int `json:"overdue_reminded"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateAssignment assigns a task to a hive.
func (c *Client) CreateAssignment(ctx context.Context, taskID, hiveID, startDate, dueDate string) (Assignment, error) {
	body := map[string]any{
		"task_id": taskID,
		"hive_id": hiveID,
	}
	if startDate != "" {
		body["start_date"] = startDate
	}
	if dueDate != "" {
		body["due_date"] = dueDate
	}
	var resp Assignment
	err := c.do(ctx, http.MethodPost, "v0/assignments", body, &resp)
	return resp, err
}

// CompleteStep marks one step completed for a participant. Repeating the
// call is harmless.
func (c *Client) CompleteStep(ctx context.Context, assignmentID, stepID, userID string) (Progress, error) {
	body := map[string]any{"user_id": userID}
	endpoint := fmt.Sprintf("v0/assignments/%s/steps/%s/complete", url.PathEscape(assignmentID), url.PathEscape(stepID))
	var resp Progress
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Review approves or rejects a finished assignment.
func (c *Client) Review(ctx context.Context, assignmentID, status, comment string) (Assignment, error) {
	body := map[string]any{"status": status}
	if comment != "" {
		body["comment"] = comment
	}
	endpoint := fmt.Sprintf("v0/assignments/%s/review", url.PathEscape(assignmentID))
	var resp Assignment
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// Rate records a one-shot 1..5 rating for a finished assignment.
func (c *Client) Rate(ctx context.Context, assignmentID string, rating int, comment string) (Assignment, error) {
	body := map[string]any{"rating": rating}
	if comment != "" {
		body["comment"] = comment
	}
	endpoint := fmt.Sprintf("v0/assignments/%s/rating", url.PathEscape(assignmentID))
	var resp Assignment
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// History returns one page of a hive's event log, newest first.
func (c *Client) History(ctx context.Context, hiveID string, page, limit int) (HistoryPage, error) {
	endpoint := fmt.Sprintf("v0/hives/%s/history", url.PathEscape(hiveID))
	var params []string
	if page > 0 {
		params = append(params, fmt.Sprintf("page=%d", page))
	}
	if limit > 0 {
		params = append(params, fmt.Sprintf("limit=%d", limit))
	}
	if len(params) > 0 {
		endpoint += "?" + strings.Join(params, "&")
	}
	var resp HistoryPage
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Notifications lists a user's notifications, newest first.
func (c *Client) Notifications(ctx context.Context, userID string) ([]Notification, error) {
	endpoint := "v0/notifications"
	if userID != "" {
		endpoint += "?user_id=" + url.QueryEscape(userID)
	}
	var resp []Notification
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// SweepTick runs one notification sweep on the server.
func (c *Client) SweepTick(ctx context.Context) (SweepResult, error) {
	var resp SweepResult
	err := c.do(ctx, http.MethodPost, "v0/sweep/tick", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
