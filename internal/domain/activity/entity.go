package activity

import "time"

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

const (
	LogDefault = "default"
	LogBackup  = "backup"
	LogAuth    = "auth"
)

// Entry is one append-only audit record.
type Entry struct {
	ID          int64          `json:"id" db:"id"`
	LogName     string         `json:"log_name" db:"log_name"`
	Description string         `json:"description" db:"description"`
	Event       string         `json:"event,omitempty" db:"event"`
	SubjectType string         `json:"subject_type,omitempty" db:"subject_type"`
	SubjectID   *int64         `json:"subject_id,omitempty" db:"subject_id"`
	CauserID    *int64         `json:"causer_id,omitempty" db:"causer_id"`
	CauserName  string         `json:"causer_name,omitempty" db:"causer_name"`
	Properties  map[string]any `json:"properties" db:"properties"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// Summary is the compact shape shown on the system dashboard.
type Summary struct {
	ID          int64          `json:"id"`
	Action      string         `json:"action"`
	User        string         `json:"user"`
	Timestamp   string         `json:"timestamp"`
	SubjectType string         `json:"subject_type"`
	Properties  map[string]any `json:"properties"`
	Status      string         `json:"status"`
}

const timestampLayout = "2006-01-02 15:04:05"

// Summarize renders e for the dashboard; entries without a causer are shown as "system".
func (e *Entry) Summarize() Summary {
	user := e.CauserName
	if e.CauserID == nil || user == "" {
		user = "system"
	}
	props := e.Properties
	if props == nil {
		props = map[string]any{}
	}
	return Summary{
		ID:          e.ID,
		Action:      e.Description,
		User:        user,
		Timestamp:   e.CreatedAt.Format(timestampLayout),
		SubjectType: e.SubjectType,
		Properties:  props,
		Status:      "success",
	}
}
