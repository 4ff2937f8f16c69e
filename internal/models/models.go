package models

import "time"

// TaskPriority orders tasks for the scheduler.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether the value is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TaskList groups tasks.
type TaskList struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Task is a unit of work the engine can place on the calendar.
type Task struct {
	ID               string `gorm:"type:uuid;primaryKey"`
	ListID           string `gorm:"type:uuid;index"`
	Title            string `gorm:"index"`
	Notes            string `gorm:"type:text"`
	EstimatedMinutes int
	Priority         TaskPriority `gorm:"type:varchar(16)"`
	DueDate          *time.Time
	RecurrenceRule   string `gorm:"type:text"` // RFC 5545 RRULE, empty for one-off tasks

	// Set by the scheduler; cleared when the task is rescheduled.
	ScheduledDate *time.Time
	ScheduledTime string `gorm:"type:varchar(5)"` // HH:MM
	ScheduleNote  string `gorm:"type:text"`

	CompletedAt *time.Time
	Tags        []TaskTagLink `gorm:"foreignKey:TaskID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Scheduled reports whether the task currently holds a slot.
func (t Task) Scheduled() bool {
	return t.ScheduledDate != nil && t.ScheduledTime != ""
}

// Tag defines a metadata label.
type Tag struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	Color     string `gorm:"type:varchar(7)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskTagLink join table between tasks and tags.
type TaskTagLink struct {
	TaskID string `gorm:"type:uuid;primaryKey"`
	TagID  string `gorm:"type:uuid;primaryKey"`
}

// EventSource identifies where a calendar event came from.
type EventSource string

const (
	EventSourceManual EventSource = "manual"
	EventSourceGoogle EventSource = "google"
	EventSourceTask   EventSource = "task"
)

// CalendarEvent is one committed block of time on a calendar day. Events
// synthesized for scheduled tasks carry IsTask and the owning TaskID.
type CalendarEvent struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	Date           string `gorm:"type:varchar(10);index"` // 2006-01-02
	StartTime      string `gorm:"type:varchar(5)"`        // HH:MM
	EndTime        string `gorm:"type:varchar(5)"`
	Title          string
	Source         EventSource `gorm:"type:varchar(16)"`
	IsTask         bool
	TaskID         string `gorm:"type:uuid;index"`
	RecurrenceRule string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SchedulingPreferences is the single stored preference row. Batch calls
// may override individual fields without touching the stored values.
type SchedulingPreferences struct {
	ID                   string `gorm:"type:uuid;primaryKey"`
	WorkHoursStart       int
	WorkHoursEnd         int
	BufferMinutes        int
	MaxHoursPerDay       int
	PreferMorningForHard bool
	UpdatedAt            time.Time
}
