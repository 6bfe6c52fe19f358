package models

import (
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/datatypes"
)

type ScheduledTaskStatus string

const (
	ScheduledTaskStatusActive   ScheduledTaskStatus = "active"
	ScheduledTaskStatusDone     ScheduledTaskStatus = "done"
	ScheduledTaskStatusFailure  ScheduledTaskStatus = "failure"
	ScheduledTaskStatusDisabled ScheduledTaskStatus = "disabled"
)

type ScheduledTaskType string

const (
	ScheduledTaskTypeOneTime   ScheduledTaskType = "onetime"
	ScheduledTaskTypeRecurring ScheduledTaskType = "recurring"
)

// ScheduledTask is a unit of background work. The worker picks up active
// tasks once Due has passed; recurring tasks then move Due along their RRULE.
type ScheduledTask struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TaskName          string              `gorm:"type:varchar(255);not null" json:"task_name"`
	Arguments         datatypes.JSONMap   `json:"arguments"`
	TaskType          ScheduledTaskType   `gorm:"type:varchar(20);default:'onetime'" json:"task_type"`
	RecurringInterval *string             `gorm:"type:text" json:"recurring_interval"` // RFC 5545 RRULE
	Status            ScheduledTaskStatus `gorm:"type:varchar(20);index:idx_task_status_due,priority:1" json:"status"`
	Due               time.Time           `gorm:"index:idx_task_status_due,priority:2" json:"due"`
	LastRun           *time.Time          `json:"last_run"`

	// Attempts counts consecutive failures; a success resets it.
	Attempts   int `gorm:"not null;default:0" json:"attempts"`
	MaxAttempt int `json:"max_attempt"`
}

func (t ScheduledTask) IsRecurring() bool {
	return t.TaskType == ScheduledTaskTypeRecurring
}

// NextDue returns the first RRULE occurrence strictly after the current Due.
// One-time tasks, missing or unparsable rules and exhausted rules all return
// Due unchanged.
func (t ScheduledTask) NextDue() time.Time {
	return t.NextDueAfter(t.Due)
}

// NextDueAfter returns the first RRULE occurrence strictly after the later of
// Due and now. Occurrences missed while the worker was down are skipped.
func (t ScheduledTask) NextDueAfter(now time.Time) time.Time {
	if !t.IsRecurring() || t.RecurringInterval == nil || *t.RecurringInterval == "" {
		return t.Due
	}

	rule, err := rrule.StrToRRule(*t.RecurringInterval)
	if err != nil {
		return t.Due
	}
	rule.DTStart(t.Due)

	from := t.Due
	if now.After(from) {
		from = now
	}
	if next := rule.After(from, false); !next.IsZero() {
		return next
	}
	return t.Due
}

// ScheduledTaskHistory is one run of a task, successful or not.
type ScheduledTaskHistory struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	ScheduledTaskID uint      `gorm:"index" json:"scheduled_task_id"`

	TaskName   string            `gorm:"type:varchar(255)" json:"task_name"`
	StartedAt  time.Time         `json:"started_at"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `gorm:"type:varchar(50)" json:"status"`
	Attempt    int               `json:"attempt"`
	Arguments  datatypes.JSONMap `json:"arguments"`
	Result     datatypes.JSONMap `json:"result"`
}
