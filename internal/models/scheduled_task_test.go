package models

import (
	"testing"
	"time"
)

func TestScheduledTaskNextDue(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	daily := "FREQ=DAILY"
	broken := "FREQ=SOMETIMES"
	limited := "FREQ=DAILY;COUNT=1"

	tests := []struct {
		name     string
		task     ScheduledTask
		expected time.Time
	}{
		{
			name:     "one-time task keeps due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeOneTime, Due: due, RecurringInterval: &daily},
			expected: due,
		},
		{
			name:     "daily rule advances one day",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			expected: due.AddDate(0, 0, 1),
		},
		{
			name:     "unparsable rule keeps due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &broken},
			expected: due,
		},
		{
			name:     "exhausted rule keeps due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &limited},
			expected: due,
		},
		{
			name:     "missing rule keeps due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due},
			expected: due,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.task.NextDue()
			if !got.Equal(tt.expected) {
				t.Errorf("NextDue() = %v; want %v", got, tt.expected)
			}
		})
	}
}

func TestScheduledTaskNextDueAfterSkipsMissedRuns(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	daily := "FREQ=DAILY"
	short := "FREQ=DAILY;COUNT=3"

	tests := []struct {
		name     string
		task     ScheduledTask
		now      time.Time
		expected time.Time
	}{
		{
			name:     "now before due behaves like NextDue",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			now:      due.Add(-time.Hour),
			expected: due.AddDate(0, 0, 1),
		},
		{
			name:     "ten days overdue jumps past now",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			now:      due.AddDate(0, 0, 10).Add(time.Hour),
			expected: due.AddDate(0, 0, 11),
		},
		{
			name:     "now on an occurrence picks the following one",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			now:      due.AddDate(0, 0, 4),
			expected: due.AddDate(0, 0, 5),
		},
		{
			name:     "rule exhausted before now keeps due",
			task:     ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &short},
			now:      due.AddDate(0, 0, 10),
			expected: due,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.task.NextDueAfter(tt.now)
			if !got.Equal(tt.expected) {
				t.Errorf("NextDueAfter(%v) = %v; want %v", tt.now, got, tt.expected)
			}
		})
	}
}
