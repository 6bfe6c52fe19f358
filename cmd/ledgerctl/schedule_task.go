package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/teambition/rrule-go"

	"fortexx_ledger/internal/models"
	"fortexx_ledger/internal/tasks"
)

type scheduleTaskOptions struct {
	taskName   string
	arguments  string
	due        string
	taskType   string
	recurring  string
	maxAttempt int
}

func scheduleTaskCmd() *cobra.Command {
	var opts scheduleTaskOptions

	cmd := &cobra.Command{
		Use:   "schedule-task",
		Short: "Queue a task for the worker",
		Long: `Queue a task for the worker.

Examples:
  ledgerctl schedule-task --task-name announce_payment --arguments '{"payment_id": 42}' --due "2026-05-01 09:00"
  ledgerctl schedule-task --task-name payment_digest --arguments '{}' --due 2026-05-01T09:00:00Z \
      --tasktype recurring --recurring "FREQ=DAILY"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := opts.build()
			if err != nil {
				return err
			}

			db, _, err := openDB()
			if err != nil {
				return err
			}
			if err := db.WithContext(cmd.Context()).Create(task).Error; err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Successfully created task ID: %d\n", task.ID)
			fmt.Fprintf(out, "Task: %s\nDue: %s\nType: %s\n", task.TaskName, task.Due, task.TaskType)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.taskName, "task-name", "", "name of the task (required)")
	cmd.Flags().StringVar(&opts.arguments, "arguments", "", "JSON arguments for the task (required)")
	cmd.Flags().StringVar(&opts.due, "due", "", "due date, RFC3339 or 2006-01-02 15:04 local time (required)")
	cmd.Flags().StringVar(&opts.taskType, "tasktype", string(models.ScheduledTaskTypeOneTime), "onetime or recurring")
	cmd.Flags().StringVar(&opts.recurring, "recurring", "", "RFC 5545 RRULE for recurring tasks")
	cmd.Flags().IntVar(&opts.maxAttempt, "max-attempt", 3, "max attempts before the task is marked as failed")
	_ = cmd.MarkFlagRequired("task-name")
	_ = cmd.MarkFlagRequired("arguments")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func (o scheduleTaskOptions) build() (*models.ScheduledTask, error) {
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(o.arguments), &args); err != nil {
		return nil, fmt.Errorf("invalid JSON arguments: %w", err)
	}

	due, err := parseDue(o.due)
	if err != nil {
		return nil, err
	}

	taskType := models.ScheduledTaskType(o.taskType)
	var recurring *string
	switch taskType {
	case models.ScheduledTaskTypeOneTime:
		if o.recurring != "" {
			return nil, errors.New("--recurring requires --tasktype recurring")
		}
	case models.ScheduledTaskTypeRecurring:
		if o.recurring == "" {
			return nil, errors.New("recurring tasks need --recurring")
		}
		if _, err := rrule.StrToRRule(o.recurring); err != nil {
			return nil, fmt.Errorf("invalid recurring rule: %w", err)
		}
		recurring = &o.recurring
	default:
		return nil, fmt.Errorf("unknown task type %q", o.taskType)
	}

	if o.maxAttempt < 1 {
		return nil, errors.New("--max-attempt must be at least 1")
	}

	return tasks.BuildScheduledTask(o.taskName, args, due, recurring, taskType, o.maxAttempt)
}

// parseDue accepts RFC3339 or "2006-01-02 15:04" in local time.
func parseDue(raw string) (time.Time, error) {
	due, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return due, nil
	}
	due, err = time.ParseInLocation("2006-01-02 15:04", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date format, use '2006-01-02 15:04' (local) or RFC3339: %w", err)
	}
	return due, nil
}
