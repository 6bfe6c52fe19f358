package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"fortexx_ledger/internal/models"
)

// BuildScheduledTask returns an active task ready to insert. args may be any
// value that encodes to a JSON object; a typed args struct is the usual form.
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	encoded, err := encodeArgs(args)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", taskName, err)
	}
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         encoded,
		TaskType:          taskType,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		Due:               due,
		MaxAttempt:        maxAttempt,
	}, nil
}

func encodeArgs(args interface{}) (datatypes.JSONMap, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	var out datatypes.JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("args must encode to a JSON object: %w", err)
	}
	return out, nil
}

// decodeArgs is the inverse of encodeArgs.
func decodeArgs(args map[string]interface{}, dest interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}
