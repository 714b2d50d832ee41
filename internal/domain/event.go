package domain

type TaskEventType string

const (
	TaskEventCreated TaskEventType = "task.created"
	TaskEventDeleted TaskEventType = "task.deleted"
	TaskEventToggled TaskEventType = "task.toggled"
)

// TaskEvent is pushed to the owner's live feed after a successful mutation.
// Task is nil for deletions.
type TaskEvent struct {
	Type   TaskEventType `json:"type"`
	TaskID string        `json:"taskId"`
	Task   *PublicTask   `json:"task,omitempty"`
}
