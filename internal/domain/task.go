package domain

import "time"

// Task is the persisted record. (Owner, ID) is the store key.
type Task struct {
	Owner       string     `db:"owner"`
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	CreatedAt   time.Time  `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// PublicTask is what clients see. The owner never leaves the server.
type PublicTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

func (t *Task) Completed() bool {
	return t.CompletedAt != nil
}

func (t *Task) Public() PublicTask {
	return PublicTask{
		ID:          t.ID,
		Title:       t.Title,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}
