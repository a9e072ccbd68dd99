package model

import "time"

// Task はタスクリソースを表す。
type Task struct {
	ID          string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
