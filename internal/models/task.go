package models

// Task is the persisted to-do item and its JSON representation.
type Task struct {
	Id          int64  `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

// TaskInput carries the mutable fields of a Task for create and update.
type TaskInput struct {
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

// TaskRef identifies a created task in a bulk create response.
type TaskRef struct {
	Id int64 `json:"id"`
}

// BulkCreateResponse is the 201 body of a bulk create.
type BulkCreateResponse struct {
	Tasks []TaskRef `json:"tasks"`
}
