package types

import "time"

// TaskStatus represents the current state of a segmentation task
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether no further status transitions can occur
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Task represents one submitted segmentation job and its lifecycle.
// Result holds a SegmentationResult once the task completes; if the stored
// result field is corrupt it holds the raw stored text instead, so the rest
// of the record stays readable. Error and Result are mutually exclusive.
type Task struct {
	TaskID      string               `json:"task_id"`
	Status      TaskStatus           `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	Progress    string               `json:"progress,omitempty"`
	Request     *SegmentationRequest `json:"request,omitempty"`
	Result      any                  `json:"result,omitempty"`
	Error       string               `json:"error,omitempty"`
	ErrorTrace  string               `json:"error_trace,omitempty"`
}

// SegmentationResult describes the output of a completed segmentation run
type SegmentationResult struct {
	OutputFile string            `json:"output_file"`
	InputFiles map[string]string `json:"input_files,omitempty"`
}
