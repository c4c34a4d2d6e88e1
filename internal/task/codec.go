package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/neuroseg/neuroseg/internal/types"
)

// Field names of the stored task record. Structured fields (request,
// result) are serialized as JSON text; timestamps as RFC3339 UTC; everything
// else passes through as plain text.
const (
	fieldStatus      = "status"
	fieldCreatedAt   = "created_at"
	fieldStartedAt   = "started_at"
	fieldCompletedAt = "completed_at"
	fieldProgress    = "progress"
	fieldRequest     = "request"
	fieldResult      = "result"
	fieldError       = "error"
	fieldErrorTrace  = "error_trace"
)

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil
	}
	return &t
}

func encodeRequest(req types.SegmentationRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	return string(b), nil
}

func encodeResult(res types.SegmentationResult) (string, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}

// decodeResult parses the stored result field. Malformed JSON degrades to
// the raw text unchanged so a corrupt field never makes the whole record
// unreadable.
func decodeResult(raw string) any {
	if raw == "" {
		return nil
	}
	var res types.SegmentationResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return raw
	}
	return &res
}

// decodeRequest parses the stored request snapshot. A corrupt snapshot
// yields nil; the rest of the record stays usable.
func decodeRequest(raw string) *types.SegmentationRequest {
	if raw == "" {
		return nil
	}
	var req types.SegmentationRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil
	}
	return &req
}

// decodeRecord rebuilds a task snapshot from its stored field map
func decodeRecord(taskID string, fields map[string]string) types.Task {
	t := types.Task{
		TaskID:     taskID,
		Status:     types.TaskStatus(fields[fieldStatus]),
		Progress:   fields[fieldProgress],
		Request:    decodeRequest(fields[fieldRequest]),
		Result:     decodeResult(fields[fieldResult]),
		Error:      fields[fieldError],
		ErrorTrace: fields[fieldErrorTrace],
	}
	if created := decodeTime(fields[fieldCreatedAt]); created != nil {
		t.CreatedAt = *created
	}
	t.StartedAt = decodeTime(fields[fieldStartedAt])
	t.CompletedAt = decodeTime(fields[fieldCompletedAt])
	return t
}
