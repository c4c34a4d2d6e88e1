package types

import "time"

// Redis liveness values reported by the health endpoint. Connectivity
// failure degrades the reported value, it never fails the request.
const (
	RedisConnected    = "connected"
	RedisDisconnected = "disconnected"
)

// Health reports which storage backend is active and whether the durable
// backend currently answers a liveness probe.
type Health struct {
	Status    string    `json:"status"`
	Storage   string    `json:"storage"`
	Redis     string    `json:"redis"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskResponse is returned when a segmentation task is accepted
type TaskResponse struct {
	TaskID  string     `json:"task_id"`
	Status  TaskStatus `json:"status"`
	Message string     `json:"message"`
}
