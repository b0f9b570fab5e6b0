package model

import "log-relay/internal/level"

// LogEvent is one generated application record before it is handed to the
// logger.
type LogEvent struct {
	Level   level.Severity `json:"level"`
	Service string         `json:"service"`
	TraceID string         `json:"trace_id"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload,omitempty"`
}
