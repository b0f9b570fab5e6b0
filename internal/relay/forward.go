package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"log-relay/internal/level"
	"log-relay/internal/remote"
)

// RequestFailureType tags the records emitted when a forward fails.
const RequestFailureType = "error-request-sematext"

// forwardTask carries values captured when Write ran, never references to the
// relay's mutable state.
type forwardTask struct {
	message string
	level   level.Severity
	config  RemoteConfig
}

// requestFailure is the record written to the error channel when a forward
// fails. The response fields are only set for server errors.
type requestFailure struct {
	Level          int             `json:"level"`
	Type           string          `json:"type"`
	Message        string          `json:"message"`
	ResponseData   json.RawMessage `json:"response_data,omitempty"`
	ResponseStatus int             `json:"response_status,omitempty"`
}

func (r *Relay) forwardURL(task forwardTask) string {
	return task.config.BaseURL + "/" + task.config.Index + "/" + r.console.Sink(task.level).Name()
}

func (r *Relay) forward(ctx context.Context, task forwardTask) {
	timer := prometheus.NewTimer(forwardDuration)
	header := http.Header{"Content-Type": []string{"application/json"}}
	err := r.client.Post(ctx, r.forwardURL(task), []byte(task.message), header)
	timer.ObserveDuration()

	if err == nil {
		forwardsTotal.WithLabelValues(outcomeSuccess).Inc()
		return
	}

	var serverErr *remote.ServerError
	if errors.As(err, &serverErr) {
		forwardsTotal.WithLabelValues(outcomeServerError).Inc()
	} else {
		forwardsTotal.WithLabelValues(outcomeTransportError).Inc()
	}

	// Emitted straight to the error channel: going through Write would
	// forward the failure again.
	r.console.Sink(level.ERROR).Print(failureRecord(err))
}

func failureRecord(err error) string {
	failure := requestFailure{
		Level:   int(level.ERROR),
		Type:    RequestFailureType,
		Message: err.Error(),
	}

	var serverErr *remote.ServerError
	if errors.As(err, &serverErr) {
		failure.ResponseData = responseData(serverErr.Body)
		failure.ResponseStatus = serverErr.Status
	}

	data, _ := json.Marshal(failure)
	return string(data)
}

// responseData embeds a JSON body as is and any other body as a JSON string.
func responseData(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
