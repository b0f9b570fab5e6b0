// Package indexer holds the document shape shared by the receiving endpoint,
// the Kafka topic between them and the OpenSearch writer.
package indexer

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is one record received from a relay.
type Document struct {
	Index      string          `json:"index"`
	Channel    string          `json:"channel"`
	Body       json.RawMessage `json:"body"`
	ReceivedAt time.Time       `json:"received_at"`
}

// IndexName is the daily OpenSearch index a document is written to.
func (d Document) IndexName() string {
	return fmt.Sprintf("%s-%s", d.Index, d.ReceivedAt.UTC().Format("2006.01.02"))
}

// Source builds the stored document: the record's own fields plus the
// channel and receive time, unless the record already carries them. Bodies
// that are not JSON objects are stored under "message".
func (d Document) Source() map[string]any {
	src := make(map[string]any)
	if err := json.Unmarshal(d.Body, &src); err != nil || src == nil {
		src = map[string]any{"message": string(d.Body)}
	}

	if _, ok := src["channel"]; !ok {
		src["channel"] = d.Channel
	}
	if _, ok := src["@timestamp"]; !ok {
		src["@timestamp"] = d.ReceivedAt.UTC().Format(time.RFC3339Nano)
	}
	return src
}
