package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"log-relay/internal/indexer"
)

var received = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testDocs() []indexer.Document {
	return []indexer.Document{
		{Index: "abcd", Channel: "info", Body: json.RawMessage(`{"msg":"one"}`), ReceivedAt: received},
		{Index: "abcd", Channel: "error", Body: json.RawMessage(`{"msg":"two"}`), ReceivedAt: received.Add(24 * time.Hour)},
	}
}

func TestBulkBody(t *testing.T) {
	body, err := bulkBody(testDocs())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_index":"abcd-2026.05.01"}}`, lines[0])
	assert.JSONEq(t, `{"msg":"one","channel":"info","@timestamp":"2026-05-01T12:00:00Z"}`, lines[1])
	assert.JSONEq(t, `{"index":{"_index":"abcd-2026.05.02"}}`, lines[2])
	assert.JSONEq(t, `{"msg":"two","channel":"error","@timestamp":"2026-05-02T12:00:00Z"}`, lines[3])
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenSearchClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewOpenSearchClient(Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestIndexBatch(t *testing.T) {
	var gotPath, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"took":1,"errors":false,"items":[]}`))
	})

	require.NoError(t, client.IndexBatch(context.Background(), testDocs()))

	assert.Equal(t, "/_bulk", gotPath)
	assert.Equal(t, 4, strings.Count(gotBody, "\n"))
}

func TestIndexBatchItemFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":true,"items":[
			{"index":{"status":201}},
			{"index":{"status":400,"error":{"type":"mapper_parsing_exception","reason":"bad field"}}}
		]}`))
	})

	err := client.IndexBatch(context.Background(), testDocs())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestIndexBatchHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	assert.Error(t, client.IndexBatch(context.Background(), testDocs()))
}

func TestIndexBatchEmpty(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	require.NoError(t, client.IndexBatch(context.Background(), nil))
	assert.False(t, called)
}
