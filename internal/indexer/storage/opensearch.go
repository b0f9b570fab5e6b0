package storage

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"log-relay/internal/indexer"
)

var (
	indexingErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "log_indexer_opensearch_errors_total",
		Help: "The total number of failed indexing attempts",
	})
	indexingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "log_indexer_opensearch_duration_seconds",
		Help:    "The duration of bulk requests to OpenSearch",
		Buckets: prometheus.DefBuckets,
	})
)

type Config struct {
	Addresses          []string
	Username           string
	Password           string
	InsecureSkipVerify bool
}

type OpenSearchClient struct {
	client *opensearch.Client
}

func NewOpenSearchClient(cfg Config) (*OpenSearchClient, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	return &OpenSearchClient{client: client}, nil
}

// bulkBody renders docs as an NDJSON bulk request.
func bulkBody(docs []indexer.Document) (string, error) {
	var buf strings.Builder

	for _, doc := range docs {
		meta, err := json.Marshal(map[string]any{
			"index": map[string]string{"_index": doc.IndexName()},
		})
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(doc.Source())
		if err != nil {
			return "", fmt.Errorf("failed to marshal document: %w", err)
		}

		buf.Write(meta)
		buf.WriteString("\n")
		buf.Write(data)
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// firstItemError returns the first per-item failure of a bulk response.
func firstItemError(body io.Reader) error {
	var resp bulkResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if !resp.Errors {
		return nil
	}
	for _, item := range resp.Items {
		for _, result := range item {
			if result.Error != nil {
				return fmt.Errorf("bulk item failed with status %d: %s: %s", result.Status, result.Error.Type, result.Error.Reason)
			}
		}
	}
	return errors.New("bulk request reported errors")
}

func (c *OpenSearchClient) IndexBatch(ctx context.Context, docs []indexer.Document) error {
	if len(docs) == 0 {
		return nil
	}

	timer := prometheus.NewTimer(indexingDuration)
	defer timer.ObserveDuration()

	body, err := bulkBody(docs)
	if err != nil {
		return err
	}

	req := opensearchapi.BulkRequest{
		Body: strings.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		indexingErrors.Inc()
		return fmt.Errorf("failed to execute bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		indexingErrors.Inc()
		return fmt.Errorf("opensearch bulk error: %s", res.String())
	}

	if err := firstItemError(res.Body); err != nil {
		indexingErrors.Inc()
		return err
	}

	return nil
}
