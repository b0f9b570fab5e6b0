package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps how much of an error response is kept.
const maxBodyBytes = 64 << 10

type Config struct {
	// Timeout of zero leaves requests unbounded, like http.Client's default.
	Timeout time.Duration `yaml:"timeout"`
}

// ServerError is returned when the remote end answered with a non-2xx status.
type ServerError struct {
	Status int
	Body   []byte
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.Status)
}

// TransportError is returned when no response was received at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Client struct {
	client *http.Client
}

func NewClient(cfg Config) *Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100

	return &Client{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: t,
		},
	}
}

// Post sends body to url with the given headers. It returns nil on a 2xx
// response, *ServerError on any other status, and *TransportError when the
// request could not be built or sent.
func (c *Client) Post(ctx context.Context, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return &ServerError{Status: resp.StatusCode, Body: data}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
