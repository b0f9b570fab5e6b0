// Package relay echoes serialized log records to the console and forwards a
// copy to a remote log index on a best-effort basis.
//
// A Relay is the destination of an upstream logger. The logger sets the
// severity of the record it is about to hand over with SetLevel and then
// calls Write. The console echo happens synchronously inside Write; the
// remote forward runs afterwards in its own goroutine and can neither block
// nor fail the caller. Forward failures are reported as a JSON record on the
// error console channel and are never forwarded again.
//
// Use NewCore to plug a Relay into zap, which performs the SetLevel/Write
// pair atomically for every entry.
package relay

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"log-relay/internal/console"
	"log-relay/internal/level"
	"log-relay/internal/remote"
)

// RemoteConfig locates the remote index. Values are not validated here;
// malformed ones surface as forward failures.
type RemoteConfig struct {
	BaseURL string
	Index   string
}

// Poster is the HTTP contract the forward task relies on. Implementations
// report non-2xx answers as *remote.ServerError.
type Poster interface {
	Post(ctx context.Context, url string, body []byte, header http.Header) error
}

type Option func(*Relay)

func WithConsole(c *console.Console) Option {
	return func(r *Relay) {
		r.console = c
	}
}

func WithClient(p Poster) Option {
	return func(r *Relay) {
		r.client = p
	}
}

type Relay struct {
	mu              sync.Mutex
	metadataEnabled bool
	currentLevel    level.Severity
	config          *RemoteConfig

	console  *console.Console
	client   Poster
	inflight int
	idle     *sync.Cond
}

// Build returns a ready relay with metadata enabled and the level set to
// INFO. A nil cfg disables remote forwarding.
func Build(cfg *RemoteConfig, opts ...Option) *Relay {
	r := &Relay{
		metadataEnabled: true,
		currentLevel:    level.Default,
		config:          cloneConfig(cfg),
	}
	r.idle = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}

	if r.console == nil {
		r.console = console.NewStdConsole()
	}
	if r.client == nil {
		r.client = remote.NewClient(remote.Config{})
	}

	return r
}

func cloneConfig(cfg *RemoteConfig) *RemoteConfig {
	if cfg == nil {
		return nil
	}
	c := *cfg
	return &c
}

func (r *Relay) SetMetadataEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadataEnabled = enabled
}

func (r *Relay) MetadataEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metadataEnabled
}

// SetLevel records the severity of the next record handed to Write. Values
// outside the six severities are ignored and the current level is kept.
func (r *Relay) SetLevel(s level.Severity) {
	if !s.Valid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentLevel = s
}

func (r *Relay) Level() level.Severity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLevel
}

// SetConfig replaces the remote configuration. Forwards already started keep
// the configuration they were started with.
func (r *Relay) SetConfig(cfg *RemoteConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = cloneConfig(cfg)
}

func (r *Relay) Config() *RemoteConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneConfig(r.config)
}

// Write echoes the trimmed message on the sink of the current level and, when
// a remote is configured, starts forwarding the untrimmed message. It is a
// no-op while metadata is disabled.
func (r *Relay) Write(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLocked(message)
}

// writeAt sets the level and writes in one critical section.
func (r *Relay) writeAt(s level.Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentLevel = s
	r.writeLocked(message)
}

func (r *Relay) writeLocked(message string) {
	if !r.metadataEnabled {
		recordsDiscarded.Inc()
		return
	}

	r.console.Sink(r.currentLevel).Print(strings.TrimSpace(message))
	recordsWritten.WithLabelValues(r.currentLevel.String()).Inc()

	if r.config == nil {
		return
	}

	task := forwardTask{
		message: message,
		level:   r.currentLevel,
		config:  *r.config,
	}

	r.inflight++
	forwardsInFlight.Inc()
	go func() {
		defer r.forwardDone()
		r.forward(context.Background(), task)
	}()
}

func (r *Relay) forwardDone() {
	forwardsInFlight.Dec()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight--
	if r.inflight == 0 {
		r.idle.Broadcast()
	}
}

// Wait blocks until no forward is in flight.
func (r *Relay) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.inflight > 0 {
		r.idle.Wait()
	}
}
