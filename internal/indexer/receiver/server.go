package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"log-relay/internal/console"
	"log-relay/internal/indexer"
)

const maxBodyBytes = 1 << 20

var (
	documentsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_indexer_documents_received_total",
		Help: "The total number of documents accepted",
	}, []string{"channel"})
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_indexer_http_requests_total",
		Help: "Total number of HTTP requests processed",
	}, []string{"status"})
)

// Publisher hands accepted documents to the indexing pipeline.
type Publisher interface {
	Publish(ctx context.Context, doc indexer.Document) error
}

// Server accepts records forwarded by relays on POST /{index}/{channel}.
type Server struct {
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewServer(publisher Publisher, logger *zap.Logger) *Server {
	return &Server{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{index}/{channel}", s.handleDocument)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) fail(w http.ResponseWriter, status int, message string) {
	httpRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; a failed write has no one to report to.
	_ = json.NewEncoder(w).Encode(errorResponse{Message: message})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")
	if !console.IsChannel(channel) {
		s.fail(w, http.StatusNotFound, fmt.Sprintf("unknown channel %q", channel))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, "body too large")
			return
		}
		s.fail(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if !json.Valid(body) {
		s.fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	doc := indexer.Document{
		Index:      r.PathValue("index"),
		Channel:    channel,
		Body:       json.RawMessage(body),
		ReceivedAt: s.now(),
	}

	if err := s.publisher.Publish(r.Context(), doc); err != nil {
		s.logger.Error("failed to publish document", zap.String("index", doc.Index), zap.Error(err))
		s.fail(w, http.StatusServiceUnavailable, "failed to queue document")
		return
	}

	documentsReceived.WithLabelValues(channel).Inc()
	httpRequestsTotal.WithLabelValues(strconv.Itoa(http.StatusAccepted)).Inc()
	w.WriteHeader(http.StatusAccepted)
}
