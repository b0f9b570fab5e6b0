package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"log-relay/internal/level"
)

type RateSetter interface {
	SetRate(rate int)
}

type WeightSetter interface {
	SetWeights(weights map[level.Severity]int)
}

// Server is the control API of the producer.
type Server struct {
	eng    RateSetter
	gen    WeightSetter
	level  zap.AtomicLevel
	logger *zap.Logger
}

func NewServer(eng RateSetter, gen WeightSetter, lvl zap.AtomicLevel, logger *zap.Logger) *Server {
	return &Server{
		eng:    eng,
		gen:    gen,
		level:  lvl,
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate", s.handleRate)
	mux.HandleFunc("/weights", s.handleWeights)
	mux.HandleFunc("/level", s.handleLevel)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Rate int `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Rate <= 0 {
		http.Error(w, "Rate must be positive", http.StatusBadRequest)
		return
	}

	s.eng.SetRate(req.Rate)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Rate updated to %d logs/sec\n", req.Rate)
}

func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var weights map[level.Severity]int
	if err := json.NewDecoder(r.Body).Decode(&weights); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	total := 0
	for _, weight := range weights {
		if weight < 0 {
			http.Error(w, "Weights must not be negative", http.StatusBadRequest)
			return
		}
		total += weight
	}
	if total == 0 {
		http.Error(w, "At least one weight must be positive", http.StatusBadRequest)
		return
	}

	s.gen.SetWeights(weights)
	s.logger.Info("generator weights updated", zap.Any("weights", weights))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Weights updated\n"))
}

type levelPayload struct {
	Level string `json:"level"`
}

// handleLevel reads or changes the minimum severity the producer logs.
func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut, http.MethodPost:
		var req levelPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		sev, err := level.Parse(req.Level)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.level.SetLevel(sev.Zap())
		s.logger.Info("log level updated", zap.Stringer("level", sev))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	// Headers are already sent; a failed write has no one to report to.
	_ = json.NewEncoder(w).Encode(levelPayload{Level: level.FromZap(s.level.Level()).String()})
}
