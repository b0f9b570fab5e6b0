package engine

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"log-relay/internal/generator"
	"log-relay/internal/model"
)

var (
	logsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "log_relay_engine_logs_generated_total",
		Help: "The total number of logs generated",
	}, []string{"service", "level"})
	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "log_relay_engine_active_workers",
		Help: "Number of currently running worker goroutines",
	})
)

type EngineConfig struct {
	Workers     int `yaml:"workers"`
	DefaultRate int `yaml:"default_rate"`
}

// Engine emits generated events through a zap logger at a shared rate.
type Engine struct {
	generator generator.Generator
	logger    *zap.Logger
	config    EngineConfig
	limiter   *rate.Limiter
}

func NewEngine(generator generator.Generator, logger *zap.Logger, cfg EngineConfig) *Engine {
	limiter := rate.NewLimiter(rate.Limit(cfg.DefaultRate), cfg.Workers)

	return &Engine{
		generator: generator,
		logger:    logger,
		config:    cfg,
		limiter:   limiter,
	}
}

// Start runs the workers until ctx is done.
func (e *Engine) Start(ctx context.Context) {
	var wg sync.WaitGroup

	e.logger.Info("engine starting", zap.Int("workers", e.config.Workers), zap.Int("rate", e.config.DefaultRate))

	for i := 0; i < e.config.Workers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg)
	}

	wg.Wait()

	e.logger.Info("engine stopped")
}

func (e *Engine) SetRate(newRate int) {
	e.limiter.SetLimit(rate.Limit(newRate))
	e.logger.Info("engine target rate updated", zap.Int("rate", newRate))
}

func (e *Engine) Rate() int {
	return int(e.limiter.Limit())
}

func (e *Engine) worker(ctx context.Context, wg *sync.WaitGroup) {
	activeWorkers.Inc()
	defer activeWorkers.Dec()
	defer wg.Done()

	for {
		if err := e.limiter.Wait(ctx); err != nil {
			return
		}

		e.Emit(e.generator.Generate())
	}
}

// Emit logs one event at its own severity. Events below the logger's level
// are dropped by zap before they are encoded.
func (e *Engine) Emit(event model.LogEvent) {
	logsGenerated.WithLabelValues(event.Service, event.Level.String()).Inc()

	ce := e.logger.Check(event.Level.Zap(), event.Message)
	if ce == nil {
		return
	}

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("trace_id", event.TraceID),
	}
	if len(event.Payload) > 0 {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	ce.Write(fields...)
}
