package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"log-relay/internal/level"
	"log-relay/internal/model"
)

type fixedGenerator struct {
	event model.LogEvent
	calls atomic.Int64
}

func (g *fixedGenerator) Generate() model.LogEvent {
	g.calls.Add(1)
	return g.event
}

func TestEmitUsesEventSeverity(t *testing.T) {
	core, logs := observer.New(level.TraceLevel)
	eng := NewEngine(&fixedGenerator{}, zap.New(core), EngineConfig{Workers: 1, DefaultRate: 1})

	eng.Emit(model.LogEvent{
		Level:   level.WARN,
		Service: "billing",
		TraceID: "abc",
		Message: "slow query",
		Payload: map[string]any{"ms": 1200},
	})
	eng.Emit(model.LogEvent{Level: level.TRACE, Service: "billing", Message: "deep"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "slow query", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "billing", ctx["service"])
	assert.Equal(t, "abc", ctx["trace_id"])
	assert.Contains(t, ctx, "payload")

	assert.Equal(t, level.TraceLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "payload")
}

func TestEmitBelowLoggerLevelIsDropped(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	eng := NewEngine(&fixedGenerator{}, zap.New(core), EngineConfig{Workers: 1, DefaultRate: 1})

	eng.Emit(model.LogEvent{Level: level.DEBUG, Message: "hidden"})

	assert.Zero(t, logs.Len())
}

func TestStartRunsUntilCancelled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gen := &fixedGenerator{event: model.LogEvent{Level: level.INFO, Service: "api", Message: "tick"}}
	eng := NewEngine(gen, zap.New(core), EngineConfig{Workers: 2, DefaultRate: 1000})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	eng.Start(ctx)

	assert.Positive(t, gen.calls.Load())
	assert.Equal(t, 1, logs.FilterMessage("engine starting").Len())
	assert.Equal(t, 1, logs.FilterMessage("engine stopped").Len())
	assert.Equal(t, int(gen.calls.Load()), logs.FilterMessage("tick").Len())
}

func TestSetRate(t *testing.T) {
	eng := NewEngine(&fixedGenerator{}, zap.NewNop(), EngineConfig{Workers: 1, DefaultRate: 5})

	eng.SetRate(50)

	assert.Equal(t, 50, eng.Rate())
}
