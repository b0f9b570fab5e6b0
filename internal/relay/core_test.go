package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"log-relay/internal/level"
)

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &doc), line)
	return doc
}

func TestCoreWritesPinoShapedRecords(t *testing.T) {
	f := newFixture(remoteConfig())
	logger := NewLogger(f.relay, zap.NewAtomicLevelAt(zap.InfoLevel)).With(zap.String("service", "api"))

	logger.Info("hello", zap.Int("port", 8080))
	logger.Warn("careful")
	logger.Debug("dropped")
	require.NoError(t, logger.Sync())

	stdout := f.stdout.Lines()
	require.Len(t, stdout, 1)
	doc := decodeLine(t, stdout[0])
	assert.Equal(t, float64(30), doc["level"])
	assert.Equal(t, "hello", doc["msg"])
	assert.Equal(t, "api", doc["service"])
	assert.Equal(t, float64(8080), doc["port"])
	assert.Contains(t, doc, "time")

	stderr := f.stderr.Lines()
	require.Len(t, stderr, 1)
	assert.Equal(t, float64(40), decodeLine(t, stderr[0])["level"])

	calls := f.poster.Calls()
	require.Len(t, calls, 2)
	urls := []string{calls[0].url, calls[1].url}
	assert.ElementsMatch(t, []string{baseURL + "/abcd/info", baseURL + "/abcd/warn"}, urls)
	for _, c := range calls {
		assert.True(t, strings.HasSuffix(c.body, "\n"), "forwarded body is the untrimmed record")
	}
}

func TestCoreTraceLevel(t *testing.T) {
	f := newFixture(nil)
	logger := NewLogger(f.relay, zap.NewAtomicLevelAt(level.TraceLevel))

	if ce := logger.Check(level.TraceLevel, "deep"); ce != nil {
		ce.Write()
	}

	lines := f.stderr.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, float64(10), decodeLine(t, lines[0])["level"])
	assert.Equal(t, level.TRACE, f.relay.Level())
}

func TestCoreDPanicMapsToFatal(t *testing.T) {
	f := newFixture(nil)
	logger := NewLogger(f.relay, zap.NewAtomicLevelAt(zap.InfoLevel))

	logger.DPanic("boom")

	lines := f.stderr.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, float64(60), decodeLine(t, lines[0])["level"])
}

func TestCoreRespectsMetadataDisabled(t *testing.T) {
	f := newFixture(remoteConfig())
	f.relay.SetMetadataEnabled(false)
	logger := NewLogger(f.relay, zap.NewAtomicLevelAt(zap.DebugLevel))

	logger.Error("nothing")
	require.NoError(t, logger.Sync())

	assert.Empty(t, f.stderr.Lines())
	assert.Empty(t, f.poster.Calls())
}

func TestCoreConcurrentLevelsStayAttached(t *testing.T) {
	f := newFixture(remoteConfig())
	logger := NewLogger(f.relay, zap.NewAtomicLevelAt(zap.DebugLevel))

	severities := []level.Severity{level.DEBUG, level.INFO, level.WARN, level.ERROR}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := severities[i%len(severities)]
			logger.Check(s.Zap(), fmt.Sprintf("record-%d", i)).Write(zap.Stringer("sev", s))
		}(i)
	}
	wg.Wait()
	require.NoError(t, logger.Sync())

	calls := f.poster.Calls()
	require.Len(t, calls, 200)
	for _, c := range calls {
		doc := decodeLine(t, c.body)
		s, err := level.Parse(doc["sev"].(string))
		require.NoError(t, err)
		assert.Equal(t, float64(s), doc["level"])
		assert.True(t, strings.HasSuffix(c.url, "/"+f.relay.console.Sink(s).Name()), c.url)
	}
}
