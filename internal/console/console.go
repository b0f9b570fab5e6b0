package console

import (
	"io"
	"os"
	"slices"
	"sync"

	"log-relay/internal/level"
)

// Sink is one named console channel. The name doubles as the routing hint
// appended to remote forward URLs.
type Sink struct {
	name string
	out  *lockedWriter
}

func (s *Sink) Name() string {
	return s.name
}

// Print writes msg followed by a newline. Write errors are dropped; the
// console is the last resort output.
func (s *Sink) Print(msg string) {
	s.out.writeLine(msg)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeLine(msg string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')
	_, _ = lw.w.Write(buf)
}

// Console holds the severity to sink mapping. It is built once and never
// changed afterwards.
type Console struct {
	sinks map[level.Severity]*Sink
}

// Channels lists the console channel names in severity order.
var Channels = []string{"trace", "debug", "info", "warn", "error"}

type Options struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewConsole wires trace, warn and error channels to Stderr and debug and
// info to Stdout. ERROR and FATAL share the error channel. Nil writers fall
// back to the process streams.
func NewConsole(opts Options) *Console {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	stdout := &lockedWriter{w: opts.Stdout}
	stderr := stdout
	if opts.Stderr != opts.Stdout {
		stderr = &lockedWriter{w: opts.Stderr}
	}

	errorSink := &Sink{name: "error", out: stderr}

	return &Console{
		sinks: map[level.Severity]*Sink{
			level.TRACE: {name: "trace", out: stderr},
			level.DEBUG: {name: "debug", out: stdout},
			level.INFO:  {name: "info", out: stdout},
			level.WARN:  {name: "warn", out: stderr},
			level.ERROR: errorSink,
			level.FATAL: errorSink,
		},
	}
}

// NewStdConsole returns a console bound to os.Stdout and os.Stderr.
func NewStdConsole() *Console {
	return NewConsole(Options{})
}

// Sink returns the sink bound to s. Unknown severities fall back to the
// error channel so a record is never lost.
func (c *Console) Sink(s level.Severity) *Sink {
	if sink, ok := c.sinks[s]; ok {
		return sink
	}
	return c.sinks[level.ERROR]
}

// IsChannel reports whether name is one of the console channel names.
func IsChannel(name string) bool {
	return slices.Contains(Channels, name)
}
