// Package level defines the fixed set of record severities understood by the
// relay and the conversions between them and the names, text and zap levels
// used around it.
package level

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Severity is the ordinal importance of a log record.
type Severity int

const (
	TRACE Severity = 10
	DEBUG Severity = 20
	INFO  Severity = 30
	WARN  Severity = 40
	ERROR Severity = 50
	FATAL Severity = 60
)

// Default is the severity a freshly built relay starts with.
const Default = INFO

// All lists every severity in ascending order.
var All = []Severity{TRACE, DEBUG, INFO, WARN, ERROR, FATAL}

func (s Severity) Valid() bool {
	switch s {
	case TRACE, DEBUG, INFO, WARN, ERROR, FATAL:
		return true
	}
	return false
}

func (s Severity) String() string {
	switch s {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "Severity(" + strconv.Itoa(int(s)) + ")"
	}
}

// Parse accepts a severity name in any case or its numeric value.
func Parse(text string) (Severity, error) {
	text = strings.TrimSpace(text)
	switch strings.ToUpper(text) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "FATAL":
		return FATAL, nil
	}

	n, err := strconv.Atoi(text)
	if err == nil && Severity(n).Valid() {
		return Severity(n), nil
	}

	return 0, fmt.Errorf("unknown severity %q", text)
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// FromZap maps a zap level onto the closest severity. Levels below zap's
// Debug are treated as TRACE.
func FromZap(l zapcore.Level) Severity {
	switch {
	case l < zapcore.DebugLevel:
		return TRACE
	case l == zapcore.DebugLevel:
		return DEBUG
	case l == zapcore.InfoLevel:
		return INFO
	case l == zapcore.WarnLevel:
		return WARN
	case l == zapcore.ErrorLevel:
		return ERROR
	default:
		return FATAL
	}
}

// TraceLevel is the zap level used to log TRACE records.
const TraceLevel = zapcore.DebugLevel - 1

// Zap returns the zap level that FromZap maps back onto s. FATAL maps to
// DPanic so that logging a FATAL record does not terminate the process.
func (s Severity) Zap() zapcore.Level {
	switch s {
	case TRACE:
		return TraceLevel
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case FATAL:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}
