package relay

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"log-relay/internal/level"
)

// Core is a zapcore.Core that hands every encoded entry to a Relay. It sets
// the relay level and writes under one lock, so loggers shared between
// goroutines never tag a record with another record's severity.
type Core struct {
	zapcore.LevelEnabler
	enc   zapcore.Encoder
	relay *Relay
}

var _ zapcore.Core = (*Core)(nil)

func NewCore(r *Relay, enc zapcore.Encoder, enab zapcore.LevelEnabler) *Core {
	return &Core{
		LevelEnabler: enab,
		enc:          enc,
		relay:        r,
	}
}

// NewLogger builds a zap logger writing pino-shaped JSON through r.
func NewLogger(r *Relay, enab zapcore.LevelEnabler, opts ...zap.Option) *zap.Logger {
	return zap.New(NewCore(r, zapcore.NewJSONEncoder(EncoderConfig()), enab), opts...)
}

// EncoderConfig renders entries the way pino does: numeric severities under
// "level", epoch milliseconds under "time" and the message under "msg".
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "name",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeSeverity,
		EncodeTime:     zapcore.EpochMillisTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func encodeSeverity(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendInt(int(level.FromZap(l)))
}

func (c *Core) Level() zapcore.Level {
	return zapcore.LevelOf(c.LevelEnabler)
}

func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := &Core{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		relay:        c.relay,
	}
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return clone
}

func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	msg := buf.String()
	buf.Free()

	c.relay.writeAt(level.FromZap(ent.Level), msg)

	if ent.Level > zapcore.ErrorLevel {
		// Panic and fatal entries may end the process.
		c.relay.Wait()
	}
	return nil
}

// Sync waits for pending forwards.
func (c *Core) Sync() error {
	c.relay.Wait()
	return nil
}
