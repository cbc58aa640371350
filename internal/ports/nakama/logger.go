package nakama

import (
	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// runtimeCore forwards zap entries to the Nakama runtime logger so the
// shared table code logs through the host.
type runtimeCore struct {
	zapcore.LevelEnabler
	log    runtime.Logger
	fields []zapcore.Field
}

func newZapLogger(log runtime.Logger) *zap.Logger {
	return zap.New(&runtimeCore{LevelEnabler: zapcore.DebugLevel, log: log})
}

func (c *runtimeCore) With(fields []zapcore.Field) zapcore.Core {
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)
	return &runtimeCore{LevelEnabler: c.LevelEnabler, log: c.log, fields: all}
}

func (c *runtimeCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *runtimeCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	log := c.log
	if len(enc.Fields) > 0 {
		log = log.WithFields(enc.Fields)
	}
	switch {
	case e.Level >= zapcore.ErrorLevel:
		log.Error("%s", e.Message)
	case e.Level == zapcore.WarnLevel:
		log.Warn("%s", e.Message)
	case e.Level == zapcore.InfoLevel:
		log.Info("%s", e.Message)
	default:
		log.Debug("%s", e.Message)
	}
	return nil
}

func (c *runtimeCore) Sync() error {
	return nil
}
