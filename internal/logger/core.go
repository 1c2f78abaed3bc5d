package logger

import (
	"go.uber.org/zap/zapcore"
)

// LogSink receives a copy of every log entry the DBCore sees.
type LogSink interface {
	AddLog(entry LogEntry)
}

// DBCore is a custom Zap Core that intercepts logs
type DBCore struct {
	zapcore.Core
	sink   LogSink
	fields []zapcore.Field
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
func NewDBCore(baseCore zapcore.Core, sink LogSink) zapcore.Core {
	return &DBCore{
		Core: baseCore,
		sink: sink,
	}
}

// With keeps the DB tee on child loggers and remembers their fields.
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &DBCore{
		Core:   c.Core.With(fields),
		sink:   c.sink,
		fields: merged,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	logEntry := LogEntry{
		Level:   entry.Level,
		Message: entry.Message,
		Caller:  entry.Caller.Function,
	}
	if entry.LoggerName != "" {
		logEntry.Message = entry.LoggerName + ": " + entry.Message
	}

	for _, group := range [][]zapcore.Field{c.fields, fields} {
		for _, f := range group {
			switch f.Key {
			case "report_id":
				logEntry.ReportID = f.String
			case "user_id":
				logEntry.UserID = f.String
			}
		}
	}

	c.sink.AddLog(logEntry)

	// Call the underlying core so it still prints to console/file
	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
