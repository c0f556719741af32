// Package logging is the structured logger shared by the matcher, the
// refinement pipeline, the permutation checker and the model stores.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Field is one structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// Logger is the interface every engine component logs through. Components
// accept a nil Logger and substitute OrNop.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child carrying fields on every entry
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// core is the state JSONLogger and Recorder have in common. Children created
// by With share mu with their parent but own a copy of level and fields.
type core struct {
	mu     *sync.Mutex
	level  Level
	fields []Field
}

func newCore(level Level) core {
	return core{mu: &sync.Mutex{}, level: level}
}

// fieldMap merges the preset fields with per-call fields, later keys winning.
// Callers hold mu.
func (c *core) fieldMap(fields []Field) map[string]any {
	m := make(map[string]any, len(c.fields)+len(fields))
	for _, f := range c.fields {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func (c *core) child(fields []Field) core {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := make([]Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return core{mu: c.mu, level: c.level, fields: merged}
}

func (c *core) SetLevel(level Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
}

func (c *core) GetLevel() Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// LogEntry is the JSON shape of one line written by JSONLogger.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// JSONLogger writes one LogEntry per line.
type JSONLogger struct {
	core
	w io.Writer
}

func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	return &JSONLogger{core: newCore(level), w: w}
}

func (l *JSONLogger) write(level Level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	entry := LogEntry{
		Time:    time.Now().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if m := l.fieldMap(fields); len(m) > 0 {
		entry.Fields = m
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.w, "[ERROR] Failed to marshal log entry %q: %v\n", msg, err)
		return
	}
	l.w.Write(append(data, '\n'))
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.write(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.write(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.write(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.write(ErrorLevel, msg, fields) }

func (l *JSONLogger) With(fields ...Field) Logger {
	return &JSONLogger{core: l.child(fields), w: l.w}
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return InfoLevel }

func NewNopLogger() Logger { return NopLogger{} }

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}

// TimedOperation logs an operation together with its latency once it ends.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}

func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: OrNop(logger),
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// End logs the operation at DEBUG.
func (t *TimedOperation) End(extra ...Field) {
	fields := make([]Field, 0, len(t.fields)+len(extra)+1)
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	t.logger.Debug(t.msg, append(fields, Latency(time.Since(t.start)))...)
}

// EndError logs the operation at ERROR with err attached.
func (t *TimedOperation) EndError(err error) {
	fields := make([]Field, 0, len(t.fields)+2)
	fields = append(fields, t.fields...)
	t.logger.Error(t.msg, append(fields, Latency(time.Since(t.start)), Error(err))...)
}
