// Testing support. TestLogger captures records in memory as JSON lines so
// pipeline tests can assert on stage messages and attribute values without
// touching the process-wide slog default.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TestLogger is the in-memory Logger for tests. Records are serialized one
// JSON object per line into a shared buffer; loggers derived with With
// write into the same capture.
type TestLogger struct {
	buffer *bytes.Buffer
	level  Level
	bound  map[string]interface{}
}

// NewTestLogger returns a logger capturing records at or above level, and
// the buffer it writes to:
//
//	logger, _ := log.NewTestLogger(log.LevelInfo)
//	runner := analysis.NewRunner(cfg, logger)
//	...
//	logger.ContainsField(log.StageKey, log.StageLoad)
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buffer := &bytes.Buffer{}
	return &TestLogger{
		buffer: buffer,
		level:  level,
		bound:  map[string]interface{}{},
	}, buffer
}

func (t *TestLogger) Debug(msg string, fields ...any) { t.log(LevelDebug, msg, fields) }
func (t *TestLogger) Info(msg string, fields ...any)  { t.log(LevelInfo, msg, fields) }
func (t *TestLogger) Warn(msg string, fields ...any)  { t.log(LevelWarn, msg, fields) }
func (t *TestLogger) Error(msg string, fields ...any) { t.log(LevelError, msg, fields) }

// With implements Logger.With; the derived logger shares the capture buffer.
func (t *TestLogger) With(fields ...any) Logger {
	bound := make(map[string]interface{}, len(t.bound)+len(fields)/2)
	for k, v := range t.bound {
		bound[k] = v
	}
	addPairs(bound, fields)
	return &TestLogger{buffer: t.buffer, level: t.level, bound: bound}
}

// Enabled reports whether records at level would be captured.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

func (t *TestLogger) log(level Level, msg string, fields []any) {
	if t.level > level {
		return
	}

	entry := make(map[string]interface{}, len(t.bound)+len(fields)/2+2)
	for k, v := range t.bound {
		entry[k] = v
	}
	entry["level"] = level.String()
	entry["message"] = msg
	addPairs(entry, fields)

	line, _ := json.Marshal(entry)
	t.buffer.Write(line)
	t.buffer.WriteByte('\n')
}

// addPairs folds alternating key/value fields into dst. A leading bare
// error (the Logger.Error convention) lands under the standard error key,
// and error values are stored by message so entries stay serializable.
func addPairs(dst map[string]interface{}, fields []any) {
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			dst[ErrAttrKey] = err.Error()
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		if err, isErr := fields[i+1].(error); isErr {
			dst[key] = err.Error()
			continue
		}
		dst[key] = fields[i+1]
	}
}

// GetLogEntries decodes the capture into one map per record, in emission
// order, for assertions on individual fields.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(t.buffer.Bytes()))
	for dec.More() {
		var entry map[string]interface{}
		if err := dec.Decode(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any captured record's message contains
// the given text.
func (t *TestLogger) ContainsMessage(message string) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if msg, ok := entry["message"].(string); ok && strings.Contains(msg, message) {
			return true
		}
	}
	return false
}

// ContainsField reports whether any captured record carries key with the
// given value. JSON decoding turns every number into float64, so numeric
// expectations must be written as floats (62.0, not 62).
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if got, ok := entry[key]; ok && got == value {
			return true
		}
	}
	return false
}

// TestLoggerProvider is the LoggerProvider used in tests; every logger it
// hands out shares one capture buffer.
type TestLoggerProvider struct {
	logger *TestLogger
}

// NewTestLoggerProvider returns the provider and its capture buffer.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buffer := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buffer
}

// GetLogger hands out the shared capture logger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName tags the capture logger with a component name.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With("component", name)
}

// SetLevel changes the threshold of the underlying logger. Loggers already
// obtained through GetLogger observe the change; With-derived copies do not.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.level = level
}
