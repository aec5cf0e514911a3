// Package observability provides the logging abstraction used across the
// reducer. Engine packages accept a Logger and default to the no-op
// implementation; binaries install the logrus-backed one.
package observability

import "github.com/sirupsen/logrus"

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type int64Field struct {
	key string
	val int64
}

func (f int64Field) Key() string        { return f.key }
func (f int64Field) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type boolField struct {
	key string
	val bool
}

func (f boolField) Key() string        { return f.key }
func (f boolField) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, value} }
func Int64(key string, value int64) Field     { return int64Field{key, value} }
func Float64(key string, value float64) Field { return float64Field{key, value} }
func Bool(key string, value bool) Field       { return boolField{key, value} }
func Error(key string, err error) Field       { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// NewLogrus adapts a logrus logger to the Logger interface.
func NewLogrus(l *logrus.Logger) Logger {
	return logrusLogger{entry: logrus.NewEntry(l)}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l logrusLogger) Debug(msg string, fields ...Field) { l.entry.WithFields(asFields(fields)).Debug(msg) }
func (l logrusLogger) Info(msg string, fields ...Field)  { l.entry.WithFields(asFields(fields)).Info(msg) }
func (l logrusLogger) Warn(msg string, fields ...Field)  { l.entry.WithFields(asFields(fields)).Warn(msg) }
func (l logrusLogger) Error(msg string, fields ...Field) { l.entry.WithFields(asFields(fields)).Error(msg) }

func (l logrusLogger) With(fields ...Field) Logger {
	return logrusLogger{entry: l.entry.WithFields(asFields(fields))}
}

func asFields(fields []Field) logrus.Fields {
	if len(fields) == 0 {
		return nil
	}
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key()] = f.Value()
	}
	return out
}

// Standard metric names emitted around reduction runs.
const (
	MetricReduceTime     = "pdfreduce.reduce.duration"
	MetricPageCount      = "pdfreduce.pages.count"
	MetricImageCount     = "pdfreduce.images.count"
	MetricImagesReplaced = "pdfreduce.images.replaced"
	MetricBytesSaved     = "pdfreduce.bytes.saved"
)
