// Package telemetry provides the evaluator's structured logging: a
// component/command-aware wrapper over logrus with a colorized console
// formatter, adapted from the target-scoped logger the build engine uses.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/Qfresquin/cmk2nob/internal/events"
)

// Field is one structured logging attribute.
type Field struct {
	Key   string
	Value interface{}
}

func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Logger is the interface evaluator-adjacent code logs through.
type Logger interface {
	Info(message string, fields ...Field)
	Warn(message string, fields ...Field)
	Error(message string, fields ...Field)
	Debug(message string, fields ...Field)
	WithComponent(component string) Logger
	// Diagnostic renders an events.Diagnostic at its recorded severity.
	Diagnostic(d events.Diagnostic)
}

// componentFormatter renders log lines with a component prefix and
// origin location, colorized by level.
type componentFormatter struct {
	TimestampFormat string
	DisableColors   bool
}

func (f *componentFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := entry.Time.Format(f.TimestampFormat)

	var levelColor *color.Color
	var levelText string
	switch entry.Level {
	case logrus.ErrorLevel:
		levelColor, levelText = color.New(color.FgRed, color.Bold), "ERROR"
	case logrus.WarnLevel:
		levelColor, levelText = color.New(color.FgYellow, color.Bold), "WARN"
	case logrus.DebugLevel:
		levelColor, levelText = color.New(color.FgWhite, color.Faint), "DEBUG"
	default:
		levelColor, levelText = color.New(color.FgCyan), "INFO"
	}

	prefix := ""
	if comp, ok := entry.Data["component"]; ok {
		prefix = fmt.Sprintf("[%s] ", comp)
		delete(entry.Data, "component")
	}

	var out string
	if f.DisableColors {
		out = fmt.Sprintf("[%s] %s: %s%s", ts, levelText, prefix, entry.Message)
	} else {
		out = fmt.Sprintf("[%s] %s: %s%s", ts, levelColor.Sprint(levelText), prefix, entry.Message)
	}

	if len(entry.Data) > 0 {
		fields := " {"
		first := true
		for k, v := range entry.Data {
			if !first {
				fields += ", "
			}
			fields += fmt.Sprintf("%s=%v", k, v)
			first = false
		}
		fields += "}"
		if f.DisableColors {
			out += fields
		} else {
			out += color.New(color.FgWhite, color.Faint).Sprint(fields)
		}
	}
	return []byte(out + "\n"), nil
}

// componentLogger implements Logger over a shared *logrus.Logger.
type componentLogger struct {
	logger    *logrus.Logger
	component string
	mu        sync.RWMutex
}

// New builds a Logger at logLevel ("debug", "info", "warn", "error"),
// writing to stderr (logrus's default output); if logFile is non-empty and
// can be opened, it writes to stdout and that file instead.
func New(logLevel, logFile string) Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&componentFormatter{TimestampFormat: "15:04:05"})

	if logFile != "" {
		if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}
	return &componentLogger{logger: log}
}

// NewWithOutput builds a Logger writing only to output, colors disabled,
// so that log content can be captured and inspected.
func NewWithOutput(logLevel string, output io.Writer) Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&componentFormatter{TimestampFormat: "15:04:05", DisableColors: true})
	log.SetOutput(output)
	return &componentLogger{logger: log}
}

func (l *componentLogger) WithComponent(component string) Logger {
	return &componentLogger{logger: l.logger, component: component}
}

func (l *componentLogger) fields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields)+1)
	if l.component != "" {
		out["component"] = l.component
	}
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

func (l *componentLogger) Info(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.fields(fields)).Info(message)
}

func (l *componentLogger) Warn(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.fields(fields)).Warn(message)
}

func (l *componentLogger) Error(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.fields(fields)).Error(message)
}

func (l *componentLogger) Debug(message string, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.WithFields(l.fields(fields)).Debug(message)
}

// Diagnostic logs an events.Diagnostic at the matching logrus level, with
// its origin and classification as structured fields.
func (l *componentLogger) Diagnostic(d events.Diagnostic) {
	fields := []Field{
		F("command", d.Command),
		F("file", d.Origin.File),
		F("line", d.Origin.Line),
		F("code", d.Code),
		F("class", d.Class),
	}
	logger := l.WithComponent(d.Component)
	switch d.Severity {
	case events.SeverityFatal, events.SeverityError:
		logger.Error(d.Detail, fields...)
	default:
		logger.Warn(d.Detail, fields...)
	}
}
