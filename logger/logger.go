package logger

import (
	"fmt"
	"io"
	"net"
	"os"

	logstash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/sirupsen/logrus"
)

// Logger is the structured logger every package receives. Fields attached
// with With are carried by every later entry.
type Logger interface {
	SetLogLevel(level string)
	With(fields ...Field) Logger

	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

type ELKLogger struct {
	entry *logrus.Entry
	conn  net.Conn
}

var _ Logger = (*ELKLogger)(nil)

// NewELKLogger writes JSON entries tagged with botName to stdout. When
// logstashAddr is set, every entry is also shipped to logstash over tcp until
// Close is called.
func NewELKLogger(botName string, logstashAddr string) (*ELKLogger, error) {
	var (
		hook logrus.Hook
		conn net.Conn
	)
	if logstashAddr != "" {
		var err error
		conn, err = net.Dial("tcp", logstashAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to logstash: %w", err)
		}
		hook = logstash.New(conn, logstash.DefaultFormatter(logrus.Fields{}))
	}
	l := newELKLogger(os.Stdout, botName, hook)
	l.conn = conn
	return l, nil
}

// Close releases the logstash connection. Loggers derived with With share it
// and must not be used afterwards.
func (l *ELKLogger) Close() error {
	if l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}

func newELKLogger(out io.Writer, botName string, hook logrus.Hook) *ELKLogger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{})
	if hook != nil {
		l.Hooks.Add(hook)
	}
	return &ELKLogger{entry: l.WithField("bot_name", botName)}
}

// SetLogLevel falls back to info on an unknown level.
func (l *ELKLogger) SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.entry.Logger.SetLevel(lvl)
}

func (l *ELKLogger) With(fields ...Field) Logger {
	return &ELKLogger{entry: l.entry.WithFields(toLogrus(fields))}
}

func (l *ELKLogger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Debug(msg)
}

func (l *ELKLogger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Info(msg)
}

func (l *ELKLogger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Warn(msg)
}

func (l *ELKLogger) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrus(fields)).Error(msg)
}

// toLogrus flattens errors to their message, the JSON formatter would
// otherwise render most of them as {}.
func toLogrus(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		if err, ok := f.Val.(error); ok && err != nil {
			out[f.Key] = err.Error()
			continue
		}
		out[f.Key] = f.Val
	}
	return out
}
