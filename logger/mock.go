package logger

import (
	"fmt"
	"sync"
)

// MockELKLogger prints to stdout and records every message, tests read them
// back through Messages.
type MockELKLogger struct {
	mu       *sync.Mutex
	messages *[]string
	base     []Field
}

var _ Logger = (*MockELKLogger)(nil)

func NewMockELKLogger() *MockELKLogger {
	return &MockELKLogger{mu: &sync.Mutex{}, messages: &[]string{}}
}

func (m *MockELKLogger) record(level, msg string, fields []Field) {
	all := append(append([]Field{}, m.base...), fields...)
	line := fmt.Sprintf("[%s] %s %+v", level, msg, all)
	m.mu.Lock()
	*m.messages = append(*m.messages, line)
	m.mu.Unlock()
	fmt.Println(line)
}

// Messages is shared with every logger derived through With.
func (m *MockELKLogger) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(*m.messages))
	copy(out, *m.messages)
	return out
}

func (m *MockELKLogger) SetLogLevel(string) {}

func (m *MockELKLogger) With(fields ...Field) Logger {
	return &MockELKLogger{
		mu:       m.mu,
		messages: m.messages,
		base:     append(append([]Field{}, m.base...), fields...),
	}
}

func (m *MockELKLogger) Debug(msg string, fields ...Field) { m.record("debug", msg, fields) }
func (m *MockELKLogger) Info(msg string, fields ...Field)  { m.record("info", msg, fields) }
func (m *MockELKLogger) Warn(msg string, fields ...Field)  { m.record("warn", msg, fields) }
func (m *MockELKLogger) Error(msg string, fields ...Field) { m.record("error", msg, fields) }
