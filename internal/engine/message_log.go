package engine

import (
	"drivex/internal/logger"

	"github.com/sirupsen/logrus"
)

// MessageLog keeps the last few human-readable status lines, newest first.
// It is informational only; nothing reads it back as state.
type MessageLog struct {
	capacity int
	lines    []string
	fields   logrus.Fields
}

func NewMessageLog(capacity int, fields logrus.Fields) *MessageLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &MessageLog{capacity: capacity, lines: make([]string, 0, capacity), fields: fields}
}

func (m *MessageLog) Add(text string) {
	m.lines = append([]string{text}, m.lines...)
	if len(m.lines) > m.capacity {
		m.lines = m.lines[:m.capacity]
	}
	logger.Log.WithFields(m.fields).WithField("component", "status_log").Info(text)
}

// Replace drops the history and leaves text as the only line.
func (m *MessageLog) Replace(text string) {
	m.lines = m.lines[:0]
	m.Add(text)
}

func (m *MessageLog) Lines() []string {
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}
