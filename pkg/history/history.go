// Package history records reversible edits to the lumber store.
package history

import (
	"github.com/sasha-s/go-deadlock"
)

// Command is one reversible edit. Do applies it the first time; Redo
// reapplies it after an Undo.
type Command interface {
	Do() error
	Undo()
	Redo()
	Description() string
}

// Log is a linear undo stack. Pushing after an undo discards the commands
// that were undone.
type Log struct {
	mu       deadlock.Mutex
	commands []Command
	current  int // index of the last applied command, -1 when none
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{current: -1}
}

// Push records an already applied command.
func (l *Log) Push(c Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commands = append(l.commands[:l.current+1], c)
	l.current = len(l.commands) - 1
}

// Run applies c and records it on success.
func (l *Log) Run(c Command) error {
	if err := c.Do(); err != nil {
		return err
	}
	l.Push(c)
	return nil
}

// Undo reverts the last applied command. It reports false when there is
// nothing to undo.
func (l *Log) Undo() bool {
	l.mu.Lock()
	if l.current < 0 {
		l.mu.Unlock()
		return false
	}
	c := l.commands[l.current]
	l.current--
	l.mu.Unlock()
	c.Undo()
	return true
}

// Redo reapplies the next undone command.
func (l *Log) Redo() bool {
	l.mu.Lock()
	if l.current >= len(l.commands)-1 {
		l.mu.Unlock()
		return false
	}
	l.current++
	c := l.commands[l.current]
	l.mu.Unlock()
	c.Redo()
	return true
}

// Clear drops every recorded command.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commands = nil
	l.current = -1
}

func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current >= 0
}

func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current < len(l.commands)-1
}

// Descriptions lists the recorded commands oldest first, and the index of
// the last applied one.
func (l *Log) Descriptions() ([]string, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.commands))
	for i, c := range l.commands {
		out[i] = c.Description()
	}
	return out, l.current
}
