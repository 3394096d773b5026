// Package chatlog holds the ordered record of answered questions for one session.
package chatlog

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfRange is returned when an entry index does not exist.
var ErrOutOfRange = errors.New("entry index out of range")

// Entry is one answered question. Entries are values and never change after creation.
type Entry struct {
	Question string
	Answer   string
}

// Log is an append-only, chronologically ordered list of entries. It is safe
// for concurrent use; readers always receive copies.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append adds an entry at the end of the log.
func (l *Log) Append(question, answer string) Entry {
	e := Entry{Question: question, Answer: answer}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e
}

// Entries returns a chronological snapshot of the log.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reversed returns a most-recent-first snapshot of the log.
func (l *Log) Reversed() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

// EntryAt returns the entry at chronological position i (zero based).
func (l *Log) EntryAt(i int) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.entries) {
		return Entry{}, fmt.Errorf("%w: index %d, length %d", ErrOutOfRange, i, len(l.entries))
	}
	return l.entries[i], nil
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset drops every entry.
func (l *Log) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
