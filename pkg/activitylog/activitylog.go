package activitylog

import (
	"fmt"
	"sync"
	"time"
)

type Entry struct {
	At      time.Time `json:"timestamp"`
	Message string    `json:"message"`
}

// Log is a bounded FIFO of activity entries. Once capacity is reached the
// oldest entry is evicted on every append. Guarded by a mutex since the HTTP
// server appends from concurrent handlers.
type Log struct {
	mu      sync.Mutex
	cap     int
	entries []Entry
	total   int64
}

func New(capacity int) *Log {
	return &Log{cap: capacity, entries: make([]Entry, 0, capacity)}
}

func (l *Log) Append(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == l.cap {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.cap-1]
	}
	l.entries = append(l.entries, Entry{At: time.Now().UTC(), Message: msg})
	l.total++
}

func (l *Log) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Recent returns at most the newest n entries, oldest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Last returns the newest entry, if any.
func (l *Log) Last() (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Total is the number of entries ever appended, including evicted ones.
func (l *Log) Total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
