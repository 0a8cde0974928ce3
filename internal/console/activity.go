package console

import (
	"fmt"
	"sync"
	"time"
)

// Level is the severity of an activity entry
type Level string

const (
	LevelPlain   Level = ""
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// DefaultActivityLimit bounds the activity log
const DefaultActivityLimit = 500

// Activity is one line of the operator-facing activity log
type Activity struct {
	Time    time.Time
	Level   Level
	Message string
}

// String renders the entry as "[15:04:05] message"
func (a Activity) String() string {
	return fmt.Sprintf("[%s] %s", a.Time.Format("15:04:05"), a.Message)
}

// ActivityLog keeps the most recent local console messages
type ActivityLog struct {
	mu      sync.Mutex
	entries []Activity
	limit   int
	now     func() time.Time
}

// NewActivityLog creates a log holding at most limit entries
func NewActivityLog(limit int) *ActivityLog {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return &ActivityLog{limit: limit, now: time.Now}
}

// Add appends an entry, evicting the oldest when full
func (l *ActivityLog) Add(level Level, format string, args ...any) Activity {
	a := Activity{
		Time:    l.now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, a)
	if over := len(l.entries) - l.limit; over > 0 {
		l.entries = append([]Activity(nil), l.entries[over:]...)
	}
	return a
}

// Entries returns a copy of the log, oldest first
func (l *ActivityLog) Entries() []Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Activity, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns the newest entry
func (l *ActivityLog) Last() (Activity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return Activity{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Len returns the number of entries
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
