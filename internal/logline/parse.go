// ABOUTME: Splits a raw log line into a timestamp and a message.
// ABOUTME: Unparsable timestamps degrade to a raw-text marker, never an error.

package logline

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimeLayout is the timestamp format used for all emitted report lines.
const TimeLayout = "2006-01-02 15:04:05"

// Entry is a single parsed log line.
type Entry struct {
	// When is the parsed timestamp. Zero when the bracketed timestamp
	// text could not be parsed; Raw then carries the original text.
	When    time.Time
	Raw     string
	Message string
}

// Stamp returns the timestamp text to place between brackets when the
// entry is re-emitted. Falls back to the raw marker for unparsable input.
func (e Entry) Stamp() string {
	if e.When.IsZero() {
		return e.Raw
	}
	return e.When.Format(TimeLayout)
}

// Parse splits a raw line of the form "[timestamp] message" into an Entry.
// Lines without a bracketed prefix become a message stamped with the
// current wall-clock time. Parse never fails; the second return value is
// false only for empty input or input with no message text.
func Parse(raw string) (Entry, bool) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Entry{}, false
	}

	if strings.HasPrefix(line, "[") {
		if end := strings.Index(line, "]"); end >= 0 {
			stamp := line[1:end]
			message := strings.TrimSpace(line[end+1:])
			if message == "" {
				return Entry{}, false
			}

			when, err := dateparse.ParseLocal(stamp)
			if err != nil {
				// Keep the raw text as a marker; dedup still keys
				// on the message alone.
				return Entry{Raw: stamp, Message: message}, true
			}
			return Entry{When: when, Raw: stamp, Message: message}, true
		}
	}

	return Entry{When: time.Now(), Message: line}, true
}
