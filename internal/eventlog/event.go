package eventlog

import "time"

// Event is one classified log line. Node is the identity the application
// logged as the first tag argument, or the source file's node when the line
// carries no arguments. Source is the node whose log file contained the line.
type Event struct {
	Timestamp time.Time
	Kind      Kind
	Tag       string
	Node      string
	Source    string
	MessageID MessageName
	Args      []string
	PID       string
	TID       string
	Line      int
}

// Millis returns the event time in milliseconds since the Unix epoch.
func (e Event) Millis() int64 {
	return e.Timestamp.UnixMilli()
}
