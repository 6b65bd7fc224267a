// Parser for the per-node chat application logs.
package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is the logger's "%Y-%m-%d %H:%M:%S.%f" timestamp format.
const TimestampLayout = "2006-01-02 15:04:05.000000"

const (
	fieldCount   = 4
	argSeparator = "::"
	maxLineBytes = 1 << 20
)

var (
	ErrTimestamp     = errors.New("malformed timestamp")
	ErrMalformedLine = errors.New("malformed log line")
)

// ParseError identifies the file and line that could not be parsed.
type ParseError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q", e.File, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// stripQuotes removes the quoting the logger wraps around every field.
func stripQuotes(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// ParseLine parses "timestamp, pid, tid, message" into an Event. The message
// may itself contain commas; only the first three separate fields.
func ParseLine(line string) (Event, error) {
	fields := strings.SplitN(line, ",", fieldCount)
	if len(fields) < fieldCount {
		return Event{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedLine, fieldCount, len(fields))
	}
	for i := range fields {
		fields[i] = stripQuotes(fields[i])
	}

	ts, err := time.Parse(TimestampLayout, fields[0])
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrTimestamp, err)
	}

	parts := strings.Split(fields[3], argSeparator)
	ev := Event{
		Timestamp: ts,
		Tag:       parts[0],
		Kind:      Classify(parts[0]),
		Args:      parts[1:],
		PID:       fields[1],
		TID:       fields[2],
	}
	if len(ev.Args) > 0 {
		ev.Node = ev.Args[0]
	}

	switch ev.Kind {
	case KindPublish, KindReceive:
		if len(ev.Args) < 2 || ev.Args[1] == "" {
			return Event{}, fmt.Errorf("%w: %s without message name", ErrMalformedLine, ev.Tag)
		}
		ev.MessageID = MessageName(ev.Args[1])
	case KindSyncInterestSent, KindNodeInit, KindReceiveState, KindUnknown:
	}
	return ev, nil
}

// NodeFromPath derives a node name from a log or status file path: the base
// name up to the first dot.
func NodeFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// Reader decodes events from one node's log.
type Reader struct {
	scanner *bufio.Scanner
	file    string
	source  string
	line    int
}

// NewReader returns a Reader over r. file names the source in errors and
// determines the emitting node.
func NewReader(r io.Reader, file string) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{scanner: sc, file: file, source: NodeFromPath(file)}
}

// Next returns the next event, or io.EOF once the input is exhausted.
// Blank lines are skipped.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		ev, err := ParseLine(text)
		if err != nil {
			return Event{}, &ParseError{File: r.file, Line: r.line, Text: text, Err: err}
		}
		ev.Source = r.source
		if ev.Node == "" {
			ev.Node = r.source
		}
		ev.Line = r.line
		return ev, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("read %s: %w", r.file, err)
	}
	return Event{}, io.EOF
}

// Events lazily yields the events of the log file at path. Iteration stops
// after the first error is yielded.
func Events(path string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Event{}, err)
			return
		}
		defer f.Close()

		r := NewReader(f, path)
		for {
			ev, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// ReadFile parses a whole log file.
func ReadFile(path string) ([]Event, error) {
	var events []Event
	for ev, err := range Events(path) {
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
