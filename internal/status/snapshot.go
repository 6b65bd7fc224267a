// Readers for forwarder status reports captured before and after a run.
package status

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SectionMarker ends the counters section of a status report.
const SectionMarker = "Channels"

var (
	ErrMissingCounter = errors.New("missing counter")
	ErrNotInteger     = errors.New("counter is not an integer")
)

// MissingCounterError names the key absent from a snapshot.
type MissingCounterError struct {
	Key  string
	File string
}

func (e *MissingCounterError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%v %q", ErrMissingCounter, e.Key)
	}
	return fmt.Sprintf("%s: %v %q", e.File, ErrMissingCounter, e.Key)
}

func (e *MissingCounterError) Is(target error) bool { return target == ErrMissingCounter }

// Value is a status entry. Integers are parsed; anything else is kept verbatim.
type Value struct {
	Int   int64
	Raw   string
	IsInt bool
}

// Snapshot maps status keys to values.
type Snapshot struct {
	File   string
	Values map[string]Value
}

// Parse reads KEY=VALUE lines until the first line containing SectionMarker.
func Parse(r io.Reader) (Snapshot, error) {
	snap := Snapshot{Values: make(map[string]Value)}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, SectionMarker) {
			break
		}
		key, raw, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		v := Value{Raw: raw}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			v.Int, v.IsInt = n, true
		}
		snap.Values[key] = v
	}
	if err := sc.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// ReadFile parses the snapshot stored at path.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	snap, err := Parse(f)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	snap.File = path
	return snap, nil
}

// Counter returns the integer value of key.
func (s Snapshot) Counter(key string) (int64, error) {
	v, ok := s.Values[key]
	if !ok {
		return 0, &MissingCounterError{Key: key, File: s.File}
	}
	if !v.IsInt {
		return 0, fmt.Errorf("%s: %w: %s=%q", s.File, ErrNotInteger, key, v.Raw)
	}
	return v.Int, nil
}

// Delta holds end-minus-start counter values.
type Delta map[string]int64

// Diff subtracts start from end for each key. Both snapshots must expose every key.
func Diff(start, end Snapshot, keys []string) (Delta, error) {
	d := make(Delta, len(keys))
	for _, k := range keys {
		s, err := start.Counter(k)
		if err != nil {
			return nil, err
		}
		e, err := end.Counter(k)
		if err != nil {
			return nil, err
		}
		d[k] = e - s
	}
	return d, nil
}

// Add accumulates o into d.
func (d Delta) Add(o Delta) {
	for k, v := range o {
		d[k] += v
	}
}
