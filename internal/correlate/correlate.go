// Package correlate joins publish and receive events from every node's log
// into one delivery record per message.
//
// Node clocks are compared as-is. The emulated nodes share the host clock, so
// no skew correction is applied and a reception may precede its publication.
//
// A publisher is derived only where it can matter: a malformed name that was
// received fails the directory, one nobody received is kept with an empty
// Publisher and counts toward the run totals only.
package correlate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"syncbench/internal/eventlog"
)

// ErrNeverPublished reports a received message without a publish event.
var ErrNeverPublished = errors.New("message received but never published")

// IntegrityError names the message that broke the publish/receive invariant.
type IntegrityError struct {
	MessageID eventlog.MessageName
	Receivers []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: %s (received by %v)", ErrNeverPublished, e.MessageID, e.Receivers)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrNeverPublished }

// Reception is one node observing a message.
type Reception struct {
	Node string
	At   time.Time
}

// DeliveryRecord is everything known about one published message. Publisher
// is empty for an unreceived message whose name has no publisher segment.
type DeliveryRecord struct {
	MessageID  eventlog.MessageName
	Publisher  string
	Published  time.Time
	Receptions []Reception
}

// Delays returns receive-minus-publish in milliseconds for every reception,
// negative values included.
func (r DeliveryRecord) Delays() []int64 {
	out := make([]int64, len(r.Receptions))
	pub := r.Published.UnixMilli()
	for i, rc := range r.Receptions {
		out[i] = rc.At.UnixMilli() - pub
	}
	return out
}

// ReceiverCount returns the number of distinct nodes that received the message.
func (r DeliveryRecord) ReceiverCount() int {
	seen := make(map[string]struct{}, len(r.Receptions))
	for _, rc := range r.Receptions {
		seen[rc.Node] = struct{}{}
	}
	return len(seen)
}

// Result is the correlated view of one log directory. SyncInterestsByNode is
// keyed by the node whose log file recorded the interest; Nodes lists the
// identities that logged a node start.
type Result struct {
	Records             []DeliveryRecord
	SyncInterests       int
	SyncInterestsByNode map[string]int
	StateUpdates        int
	Nodes               []string
}

// Receptions returns the number of receptions over all records.
func (r *Result) Receptions() int {
	n := 0
	for _, rec := range r.Records {
		n += len(rec.Receptions)
	}
	return n
}

// Correlator accumulates events from any number of logs. It is not safe for
// concurrent use.
type Correlator struct {
	publishes     map[eventlog.MessageName]time.Time
	receptions    map[eventlog.MessageName][]Reception
	recvOrder     []eventlog.MessageName
	syncInterests int
	syncByNode    map[string]int
	stateUpdates  int
	nodes         map[string]struct{}
}

// New returns an empty Correlator.
func New() *Correlator {
	return &Correlator{
		publishes:  make(map[eventlog.MessageName]time.Time),
		receptions: make(map[eventlog.MessageName][]Reception),
		syncByNode: make(map[string]int),
		nodes:      make(map[string]struct{}),
	}
}

// Add folds one event into the correlation state.
func (c *Correlator) Add(ev eventlog.Event) {
	switch ev.Kind {
	case eventlog.KindPublish:
		c.publishes[ev.MessageID] = ev.Timestamp
	case eventlog.KindReceive:
		if _, ok := c.receptions[ev.MessageID]; !ok {
			c.recvOrder = append(c.recvOrder, ev.MessageID)
		}
		c.receptions[ev.MessageID] = append(c.receptions[ev.MessageID], Reception{Node: ev.Node, At: ev.Timestamp})
	case eventlog.KindSyncInterestSent:
		c.syncInterests++
		c.syncByNode[ev.Source]++
	case eventlog.KindReceiveState:
		c.stateUpdates++
	case eventlog.KindNodeInit:
		c.nodes[ev.Node] = struct{}{}
	case eventlog.KindUnknown:
	}
}

// Published returns the number of distinct published messages seen so far.
func (c *Correlator) Published() int { return len(c.publishes) }

// Result verifies that every received message was published and builds the
// delivery records, ordered by publish time then message id.
func (c *Correlator) Result() (*Result, error) {
	for _, id := range c.recvOrder {
		if _, ok := c.publishes[id]; !ok {
			rcv := make([]string, 0, len(c.receptions[id]))
			for _, rc := range c.receptions[id] {
				rcv = append(rcv, rc.Node)
			}
			return nil, &IntegrityError{MessageID: id, Receivers: rcv}
		}
	}

	res := &Result{
		Records:             make([]DeliveryRecord, 0, len(c.publishes)),
		SyncInterests:       c.syncInterests,
		SyncInterestsByNode: make(map[string]int, len(c.syncByNode)),
		StateUpdates:        c.stateUpdates,
	}
	for id, at := range c.publishes {
		publisher, err := id.Publisher()
		if err != nil && len(c.receptions[id]) > 0 {
			return nil, err
		}
		res.Records = append(res.Records, DeliveryRecord{
			MessageID:  id,
			Publisher:  publisher,
			Published:  at,
			Receptions: c.receptions[id],
		})
	}
	sort.Slice(res.Records, func(i, j int) bool {
		a, b := res.Records[i], res.Records[j]
		if !a.Published.Equal(b.Published) {
			return a.Published.Before(b.Published)
		}
		return a.MessageID < b.MessageID
	})
	for n, v := range c.syncByNode {
		res.SyncInterestsByNode[n] = v
	}
	for n := range c.nodes {
		res.Nodes = append(res.Nodes, n)
	}
	sort.Strings(res.Nodes)
	return res, nil
}
