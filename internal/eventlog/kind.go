package eventlog

import "strings"

// Kind classifies a log line by its event tag.
type Kind int

const (
	KindUnknown Kind = iota
	KindPublish
	KindReceive
	KindSyncInterestSent
	KindNodeInit
	KindReceiveState
)

// Event tags written by the chat applications.
const (
	TagPublish          = "PUBL_MSG"
	TagReceive          = "RECV_MSG"
	TagSyncInterestSent = "SEND_SYNC_INT"
	TagNodeInit         = "NODE_INIT"
	TagReceiveState     = "RECV_STATE"
)

var tagKinds = []struct {
	tag  string
	kind Kind
}{
	{TagPublish, KindPublish},
	{TagReceive, KindReceive},
	{TagSyncInterestSent, KindSyncInterestSent},
	{TagNodeInit, KindNodeInit},
	{TagReceiveState, KindReceiveState},
}

// Classify maps the first ::-delimited token of a message to a Kind.
// Matching is by substring so logger prefixes around the tag are tolerated.
func Classify(tag string) Kind {
	for _, tk := range tagKinds {
		if strings.Contains(tag, tk.tag) {
			return tk.kind
		}
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindPublish:
		return "publish"
	case KindReceive:
		return "receive"
	case KindSyncInterestSent:
		return "sync_interest_sent"
	case KindNodeInit:
		return "node_init"
	case KindReceiveState:
		return "receive_state"
	default:
		return "unknown"
	}
}
