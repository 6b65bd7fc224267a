package eventlog

import (
	"errors"
	"fmt"
	"strings"
)

// PublisherSegment is the index of the publisher component in a slash-split
// message name. Chat identities have the form /ndn/<node>-site/<node>/<app>/<node>,
// so splitting "/ndn/a-site/a/chat/a=1" on "/" yields ["", "ndn", "a-site", "a", ...]
// and the publisher sits at index 3. Change it here if the naming scheme changes.
const PublisherSegment = 3

// ErrMalformedName reports a message name without a publisher segment.
var ErrMalformedName = errors.New("message name has no publisher segment")

// MessageName is the opaque hierarchical identifier of a published message.
type MessageName string

// Publisher returns the node that published the message.
func (n MessageName) Publisher() (string, error) {
	parts := strings.Split(string(n), "/")
	if len(parts) <= PublisherSegment || parts[PublisherSegment] == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedName, string(n))
	}
	return parts[PublisherSegment], nil
}

func (n MessageName) String() string { return string(n) }
