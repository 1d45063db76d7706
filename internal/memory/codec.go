package memory

import (
	"strings"

	"github.com/flemzord/recall/pkg/session"
)

// delimiter joins role and content in a stored line. Roles must not
// contain it; content may.
const delimiter = ": "

// Encode serialises a message into a single stored line. Encoding never
// fails; the role invariant is enforced upstream by the service.
func Encode(m session.Message) string {
	return m.Role + delimiter + m.Content
}

// Decode parses a stored line back into a message by splitting on the
// first delimiter occurrence. Lines without a delimiter report false and
// are dropped by the read path; corrupt entries must never break a read.
func Decode(line string) (session.Message, bool) {
	role, content, ok := strings.Cut(line, delimiter)
	if !ok {
		return session.Message{}, false
	}
	return session.Message{Role: role, Content: content}, true
}

// decodeLines decodes stored lines in order, silently skipping any that
// fail to decode.
func decodeLines(lines []string) []session.Message {
	msgs := make([]session.Message, 0, len(lines))
	for _, line := range lines {
		if m, ok := Decode(line); ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}
