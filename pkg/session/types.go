// Package session defines the wire types shared between the memory service,
// the HTTP gateway, and external consumers.
package session

// Message is a single conversational turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Memory is the result of a memory read: the recent message window
// (newest first) and the compacted context summary, if one exists.
type Memory struct {
	Messages []Message `json:"messages"`
	Context  *string   `json:"context"`
}

// Ack is the generic acknowledgement returned by write operations.
type Ack struct {
	Status string `json:"status"`
}

// AckOK is the acknowledgement for a successful write.
var AckOK = Ack{Status: "Ok"}
