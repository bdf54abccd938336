package models

import "encoding/json"

// Sender values used by the conversation API.
const (
	SenderHuman     = "human"
	SenderAssistant = "assistant"
)

// ConversationSummary is one entry of the conversation listing.
// Only UUID drives iteration; the rest is informational and kept
// verbatim.
type ConversationSummary struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Message is a single turn of a conversation.
type Message struct {
	UUID   string `json:"uuid,omitempty"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// IsHuman reports whether the message was written by the user.
func (m Message) IsHuman() bool {
	return m.Sender == SenderHuman
}

// Conversation is a fully fetched conversation record.
// Messages are kept in conversation order.
type Conversation struct {
	UUID     string    `json:"uuid"`
	Name     string    `json:"name"`
	Messages []Message `json:"chat_messages"`

	// raw holds the record exactly as received so structured exports
	// keep every field and its original order.
	raw json.RawMessage
}

// UnmarshalJSON decodes the known fields and retains the raw bytes.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	type plain Conversation
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Conversation(p)
	c.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Raw returns the record as received, or nil if it was built in memory.
func (c *Conversation) Raw() json.RawMessage {
	return c.raw
}
