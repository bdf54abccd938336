// Package bridge connects the export engine to a page-side shim over a
// WebSocket. The shim reports the page location and control activations;
// the engine asks it to mount and unmount controls, prompt and alert.
package bridge

import "encoding/json"

// Message types sent by the page.
const (
	TypeLocation     = "location"
	TypeActivate     = "activate"
	TypePromptResult = "prompt_result"
)

// Message types sent by the engine.
const (
	TypeMount   = "mount"
	TypeUnmount = "unmount"
	TypePrompt  = "prompt"
	TypeAlert   = "alert"
)

// Message is the envelope of every frame in both directions.
// ID correlates a prompt with its prompt_result.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LocationPayload reports the page address.
type LocationPayload struct {
	Href string `json:"href"`
}

// ActivatePayload reports a click on a mounted control.
type ActivatePayload struct {
	Control string `json:"control"`
}

// PromptResultPayload answers a prompt.
type PromptResultPayload struct {
	Value     string `json:"value"`
	Cancelled bool   `json:"cancelled"`
}

// MountPayload asks the page to render a control.
type MountPayload struct {
	Control string `json:"control"`
	Label   string `json:"label"`
}

// UnmountPayload asks the page to remove a control.
type UnmountPayload struct {
	Control string `json:"control"`
}

// PromptPayload asks the page for text input.
type PromptPayload struct {
	Message string `json:"message"`
	Default string `json:"default"`
}

// AlertPayload asks the page to show a notification.
type AlertPayload struct {
	Message string `json:"message"`
}

// NewMessage builds an envelope around payload.
func NewMessage(id, typ string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{ID: id, Type: typ, Payload: raw}, nil
}
