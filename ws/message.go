package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// PointerMsg carries a canvas position for click and hover.
type PointerMsg struct {
	Type string   `json:"type"`
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
}

// FlipMsg flips a card by index.
type FlipMsg struct {
	Type  string `json:"type"`
	Index *int   `json:"index"`
}

// SaveScoreMsg submits the finished run under a display name (may be empty).
type SaveScoreMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}
