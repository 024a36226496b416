package models

import (
	"encoding/json"
	"time"
)

// Client roles, selected with the role query parameter on /ws.
const (
	RoleUI     = "ui"
	RoleEditor = "editor"
)

// Message is the envelope for everything written to UI and editor clients.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"data,omitempty"`
}

// Inbound is a command received from a client. Commands are flat objects, so the
// whole frame is kept in Raw and decoded by the handler for that type.
type Inbound struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

func (in *Inbound) UnmarshalJSON(b []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	in.Type = head.Type
	in.Raw = append(in.Raw[:0], b...)
	return nil
}

// Decode unmarshals the raw frame into v.
func (in *Inbound) Decode(v any) error {
	return json.Unmarshal(in.Raw, v)
}

// Now returns the wire timestamp: Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}
