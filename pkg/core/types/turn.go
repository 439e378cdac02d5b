package types

// Part is one fragment of a history turn: text or inline media.
type Part struct {
	Text  string `json:"text,omitempty"`
	Media *Media `json:"media,omitempty"`
}

// Turn is the wire-level history unit. Encoded histories alternate
// strictly between user and model turns, starting with a user turn.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}
