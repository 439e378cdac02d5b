package types

// Role identifies the author of a transcript message or history turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Media is an opaque inline blob attached to a message, such as a photo
// of a listing or a floor plan.
type Media struct {
	MIME string `json:"mime"`
	Data []byte `json:"data"`
}

// ToolExchangeRecord pins a resolved tool invocation to the transcript
// message that carried it.
type ToolExchangeRecord struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
}

// Message is a single transcript entry. The transcript itself belongs to
// the embedding application; sessions only append to it.
type Message struct {
	Role  Role                `json:"role"`
	Text  string              `json:"text,omitempty"`
	Image *Media              `json:"image,omitempty"`
	Tool  *ToolExchangeRecord `json:"tool,omitempty"`
}
