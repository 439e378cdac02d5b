package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

// Lead is a captured sales contact.
type Lead struct {
	ID        string
	Name      string
	Phone     string
	Note      string
	CreatedAt time.Time
}

// LeadBook records captured leads. Durable storage lives behind this
// seam in the embedding product.
type LeadBook interface {
	Save(ctx context.Context, lead Lead) error
}

// MemoryLeadBook keeps leads in memory, for demos and tests.
type MemoryLeadBook struct {
	mu    sync.Mutex
	leads []Lead
}

func (b *MemoryLeadBook) Save(_ context.Context, lead Lead) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leads = append(b.leads, lead)
	return nil
}

// Leads returns a snapshot of everything saved so far.
func (b *MemoryLeadBook) Leads() []Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Lead, len(b.leads))
	copy(out, b.leads)
	return out
}

// LeadCapture records the customer's contact details once the phone
// number checks out.
type LeadCapture struct {
	Book LeadBook
}

var leadCaptureParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "name": {"type": "string", "description": "Customer full name"},
    "phone": {"type": "string", "description": "Customer phone number"},
    "note": {"type": "string", "description": "Context for the sales team"}
  },
  "required": ["name", "phone"]
}`)

func (t *LeadCapture) Declaration() types.ToolDeclaration {
	return types.ToolDeclaration{
		Name:        "capture_lead",
		Description: "Record the customer's name and phone number so an advisor can follow up.",
		Parameters:  leadCaptureParams,
	}
}

func (t *LeadCapture) Handle(ctx context.Context, args map[string]any) (map[string]any, error) {
	name, _ := args["name"].(string)
	rawPhone, _ := args["phone"].(string)
	note, _ := args["note"].(string)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &types.ToolError{
			Kind:   types.ToolErrorValidation,
			Reason: "name is required",
			Hint:   "ask the customer for their name, then call capture_lead again",
		}
	}
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	lead := Lead{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Note:      note,
		CreatedAt: time.Now(),
	}
	if err := t.Book.Save(ctx, lead); err != nil {
		return nil, fmt.Errorf("save lead: %w", err)
	}
	return map[string]any{"lead_id": lead.ID, "phone": phone}, nil
}

// NormalizePhone strips separators and checks the local mobile format:
// at least ten digits with the national trunk prefix 0.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	phone := digits.String()
	if len(phone) >= 10 && phone[0] == '0' {
		return phone, nil
	}
	return "", &types.ToolError{
		Kind:   types.ToolErrorValidation,
		Reason: fmt.Sprintf("phone number %q is not a valid local number", raw),
		Hint:   "expected at least 10 digits starting with 0; ask the customer to repeat their number",
	}
}
