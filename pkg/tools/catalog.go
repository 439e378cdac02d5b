package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/vihome-ai/advisor-core/pkg/core/types"
)

// Listing is one project or unit the assistant can talk about.
type Listing struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	District string `json:"district"`
	PriceVND int64  `json:"price_vnd"`
	Bedrooms int    `json:"bedrooms"`
	Summary  string `json:"summary"`
}

// Catalog answers listing queries. The embedding product backs this with
// its own inventory service.
type Catalog interface {
	Find(ctx context.Context, query string) ([]Listing, error)
}

// StaticCatalog serves a fixed in-memory inventory.
type StaticCatalog struct {
	Listings []Listing
}

func (c *StaticCatalog) Find(_ context.Context, query string) ([]Listing, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Listing
	for _, l := range c.Listings {
		if strings.Contains(strings.ToLower(l.Name), q) ||
			strings.Contains(strings.ToLower(l.District), q) {
			out = append(out, l)
		}
	}
	return out, nil
}

// DemoCatalog returns a small inventory for the demo commands.
func DemoCatalog() *StaticCatalog {
	return &StaticCatalog{Listings: []Listing{
		{ID: "rivera-q7", Name: "Rivera Park", District: "Quận 7", PriceVND: 3_200_000_000, Bedrooms: 2, Summary: "Căn hộ ven sông, bàn giao 2025."},
		{ID: "sunrise-q2", Name: "Sunrise Boulevard", District: "Thủ Đức", PriceVND: 4_500_000_000, Bedrooms: 3, Summary: "Gần tuyến metro số 1."},
		{ID: "garden-bt", Name: "Garden Hills", District: "Bình Thạnh", PriceVND: 2_800_000_000, Bedrooms: 2, Summary: "Nội khu nhiều cây xanh."},
	}}
}

// ProjectLookup searches the catalog so the model can ground its answers
// in real inventory.
type ProjectLookup struct {
	Catalog Catalog
}

var projectLookupParams = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Project name or district to search for"}
  },
  "required": ["query"]
}`)

func (t *ProjectLookup) Declaration() types.ToolDeclaration {
	return types.ToolDeclaration{
		Name:        "lookup_project",
		Description: "Search the listing catalog by project name or district.",
		Parameters:  projectLookupParams,
	}
}

func (t *ProjectLookup) Handle(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, &types.ToolError{
			Kind:   types.ToolErrorValidation,
			Reason: "query is required",
			Hint:   "pass the project name or district the customer mentioned",
		}
	}
	listings, err := t.Catalog.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	matches := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		matches = append(matches, map[string]any{
			"id":        l.ID,
			"name":      l.Name,
			"district":  l.District,
			"price_vnd": l.PriceVND,
			"bedrooms":  l.Bedrooms,
			"summary":   l.Summary,
		})
	}
	return map[string]any{"matches": matches}, nil
}
