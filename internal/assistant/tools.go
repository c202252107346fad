package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const searchLimit = 10

// Catalog is the product search the tools run against.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
}

// ToolResult is the text handed back to the model plus the products it
// describes, so callers do not have to re-parse the text.
type ToolResult struct {
	Text     string
	Products []models.Product
}

// SearchTool answers getData calls.
type SearchTool struct {
	catalog Catalog
}

func NewSearchTool(catalog Catalog) *SearchTool {
	return &SearchTool{catalog: catalog}
}

// Run never fails: catalog errors come back as tool text.
func (t *SearchTool) Run(ctx context.Context, query string) ToolResult {
	products, err := t.catalog.Search(ctx, strings.ToLower(query), searchLimit)
	if err != nil {
		return ToolResult{Text: "Error fetching products: " + errorMessage(err)}
	}
	if len(products) == 0 {
		return ToolResult{Text: fmt.Sprintf("No products found matching %q. Try a different search term or category.", query)}
	}
	return ToolResult{Text: renderSearch(products), Products: products}
}

// CompareTool answers compareProducts calls. Each side is the first search
// hit for its name.
type CompareTool struct {
	catalog Catalog
}

func NewCompareTool(catalog Catalog) *CompareTool {
	return &CompareTool{catalog: catalog}
}

func (t *CompareTool) Run(ctx context.Context, first, second string) ToolResult {
	a, err := t.firstMatch(ctx, first)
	if err != nil {
		return ToolResult{Text: "Error comparing products: " + errorMessage(err)}
	}
	b, err := t.firstMatch(ctx, second)
	if err != nil {
		return ToolResult{Text: "Error comparing products: " + errorMessage(err)}
	}
	if a == nil {
		return ToolResult{Text: notFoundText(first)}
	}
	if b == nil {
		return ToolResult{Text: notFoundText(second)}
	}
	if a.ID == b.ID {
		return ToolResult{
			Text:     fmt.Sprintf("Both searches returned the same product: %q. Please provide two different product names.", a.Title),
			Products: []models.Product{*a},
		}
	}
	return ToolResult{Text: renderComparison(*a, *b), Products: []models.Product{*a, *b}}
}

func (t *CompareTool) firstMatch(ctx context.Context, name string) (*models.Product, error) {
	rows, err := t.catalog.Search(ctx, strings.ToLower(name), 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func notFoundText(name string) string {
	return fmt.Sprintf("Could not find any product matching %q. Please try a different search term.", name)
}

func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Unwrap() != nil {
		return typed.Unwrap().Error()
	}
	return err.Error()
}
