package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/llm"
)

// scriptedModel returns its responses in order and records every request.
type scriptedModel struct {
	responses []*llm.Response
	errs      []error
	requests  []llm.Request
}

func (m *scriptedModel) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.responses) {
		return nil, errors.New("unexpected model call")
	}
	return m.responses[i], nil
}

type memoryCatalog struct {
	products []models.Product
	err      error
	queries  []string
}

func (c *memoryCatalog) Search(_ context.Context, query string, limit int) ([]models.Product, error) {
	c.queries = append(c.queries, query)
	if c.err != nil {
		return nil, c.err
	}
	var out []models.Product
	for _, p := range c.products {
		haystack := strings.ToLower(strings.Join([]string{p.Title, p.Description, p.Category, deref(p.Brand)}, " "))
		if strings.Contains(haystack, query) {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubLocker struct {
	held     map[string]string
	err      error
	released []string
}

func newStubLocker() *stubLocker {
	return &stubLocker{held: map[string]string{}}
}

func (l *stubLocker) AcquireLock(_ context.Context, key, token string, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = token
	return true, nil
}

func (l *stubLocker) ReleaseLock(_ context.Context, key, token string) error {
	if l.held[key] == token {
		delete(l.held, key)
		l.released = append(l.released, key)
	}
	return nil
}

func (l *stubLocker) ChatTurnLockKey(sessionID string) string {
	return "sf:assistant_turn:" + sessionID
}

func strPtr(s string) *string { return &s }

func product(title, brand, category, price, discount string, stock int) models.Product {
	p := models.Product{
		ID:                 uuid.New(),
		Title:              title,
		Description:        title + " built for daily use",
		Category:           category,
		Price:              decimal.RequireFromString(price),
		DiscountPercentage: decimal.RequireFromString(discount),
		Stock:              stock,
	}
	if brand != "" {
		p.Brand = strPtr(brand)
	}
	return p
}

func textResponse(text string) *llm.Response {
	return &llm.Response{HasContent: true, Text: text}
}

func callResponse(calls ...llm.FunctionCall) *llm.Response {
	return &llm.Response{HasContent: true, FunctionCalls: calls}
}
