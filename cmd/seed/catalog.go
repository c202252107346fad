package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// catalogNamespace keys the deterministic product ids so re-seeding the
// same feed updates rows in place.
var catalogNamespace = uuid.MustParse("6f1c2a4e-3b7d-5e80-9a12-7c4d8b0e2f35")

type feed struct {
	Products []feedProduct `json:"products"`
}

type feedProduct struct {
	ID                   json.Number     `json:"id"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Price                decimal.Decimal `json:"price"`
	DiscountPercentage   decimal.Decimal `json:"discountPercentage"`
	Rating               decimal.Decimal `json:"rating"`
	Stock                int             `json:"stock"`
	Tags                 []string        `json:"tags"`
	Brand                string          `json:"brand"`
	SKU                  string          `json:"sku"`
	WarrantyInformation  string          `json:"warrantyInformation"`
	ShippingInformation  string          `json:"shippingInformation"`
	AvailabilityStatus   string          `json:"availabilityStatus"`
	ReturnPolicy         string          `json:"returnPolicy"`
	MinimumOrderQuantity int             `json:"minimumOrderQuantity"`
	Thumbnail            string          `json:"thumbnail"`
	Images               []string        `json:"images"`
}

// productID maps a feed id onto the uuid the storefront uses.
func productID(feedID string) uuid.UUID {
	return uuid.NewSHA1(catalogNamespace, []byte("product:"+feedID))
}

// decodeCatalog reads a product feed and converts it into catalog rows.
// Entries missing a title or with a negative price are rejected.
func decodeCatalog(r io.Reader) ([]models.Product, error) {
	var in feed
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	out := make([]models.Product, 0, len(in.Products))
	seen := make(map[uuid.UUID]struct{}, len(in.Products))
	for i, p := range in.Products {
		feedID := strings.TrimSpace(p.ID.String())
		if feedID == "" {
			feedID = strconv.Itoa(i + 1)
		}
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("product %s: title is required", feedID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %s: price must not be negative", feedID)
		}

		id := productID(feedID)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("product %s: duplicate id", feedID)
		}
		seen[id] = struct{}{}

		moq := p.MinimumOrderQuantity
		if moq < 1 {
			moq = 1
		}
		out = append(out, models.Product{
			ID:                   id,
			SKU:                  optional(p.SKU),
			Title:                strings.TrimSpace(p.Title),
			Description:          p.Description,
			Category:             strings.ToLower(strings.TrimSpace(p.Category)),
			Brand:                optional(p.Brand),
			Price:                p.Price.Round(2),
			DiscountPercentage:   p.DiscountPercentage.Round(2),
			Rating:               p.Rating.Round(2),
			Stock:                max(p.Stock, 0),
			Thumbnail:            optional(p.Thumbnail),
			Images:               nonNil(p.Images),
			Tags:                 nonNil(p.Tags),
			WarrantyInformation:  optional(p.WarrantyInformation),
			ShippingInformation:  optional(p.ShippingInformation),
			AvailabilityStatus:   optional(p.AvailabilityStatus),
			ReturnPolicy:         optional(p.ReturnPolicy),
			MinimumOrderQuantity: moq,
		})
	}
	return out, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
