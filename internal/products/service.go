package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes read access to the catalog.
type Service interface {
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	Facets(ctx context.Context) (*FacetsDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
}

type service struct {
	repo *Repository
}

// NewService builds the catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	f := input.Filters
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	if (f.MinPrice != nil && f.MinPrice.IsNegative()) || (f.MaxPrice != nil && f.MaxPrice.IsNegative()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price bounds must be non-negative")
	}

	page := pagination.NewPage(input.Page.Number, input.Page.Size)
	rows, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	items := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromModel(row))
	}
	return &ProductListResult{
		Items:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (s *service) Facets(ctx context.Context) (*FacetsDTO, error) {
	categories, minPrice, maxPrice, err := s.repo.Facets(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product facets")
	}
	if categories == nil {
		categories = []string{}
	}
	return &FacetsDTO{Categories: categories, MinPrice: minPrice, MaxPrice: maxPrice}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	return rows, nil
}

func (s *service) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	rows, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return rows, nil
}
