package product

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// likeEscaper neutralises LIKE wildcards in user input; paired with ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository reads and writes catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a single product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every existing product among ids in one query. Missing ids
// are simply absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns one page of products plus the total matching count.
func (r *Repository) List(ctx context.Context, filters ListFilters, page pagination.Page) ([]models.Product, int64, error) {
	base := applyListFilters(r.db.WithContext(ctx).Model(&models.Product{}), filters)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.Product{}, 0, nil
	}

	var rows []models.Product
	err := base.Session(&gorm.Session{}).
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyListFilters(q *gorm.DB, filters ListFilters) *gorm.DB {
	if len(filters.Categories) > 0 {
		q = q.Where("category IN ?", filters.Categories)
	}
	if filters.MinPrice != nil {
		q = q.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		q = q.Where("price <= ?", *filters.MaxPrice)
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		pattern := containsPattern(term)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return q
}

// Search runs a case-insensitive substring match across title, description,
// category and brand, in id order.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	pattern := containsPattern(query)
	q := r.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`+
			` OR LOWER(description) LIKE ? ESCAPE '\'`+
			` OR LOWER(category) LIKE ? ESCAPE '\'`+
			` OR LOWER(COALESCE(brand, '')) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Product
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type priceBounds struct {
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
}

// Facets returns the sorted distinct categories and the overall price range.
func (r *Repository) Facets(ctx context.Context) ([]string, decimal.Decimal, decimal.Decimal, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category <> ''").
		Distinct("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}
	sort.Strings(categories)

	var bounds priceBounds
	err = r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("MIN(price) AS min_price, MAX(price) AS max_price").
		Scan(&bounds).Error
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}
	return categories, bounds.MinPrice.Decimal, bounds.MaxPrice.Decimal, nil
}

// Upsert inserts products, refreshing catalog fields for rows whose id
// already exists. Used by the seeder so re-running it is safe.
func (r *Repository) Upsert(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"sku", "title", "description", "category", "brand", "price",
				"discount_percentage", "rating", "stock", "thumbnail", "images", "tags",
				"warranty_information", "shipping_information", "availability_status",
				"return_policy", "minimum_order_quantity", "updated_at",
			}),
		}).
		CreateInBatches(&products, 100).Error
}

func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
