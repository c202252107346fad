package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// UserStore keeps an authenticated user's cart in the cart_items table.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// WithTx returns a store bound to the provided transaction.
func (s *UserStore) WithTx(tx *gorm.DB) *UserStore {
	return &UserStore{db: tx}
}

func (s *UserStore) List(ctx context.Context, userID string) ([]RawLine, error) {
	var rows []models.CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read user cart")
	}
	lines := make([]RawLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, RawLine{ProductID: row.ProductID.String(), Quantity: row.Quantity})
	}
	return lines, nil
}

func (s *UserStore) Upsert(ctx context.Context, userID, productID string, quantity int) error {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	row := models.CartItem{UserID: userID, ProductID: pid, Quantity: quantity}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write user cart")
	}
	return nil
}

func (s *UserStore) Remove(ctx context.Context, userID, productID string) error {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product id")
	}
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, pid).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove user cart line")
	}
	return nil
}

func (s *UserStore) Clear(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear user cart")
	}
	return nil
}
