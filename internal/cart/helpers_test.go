package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type memoryKV struct {
	data    map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	default:
		return errors.New("unsupported value type")
	}
	m.lastTTL = ttl
	return nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryKV) DeviceCartKey(deviceID string) string {
	return "sf:cart:device:" + deviceID
}

// flakyStore fails Upsert for the listed product ids and delegates the rest.
type flakyStore struct {
	Store
	failFor map[string]bool
}

func (f *flakyStore) Upsert(ctx context.Context, scope, productID string, quantity int) error {
	if f.failFor[productID] {
		return errors.New("write refused")
	}
	return f.Store.Upsert(ctx, scope, productID, quantity)
}

type catalogFunc func(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)

func (f catalogFunc) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return f(ctx, ids)
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, title, price, discount string) models.Product {
	t.Helper()
	p := models.Product{
		Title:              title,
		Category:           "groceries",
		Price:              decimal.RequireFromString(price),
		DiscountPercentage: decimal.RequireFromString(discount),
		Stock:              25,
	}
	require.NoError(t, conn.Create(&p).Error)
	return p
}
