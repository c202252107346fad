package migrate_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.ValidateEmbedded())
}

func TestMigrationsDirOnDiskIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestUpCreatesStorefrontSchemaOnSQLite(t *testing.T) {
	migrate.Quiet()
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, migrate.Up(ctx, db, "sqlite3"))
	for _, table := range []string{"products", "cart_items", "orders", "outbox_events", "outbox_dlq"} {
		assert.Truef(t, tableExists(t, db, table), "expected table %s", table)
	}

	_, err := db.Exec(`INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES ('a', 'u1', 'p1', 1)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES ('b', 'u1', 'p1', 2)`)
	require.Error(t, err, "user/product pair must be unique")
	_, err = db.Exec(`INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES ('c', 'u1', 'p2', 0)`)
	require.Error(t, err, "quantity must be positive")
}

func TestMigrateToVersionRollsBack(t *testing.T) {
	migrate.Quiet()
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, migrate.Up(ctx, db, "sqlite3"))
	require.NoError(t, migrate.MigrateToVersion(ctx, db, "sqlite3", "", "20260105090100"))

	assert.True(t, tableExists(t, db, "products"))
	assert.True(t, tableExists(t, db, "cart_items"))
	assert.False(t, tableExists(t, db, "orders"))
	assert.False(t, tableExists(t, db, "outbox_events"))

	require.Error(t, migrate.MigrateToVersion(ctx, db, "sqlite3", "", "not-a-version"))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Product Ratings!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filepath.Base(path), "_add_product_ratings.sql"))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "-- +goose Down")
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.Error(t, migrate.ValidateDir(dir))
}

func TestCreateSQLMigrationVersionsAreMonotonic(t *testing.T) {
	dir := t.TempDir()

	first, err := migrate.CreateSQLMigration(dir, "first")
	require.NoError(t, err)
	second, err := migrate.CreateSQLMigration(dir, "second")
	require.NoError(t, err)

	v1 := strings.SplitN(filepath.Base(first), "_", 2)[0]
	v2 := strings.SplitN(filepath.Base(second), "_", 2)[0]
	assert.Less(t, v1, v2)
	require.NoError(t, migrate.ValidateDir(dir))
}
