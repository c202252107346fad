package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpCapturesPgxDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_cart_items_user_product", TableName: "cart_items", Message: "duplicate key value"}
	err := Wrap(CodeDependency, fmt.Errorf("insert: %w", pgErr), "upsert cart line")

	d := Dump(err)
	assert.Equal(t, CodeDependency, d.Code)
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "ux_cart_items_user_product", d.PGConstraint)
	assert.Equal(t, "cart_items", d.PGTable)
	require.Len(t, d.Chain, 3)
}

func TestPostgresCodeFromPQ(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &pq.Error{Code: "23503", Constraint: "fk_orders_user"})

	code, constraint := PostgresCode(err)
	assert.Equal(t, "23503", code)
	assert.Equal(t, "fk_orders_user", constraint)

	code, constraint = PostgresCode(fmt.Errorf("plain"))
	assert.Empty(t, code)
	assert.Empty(t, constraint)
}

func TestDumpNil(t *testing.T) {
	assert.Equal(t, ErrorDump{}, Dump(nil))
}
