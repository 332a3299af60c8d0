package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var expectedTables = []string{
	"stocks",
	"price_data_daily",
	"holdings",
	"alerts",
	"alert_history",
	"technical_indicators",
	"forecasts",
	"forecast_points",
}

func TestSQLiteMigrations(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		for _, tableName := range expectedTables {
			var count int
			err := testDB.GetRawConn().QueryRow(
				`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, tableName,
			).Scan(&count)
			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.Equal(t, 1, count, "table %s should exist", tableName)
		}
	})

	t.Run("version is recorded", func(t *testing.T) {
		version, dirty, err := testDB.MigrationVersion()
		require.NoError(t, err)
		assert.Equal(t, uint(1), version)
		assert.False(t, dirty)
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		require.NoError(t, testDB.Migrate())
	})

	t.Run("down drops everything", func(t *testing.T) {
		require.NoError(t, testDB.MigrateDown())

		var count int
		err := testDB.GetRawConn().QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'alerts'`,
		).Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count)

		require.NoError(t, testDB.Migrate())
	})
}

func TestPostgresMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupPostgresTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("holdings table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"id":             "integer",
			"username":       "character varying",
			"symbol":         "character varying",
			"quantity":       "numeric",
			"purchase_price": "numeric",
			"purchase_date":  "date",
			"created_at":     "timestamp without time zone",
			"updated_at":     "timestamp without time zone",
		}

		for colName, expectedType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type
				FROM information_schema.columns
				WHERE table_name = 'holdings' AND column_name = $1
			`, colName).Scan(&actualType)

			require.NoError(t, err, "column %s should exist in holdings table", colName)
			assert.Equal(t, expectedType, actualType, "column %s should have type %s", colName, expectedType)
		}
	})

	t.Run("repositories work against postgres", func(t *testing.T) {
		h := newHolding("alice", "AAPL", "10", "150.25")
		require.NoError(t, testDB.CreateHolding(h))

		got, err := testDB.GetHolding("alice", h.ID)
		require.NoError(t, err)
		assert.True(t, h.Quantity.Equal(got.Quantity))
		assert.True(t, h.PurchasePrice.Equal(got.PurchasePrice))
		assert.True(t, h.PurchaseDate.Equal(got.PurchaseDate))

		a := newAlert("alice", "AAPL", ">=", "100")
		require.NoError(t, testDB.CreateAlert(a))
		_, ok, err := testDB.TriggerAlert(a, mustDecimal("101"), "hit")
		require.NoError(t, err)
		assert.True(t, ok)
		_, ok, err = testDB.TriggerAlert(a, mustDecimal("102"), "hit again")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
