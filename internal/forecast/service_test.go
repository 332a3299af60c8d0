package forecast

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-tracker/internal/database"
	"github.com/trogers1052/stock-tracker/internal/marketdata"
	"github.com/trogers1052/stock-tracker/internal/models"
)

type mockMarket struct {
	series  map[string]*models.PriceSeries
	periods []string
}

func (m *mockMarket) History(_ context.Context, symbol, period string) (*models.PriceSeries, error) {
	m.periods = append(m.periods, period)
	s, ok := m.series[symbol]
	if !ok {
		return nil, marketdata.ErrNoData
	}
	return s, nil
}

func setupStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "forecast.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()
	market := &mockMarket{series: map[string]*models.PriceSeries{"SYN": syntheticSeries("SYN", 120)}}
	svc := NewService(market, setupStore(t), Config{Seed: DefaultSeed, MaxDays: 30})

	f, err := svc.Run(ctx, "alice", " syn ", "Linear Regression", 5)
	require.NoError(t, err)
	assert.NotZero(t, f.ID)
	assert.Equal(t, "alice", f.Username)
	assert.Equal(t, []string{"2y"}, market.periods)

	saved, err := svc.Get("alice", f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModelLinearRegression, saved.Model)
	assert.InDelta(t, f.MAE, saved.MAE, 1e-9)
	require.Len(t, saved.Points, 5)
	for i := range saved.Points {
		assert.True(t, f.Points[i].Date.Equal(saved.Points[i].Date))
		assert.InDelta(t, f.Points[i].Close, saved.Points[i].Close, 1e-9)
	}

	runs, err := svc.List("alice", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	_, err = svc.Get("bob", f.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	require.NoError(t, svc.Delete("alice", f.ID))
	assert.ErrorIs(t, svc.Delete("alice", f.ID), database.ErrNotFound)
}

func TestService_Run_errors(t *testing.T) {
	ctx := context.Background()
	market := &mockMarket{series: map[string]*models.PriceSeries{"SYN": syntheticSeries("SYN", 60)}}
	svc := NewService(market, nil, Config{MaxDays: 10})

	_, err := svc.Run(ctx, "alice", "SYN", models.ModelLinearRegression, 11)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = svc.Run(ctx, "alice", "SYN", "prophet", 1)
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = svc.Run(ctx, "alice", "NOPE", models.ModelLinearRegression, 1)
	assert.ErrorIs(t, err, marketdata.ErrNoData)

	_, err = svc.Run(ctx, "alice", "SYN", models.ModelGradientBoosting, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)

	f, err := svc.Run(ctx, "alice", "SYN", models.ModelLinearRegression, 2)
	require.NoError(t, err)
	assert.Zero(t, f.ID, "runs are not saved without a store")
}

func TestService_withoutStore(t *testing.T) {
	svc := NewService(&mockMarket{}, nil, Config{})

	_, err := svc.Get("alice", 1)
	assert.ErrorIs(t, err, database.ErrNotFound)

	runs, err := svc.List("alice", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	assert.ErrorIs(t, svc.Delete("alice", 1), database.ErrNotFound)
}
