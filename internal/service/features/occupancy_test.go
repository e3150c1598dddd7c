package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/lotprice/internal/domain/models"
)

func TestOccupancyEstimator_Window(t *testing.T) {
	center := date(2025, time.May, 15)
	store := &fakeStore{lots: []models.Lot{
		{ID: 1, AcquiredAt: center.AddDate(0, 0, -7), AnimalCount: 100},
		{ID: 2, AcquiredAt: center, AnimalCount: 150},
		{ID: 3, AcquiredAt: center.AddDate(0, 0, 7), AnimalCount: 50},
		{ID: 4, AcquiredAt: center.AddDate(0, 0, -8), AnimalCount: 400},
		{ID: 5, AcquiredAt: center.AddDate(0, 0, 8), AnimalCount: 400},
	}}

	factor, err := NewOccupancyEstimator(store, DefaultEngineConfig()).OccupancyFactor(context.Background(), center)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, factor, 1e-9)
}

func TestOccupancyEstimator_ClampsToOne(t *testing.T) {
	center := date(2025, time.May, 15)
	store := &fakeStore{lots: []models.Lot{
		{ID: 1, AcquiredAt: center, AnimalCount: 900},
		{ID: 2, AcquiredAt: center.AddDate(0, 0, 1), AnimalCount: 900},
	}}

	factor, err := NewOccupancyEstimator(store, DefaultEngineConfig()).OccupancyFactor(context.Background(), center)
	require.NoError(t, err)
	assert.Equal(t, 1.0, factor)
}

func TestOccupancyEstimator_ZeroCapacityIsFloored(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.FarmCapacity = 0
	store := &fakeStore{}

	factor, err := NewOccupancyEstimator(store, cfg).OccupancyFactor(context.Background(), date(2025, time.May, 15))
	require.NoError(t, err)
	assert.Zero(t, factor)
}
