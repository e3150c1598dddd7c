package features

import (
	"context"
	"math"
	"time"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
)

// OccupancyEstimator measures how full the farm is around a date.
type OccupancyEstimator struct {
	store ports.LotStore
	cfg   EngineConfig
}

// NewOccupancyEstimator builds an estimator over store.
func NewOccupancyEstimator(store ports.LotStore, cfg EngineConfig) *OccupancyEstimator {
	return &OccupancyEstimator{store: store, cfg: cfg}
}

// OccupancyFactor returns the animals acquired within the window around date
// divided by farm capacity, clamped to [0, 1].
func (o *OccupancyEstimator) OccupancyFactor(ctx context.Context, date time.Time) (float64, error) {
	days := o.cfg.OccupancyWindowDays
	lots, err := o.store.ListLots(ctx, models.DaysAround(date, days, days))
	if err != nil {
		return 0, err
	}

	animals := 0
	for _, l := range lots {
		if l.AnimalCount > 0 {
			animals += l.AnimalCount
		}
	}

	capacity := o.cfg.FarmCapacity
	if capacity < 1 {
		capacity = 1
	}
	return math.Min(float64(animals)/float64(capacity), 1), nil
}
