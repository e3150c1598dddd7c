package features

import (
	"context"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
)

// Logistics holds the transport costs of a lot.
type Logistics struct {
	Origin           string
	DistanceKm       float64
	Fuel             float64
	TollsWash        float64
	Freight          float64
	TruckMaintenance float64
	TripsInMonth     int
	// Estimated lists the components computed from the fallback formulas.
	Estimated []string
}

// Total is the trip cost; truck maintenance is tracked separately.
func (l Logistics) Total() float64 {
	return l.Freight + l.Fuel + l.TollsWash
}

// LogisticsEstimator returns recorded transport costs or estimates them from distance.
type LogisticsEstimator struct {
	store ports.LotStore
	cfg   EngineConfig
}

// NewLogisticsEstimator builds an estimator over store.
func NewLogisticsEstimator(store ports.LotStore, cfg EngineConfig) *LogisticsEstimator {
	return &LogisticsEstimator{store: store, cfg: cfg}
}

// Estimate fills every logistics component for lot.
func (e *LogisticsEstimator) Estimate(ctx context.Context, lot models.Lot) (Logistics, error) {
	origin := e.cfg.DefaultOrigin
	if lot.Origin != nil && *lot.Origin != "" {
		origin = *lot.Origin
	}
	distance := e.cfg.DistanceKm(origin)

	out := Logistics{Origin: origin, DistanceKm: distance}

	if v, ok := recorded(lot.FuelCost); ok {
		out.Fuel = v
	} else {
		out.Fuel = distance / e.cfg.KmPerLiter * e.cfg.DieselPricePerLiter
		out.Estimated = append(out.Estimated, "fuel")
	}

	if v, ok := recorded(lot.TollsWashCost); ok {
		out.TollsWash = v
	} else {
		out.TollsWash = float64(e.cfg.TollCount)*e.cfg.TollPrice + e.cfg.WashPrice
		out.Estimated = append(out.Estimated, "tolls_wash")
	}

	if v, ok := recorded(lot.FreightCost); ok {
		out.Freight = v
	} else {
		out.Freight = e.cfg.FreightBaseFee + distance*e.cfg.FreightPerKm + float64(lot.AnimalCount)*e.cfg.FreightPerHead
		out.Estimated = append(out.Estimated, "freight")
	}

	lots, err := e.store.ListLots(ctx, models.MonthOf(lot.AcquiredAt))
	if err != nil {
		return Logistics{}, err
	}
	out.TripsInMonth = len(lots)
	if out.TripsInMonth < 1 {
		out.TripsInMonth = 1
	}
	out.TruckMaintenance = e.cfg.TruckMaintenance / float64(out.TripsInMonth)

	return out, nil
}

// recorded treats nil and zero as "not recorded".
func recorded(v *float64) (float64, bool) {
	if v == nil || *v == 0 {
		return 0, false
	}
	return *v, true
}
