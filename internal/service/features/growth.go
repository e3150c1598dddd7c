package features

import "github.com/mamadbah2/lotprice/internal/domain/models"

// GrowthEstimate is the expected output weight of a lot.
type GrowthEstimate struct {
	TransportLossKg float64
	OutputKg        float64
	FromProduction  bool
	Floored         bool
}

// GrowthModel projects weight gain during the stay.
type GrowthModel struct {
	cfg EngineConfig
}

// NewGrowthModel builds a growth model.
func NewGrowthModel(cfg EngineConfig) *GrowthModel {
	return &GrowthModel{cfg: cfg}
}

// ExpectedOutput returns the total output weight of lot. A recorded production
// weight wins; otherwise gain is linear in the stay. The result is never below
// zero: a non-positive projection falls back to the entry weight.
func (g *GrowthModel) ExpectedOutput(lot models.Lot, production *models.Production) GrowthEstimate {
	animals := float64(lot.AnimalCount)
	entry := lot.EntryKilos()

	recordedLoss, hasRecordedLoss := recorded(lot.TransportLossKg)
	loss := recordedLoss
	if !hasRecordedLoss {
		loss = animals * g.cfg.TransportLossPerHeadKg
	}

	est := GrowthEstimate{TransportLossKg: loss}

	if production != nil && production.SoldKg != nil && *production.SoldKg > 0 {
		est.OutputKg = *production.SoldKg
		est.FromProduction = true
		return est
	}

	stay := lot.Stay()
	if stay > 0 {
		est.OutputKg = (lot.EntryWeightKg+g.cfg.DailyGainKg*float64(stay))*animals - loss
	} else {
		est.OutputKg = entry - recordedLoss
	}

	if est.OutputKg <= 0 {
		est.OutputKg = entry
		est.Floored = true
	}
	return est
}
