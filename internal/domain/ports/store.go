package ports

import (
	"context"

	"github.com/mamadbah2/lotprice/internal/domain/models"
)

// LotStore is the read-only view of the farm database the feature engine needs.
// FindLot and FindProduction return (nil, nil) when the row does not exist.
type LotStore interface {
	FindLot(ctx context.Context, lotID int64) (*models.Lot, error)
	FindProduction(ctx context.Context, lotID int64) (*models.Production, error)
	ListCosts(ctx context.Context, lotID int64, window *models.DateRange) ([]models.Cost, error)
	ListMonthlyExpenses(ctx context.Context, month, year int) ([]models.MonthlyExpense, error)
	ListLots(ctx context.Context, window models.DateRange) ([]models.Lot, error)
	ListHolidays(ctx context.Context, window models.DateRange) ([]models.Holiday, error)
}

// SnapshotStore is a LotStore able to run a sequence of reads against one consistent view.
type SnapshotStore interface {
	LotStore
	WithSnapshot(ctx context.Context, fn func(LotStore) error) error
}

// PredictionRecorder persists price predictions.
type PredictionRecorder interface {
	SavePrediction(ctx context.Context, prediction models.PricePrediction) error
}

// SnapshotArchive keeps computed bundles and predictions for later auditing.
type SnapshotArchive interface {
	PredictionRecorder
	SaveFeatureSnapshot(ctx context.Context, snapshot models.FeatureSnapshot) error
}

// DatasetSink receives one row per computed bundle.
type DatasetSink interface {
	EnsureHeader(ctx context.Context, header []string) error
	AppendRow(ctx context.Context, values []interface{}) error
}
