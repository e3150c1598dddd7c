package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
	"github.com/mamadbah2/lotprice/internal/service/features"
	"github.com/mamadbah2/lotprice/pkg/clients/model"
)

// highDemandDays is the holiday distance at which demand is considered peaking.
const highDemandDays = 3

// ErrInvalidMargin is returned for margin rates outside [0, 1].
var ErrInvalidMargin = errors.New("margin rate must be between 0 and 1")

// ErrPriceModel wraps failures of the external price model.
var ErrPriceModel = errors.New("price model unavailable")

// FeatureComputer builds the model inputs of a lot.
type FeatureComputer interface {
	ComputeWithOptions(ctx context.Context, lotID int64, opts features.Options) (*models.FeatureBundle, error)
}

// Request asks for a price suggestion. A nil MarginRate uses the service default.
type Request struct {
	LotID      int64    `json:"id_lote" binding:"required"`
	MarginRate *float64 `json:"margen_rate"`
}

// Service turns a lot's features into a suggested resale price.
type Service struct {
	features      FeatureComputer
	model         model.Client
	recorder      ports.PredictionRecorder
	archive       ports.SnapshotArchive
	defaultMargin float64
	logger        *zap.Logger
	now           func() time.Time
}

// NewService wires a pricing service. archive may be nil.
func NewService(fc FeatureComputer, client model.Client, recorder ports.PredictionRecorder, archive ports.SnapshotArchive, defaultMargin float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		features:      fc,
		model:         client,
		recorder:      recorder,
		archive:       archive,
		defaultMargin: defaultMargin,
		logger:        logger,
		now:           time.Now,
	}
}

// Suggest predicts the lot's price per kg, applies the margin and records the result.
func (s *Service) Suggest(ctx context.Context, req Request) (*models.PricePrediction, error) {
	margin := s.defaultMargin
	if req.MarginRate != nil {
		margin = *req.MarginRate
	}
	if margin < 0 || margin > 1 {
		return nil, ErrInvalidMargin
	}

	bundle, err := s.features.ComputeWithOptions(ctx, req.LotID, features.Options{WithDetail: true})
	if err != nil {
		return nil, err
	}

	resp, err := s.model.Predict(ctx, model.PredictRequest{FeatureSet: bundle.Version, Features: bundle.Features})
	if err != nil {
		return nil, fmt.Errorf("predict lot %d: %w: %w", req.LotID, ErrPriceModel, err)
	}

	prediction := quote(bundle, resp, margin)
	prediction.ID = uuid.NewString()
	prediction.CreatedAt = s.now().UTC()

	if err := s.recorder.SavePrediction(ctx, prediction); err != nil {
		return nil, fmt.Errorf("record prediction for lot %d: %w", req.LotID, err)
	}
	s.archivePrediction(ctx, bundle, prediction)

	s.logger.Info("price suggested",
		zap.Int64("lot_id", req.LotID),
		zap.String("prediction_id", prediction.ID),
		zap.Float64("predicted_kg", prediction.PredictedPricePerKg),
		zap.Float64("suggested_kg", prediction.SuggestedPricePerKg))

	return &prediction, nil
}

func (s *Service) archivePrediction(ctx context.Context, bundle *models.FeatureBundle, prediction models.PricePrediction) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveFeatureSnapshot(ctx, models.SnapshotOf(prediction.ID, *bundle, prediction.CreatedAt)); err != nil {
		s.logger.Warn("failed to archive feature snapshot", zap.Int64("lot_id", bundle.LotID), zap.Error(err))
	}
	if err := s.archive.SavePrediction(ctx, prediction); err != nil {
		s.logger.Warn("failed to archive prediction", zap.Int64("lot_id", bundle.LotID), zap.Error(err))
	}
}

// quote derives every money figure of a prediction, rounded to cents.
func quote(bundle *models.FeatureBundle, resp *model.PredictResponse, margin float64) models.PricePrediction {
	predicted := decimal.NewFromFloat(resp.PricePerKg)
	marginPerKg := predicted.Mul(decimal.NewFromFloat(margin))
	suggested := predicted.Add(marginPerKg)

	output := decimal.NewFromFloat(bundle.Extras.OutputKilos)
	revenue := suggested.Mul(output)
	cost := decimal.NewFromFloat(bundle.Extras.FixedCostTotal).Add(decimal.NewFromFloat(bundle.Extras.VariableCostTotal))

	return models.PricePrediction{
		LotID:               bundle.LotID,
		FeatureSet:          bundle.Version,
		Model:               resp.Model,
		ModelMAE:            resp.MAE,
		PredictedPricePerKg: cents(predicted),
		MarginRate:          margin,
		MarginPerKg:         cents(marginPerKg),
		SuggestedPricePerKg: cents(suggested),
		OutputKilos:         cents(output),
		ExpectedRevenue:     cents(revenue),
		TotalCost:           cents(cost),
		NetProfit:           cents(revenue.Sub(cost)),
		Seasonality:         seasonality(bundle.Features),
		Features:            bundle.Features,
	}
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func seasonality(f models.Features) string {
	upcoming, ok := f.Get("es_feriado_proximo")
	if !ok || upcoming == 0 {
		return ""
	}
	days, _ := f.Get("dias_para_festividad")
	if int(days) <= highDemandDays {
		return fmt.Sprintf("Ajuste aplicado: festividad en %d días (alta demanda)", int(days))
	}
	return fmt.Sprintf("Festividad próxima en %d días", int(days))
}
