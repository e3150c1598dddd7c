package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
	"github.com/mamadbah2/lotprice/internal/service/features"
)

const dateLayout = "2006-01-02"

// FeatureComputer builds the feature bundle of a lot.
type FeatureComputer interface {
	Compute(ctx context.Context, lotID int64, withDetail bool) (*models.FeatureBundle, error)
	Version() models.FeatureSetVersion
}

// LotLister lists lots by acquisition date.
type LotLister interface {
	ListLots(ctx context.Context, window models.DateRange) ([]models.Lot, error)
}

// Summary reports the outcome of one export run.
type Summary struct {
	From     time.Time
	To       time.Time
	Exported int
	Failed   int
}

// String renders the summary for logs and the CLI.
func (s Summary) String() string {
	if s.Exported == 0 && s.Failed == 0 {
		return fmt.Sprintf("Dataset export (%s-%s): no lots acquired.", s.From.Format(dateLayout), s.To.Format(dateLayout))
	}
	return fmt.Sprintf("Dataset export (%s-%s): %d lots exported, %d failed.", s.From.Format(dateLayout), s.To.Format(dateLayout), s.Exported, s.Failed)
}

// Service writes computed features to the training dataset and the snapshot archive.
type Service struct {
	lots     LotLister
	features FeatureComputer
	sink     ports.DatasetSink
	archive  ports.SnapshotArchive
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewService wires a new export service instance. sink and archive may be nil.
func NewService(lots LotLister, fc FeatureComputer, sink ports.DatasetSink, archive ports.SnapshotArchive, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{lots: lots, features: fc, sink: sink, archive: archive, logger: logger, loc: time.UTC, now: time.Now}
}

// InLocation sets the timezone that decides which calendar day "yesterday" is.
func (s *Service) InLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Header returns the dataset columns: lot id, acquisition date, version, then the features.
func (s *Service) Header() []string {
	return append([]string{"id_lote", "fecha_adquisicion", "version"}, features.FeatureNames(s.features.Version())...)
}

// ExportPreviousDay exports the lots acquired on the calendar day before now,
// as seen in the service location.
func (s *Service) ExportPreviousDay(ctx context.Context) (Summary, error) {
	yesterday := models.Day(s.now().In(s.loc)).AddDate(0, 0, -1)
	return s.ExportRange(ctx, yesterday, yesterday)
}

// ExportRange exports every lot acquired between start and end, both days inclusive.
// A lot that fails to compute is logged and skipped.
func (s *Service) ExportRange(ctx context.Context, start, end time.Time) (Summary, error) {
	window := models.DateRange{From: models.Day(start), To: models.Day(end).AddDate(0, 0, 1)}
	summary := Summary{From: window.From, To: models.Day(end)}

	lots, err := s.lots.ListLots(ctx, window)
	if err != nil {
		return summary, fmt.Errorf("load lots range: %w", err)
	}
	if len(lots) == 0 {
		return summary, nil
	}

	if s.sink != nil {
		if err := s.sink.EnsureHeader(ctx, s.Header()); err != nil {
			return summary, fmt.Errorf("prepare dataset header: %w", err)
		}
	}

	for _, lot := range lots {
		if err := s.exportLot(ctx, lot); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			s.logger.Warn("skip lot in dataset export", zap.Int64("lot_id", lot.ID), zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Exported++
	}

	s.logger.Info("dataset export finished",
		zap.Int("exported", summary.Exported),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *Service) exportLot(ctx context.Context, lot models.Lot) error {
	bundle, err := s.features.Compute(ctx, lot.ID, s.archive != nil)
	if err != nil {
		return err
	}

	if s.sink != nil {
		row := make([]interface{}, 0, 3+bundle.Features.Len())
		row = append(row, lot.ID, lot.AcquiredAt.Format(dateLayout), string(bundle.Version))
		for _, v := range bundle.Features.Values() {
			row = append(row, v)
		}
		if err := s.sink.AppendRow(ctx, row); err != nil {
			return fmt.Errorf("append dataset row: %w", err)
		}
	}

	if s.archive != nil {
		snapshot := models.SnapshotOf(uuid.NewString(), *bundle, s.now().UTC())
		if err := s.archive.SaveFeatureSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("archive snapshot: %w", err)
		}
	}
	return nil
}
