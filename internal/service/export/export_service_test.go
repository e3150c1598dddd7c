package export

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/service/features"
)

type stubLots struct {
	lots   []models.Lot
	window models.DateRange
	err    error
}

func (s *stubLots) ListLots(_ context.Context, window models.DateRange) ([]models.Lot, error) {
	s.window = window
	return s.lots, s.err
}

type stubFeatures struct {
	failFor map[int64]error
	detail  []bool
}

func (s *stubFeatures) Version() models.FeatureSetVersion { return models.FeatureSetV1 }

func (s *stubFeatures) Compute(_ context.Context, lotID int64, withDetail bool) (*models.FeatureBundle, error) {
	s.detail = append(s.detail, withDetail)
	if err := s.failFor[lotID]; err != nil {
		return nil, err
	}
	names := features.FeatureNames(models.FeatureSetV1)
	values := make([]float64, len(names))
	values[0] = float64(lotID * 10)
	return &models.FeatureBundle{LotID: lotID, Version: models.FeatureSetV1, Features: models.NewFeatures(names, values)}, nil
}

type memorySink struct {
	header []string
	rows   [][]interface{}
}

func (m *memorySink) EnsureHeader(_ context.Context, header []string) error {
	if m.header == nil {
		m.header = header
	}
	return nil
}

func (m *memorySink) AppendRow(_ context.Context, values []interface{}) error {
	m.rows = append(m.rows, values)
	return nil
}

type memoryArchive struct {
	snapshots []models.FeatureSnapshot
}

func (m *memoryArchive) SaveFeatureSnapshot(_ context.Context, s models.FeatureSnapshot) error {
	m.snapshots = append(m.snapshots, s)
	return nil
}

func (m *memoryArchive) SavePrediction(context.Context, models.PricePrediction) error { return nil }

func TestService_ExportRange(t *testing.T) {
	lots := &stubLots{lots: []models.Lot{
		{ID: 1, AcquiredAt: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{ID: 2, AcquiredAt: time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)},
		{ID: 3, AcquiredAt: time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)},
	}}
	fc := &stubFeatures{failFor: map[int64]error{2: features.ErrLotNotFound}}
	sink := &memorySink{}
	archive := &memoryArchive{}

	svc := NewService(lots, fc, sink, archive, nil)
	summary, err := svc.ExportRange(context.Background(), time.Date(2025, time.January, 15, 13, 0, 0, 0, time.UTC), time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Exported)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), lots.window.From)
	assert.Equal(t, time.Date(2025, time.January, 17, 0, 0, 0, 0, time.UTC), lots.window.To)

	require.Len(t, sink.header, 13)
	assert.Equal(t, []string{"id_lote", "fecha_adquisicion", "version", "cantidad_animales"}, sink.header[:4])
	require.Len(t, sink.rows, 2)
	assert.Equal(t, []interface{}{int64(1), "2025-01-15", "v1", 10.0}, sink.rows[0][:4])
	assert.Equal(t, int64(3), sink.rows[1][0])

	require.Len(t, archive.snapshots, 2)
	assert.Equal(t, int64(3), archive.snapshots[1].LotID)
	assert.NotEmpty(t, archive.snapshots[0].ID)
	assert.Equal(t, []bool{true, true, true}, fc.detail)
	assert.Contains(t, summary.String(), "2 lots exported, 1 failed")
}

func TestService_ExportPreviousDay(t *testing.T) {
	lots := &stubLots{}
	svc := NewService(lots, &stubFeatures{}, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, time.March, 1, 2, 30, 0, 0, time.UTC) }

	summary, err := svc.ExportPreviousDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), lots.window.From)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), lots.window.To)
	assert.Equal(t, "Dataset export (2025-02-28-2025-02-28): no lots acquired.", summary.String())
}

func TestService_ExportPreviousDayUsesLocation(t *testing.T) {
	laPaz, err := time.LoadLocation("America/La_Paz")
	require.NoError(t, err)

	lots := &stubLots{}
	svc := NewService(lots, &stubFeatures{}, nil, nil, nil).InLocation(laPaz)
	// 02:30 UTC on March 1st is still February 28th, 22:30 in La Paz.
	svc.now = func() time.Time { return time.Date(2025, time.March, 1, 2, 30, 0, 0, time.UTC) }

	_, err = svc.ExportPreviousDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.February, 27, 0, 0, 0, 0, time.UTC), lots.window.From)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), lots.window.To)
}

func TestService_ExportStopsOnCancellation(t *testing.T) {
	lots := &stubLots{lots: []models.Lot{{ID: 1}, {ID: 2}}}
	fc := &stubFeatures{failFor: map[int64]error{1: context.Canceled}}

	_, err := NewService(lots, fc, &memorySink{}, nil, nil).ExportRange(context.Background(), time.Now(), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fc.detail, 1)
}

func TestService_ExportListError(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewService(&stubLots{err: boom}, &stubFeatures{}, nil, nil, nil).ExportRange(context.Background(), time.Now(), time.Now())
	assert.ErrorIs(t, err, boom)
}
