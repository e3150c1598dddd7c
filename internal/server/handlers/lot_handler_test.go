package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/service/features"
	"github.com/mamadbah2/lotprice/internal/service/pricing"
)

type stubFeatures struct {
	bundle *models.FeatureBundle
	err    error
	opts   features.Options
	lotID  int64
}

func (s *stubFeatures) ComputeWithOptions(_ context.Context, lotID int64, opts features.Options) (*models.FeatureBundle, error) {
	s.lotID = lotID
	s.opts = opts
	return s.bundle, s.err
}

type stubPricing struct {
	prediction *models.PricePrediction
	err        error
	req        pricing.Request
}

func (s *stubPricing) Suggest(_ context.Context, req pricing.Request) (*models.PricePrediction, error) {
	s.req = req
	return s.prediction, s.err
}

type stubSnapshots struct {
	snapshot *models.FeatureSnapshot
	err      error
}

func (s *stubSnapshots) LatestSnapshot(context.Context, int64) (*models.FeatureSnapshot, error) {
	return s.snapshot, s.err
}

func newTestEngine(h *LotHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/lots/:id/features", h.Features)
	r.GET("/lots/:id/snapshot", h.LatestSnapshot)
	r.POST("/lots/predict", h.Predict)
	return r
}

func perform(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleBundle() *models.FeatureBundle {
	return &models.FeatureBundle{
		LotID:    7,
		Version:  models.FeatureSetV2,
		Features: models.NewFeatures([]string{"cantidad_animales", "peso_salida"}, []float64{50, 5090}),
		Extras:   models.Extras{Origin: "Santa Cruz", DistanceKm: 350},
	}
}

func TestLotHandler_Features(t *testing.T) {
	fs := &stubFeatures{bundle: sampleBundle()}
	r := newTestEngine(NewLotHandler(fs, nil, nil, nil))

	w := perform(r, http.MethodGet, "/lots/7/features?detalle=true&desde=2025-01-01&hasta=2025-01-31", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, int64(7), fs.lotID)
	assert.True(t, fs.opts.WithDetail)
	assert.Empty(t, fs.opts.Version)
	require.NotNil(t, fs.opts.CostWindow)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), fs.opts.CostWindow.From)
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), fs.opts.CostWindow.To)

	assert.True(t, strings.Contains(w.Body.String(), `"features":{"cantidad_animales":50,"peso_salida":5090}`), w.Body.String())
}

func TestLotHandler_FeaturesVersionAndErrors(t *testing.T) {
	fs := &stubFeatures{bundle: sampleBundle()}
	r := newTestEngine(NewLotHandler(fs, nil, nil, nil))

	w := perform(r, http.MethodGet, "/lots/7/features?version=v1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FeatureSetV1, fs.opts.Version)
	assert.Nil(t, fs.opts.CostWindow)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/lots/7/features?version=v9", "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/lots/abc/features", "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/lots/0/features", "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/lots/7/features?desde=01-02-2025", "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/lots/7/features?desde=2025-02-01&hasta=2025-01-01", "").Code)

	fs.err = features.ErrLotNotFound
	w = perform(r, http.MethodGet, "/lots/99/features", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Lote no encontrado"}`, w.Body.String())

	fs.err = errors.New("connection reset")
	assert.Equal(t, http.StatusInternalServerError, perform(r, http.MethodGet, "/lots/7/features", "").Code)
}

func TestLotHandler_Predict(t *testing.T) {
	ps := &stubPricing{prediction: &models.PricePrediction{ID: "p-1", LotID: 7, SuggestedPricePerKg: 25}}
	r := newTestEngine(NewLotHandler(&stubFeatures{}, ps, nil, nil))

	w := perform(r, http.MethodPost, "/lots/predict", `{"id_lote":7,"margen_rate":0.2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(7), ps.req.LotID)
	require.NotNil(t, ps.req.MarginRate)
	assert.Equal(t, 0.2, *ps.req.MarginRate)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 25.0, body["precio_sugerido_kg"])

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/lots/predict", `{"margen_rate":0.2}`).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/lots/predict", `not json`).Code)

	cases := map[error]int{
		pricing.ErrInvalidMargin: http.StatusBadRequest,
		features.ErrLotNotFound:  http.StatusNotFound,
		pricing.ErrPriceModel:    http.StatusBadGateway,
		errors.New("db down"):    http.StatusInternalServerError,
	}
	for err, status := range cases {
		ps.err = err
		assert.Equal(t, status, perform(r, http.MethodPost, "/lots/predict", `{"id_lote":7}`).Code, err.Error())
	}
}

func TestLotHandler_PredictWithoutModel(t *testing.T) {
	r := newTestEngine(NewLotHandler(&stubFeatures{}, nil, nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodPost, "/lots/predict", `{"id_lote":7}`).Code)
}

func TestLotHandler_LatestSnapshot(t *testing.T) {
	r := newTestEngine(NewLotHandler(&stubFeatures{}, nil, nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodGet, "/lots/7/snapshot", "").Code)

	snaps := &stubSnapshots{}
	r = newTestEngine(NewLotHandler(&stubFeatures{}, nil, snaps, nil))
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/lots/7/snapshot", "").Code)

	snaps.snapshot = &models.FeatureSnapshot{ID: "s-1", LotID: 7, Version: models.FeatureSetV2}
	w := perform(r, http.MethodGet, "/lots/7/snapshot", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"s-1"`)
}
