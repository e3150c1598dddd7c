package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/service/features"
	"github.com/mamadbah2/lotprice/internal/service/pricing"
)

// FeatureService computes lot features.
type FeatureService interface {
	ComputeWithOptions(ctx context.Context, lotID int64, opts features.Options) (*models.FeatureBundle, error)
}

// PricingService suggests sale prices.
type PricingService interface {
	Suggest(ctx context.Context, req pricing.Request) (*models.PricePrediction, error)
}

// SnapshotReader loads archived bundles.
type SnapshotReader interface {
	LatestSnapshot(ctx context.Context, lotID int64) (*models.FeatureSnapshot, error)
}

// LotHandler exposes lot features and price suggestions over HTTP.
type LotHandler struct {
	features  FeatureService
	pricing   PricingService
	snapshots SnapshotReader
	logger    *zap.Logger
}

// NewLotHandler constructs the HTTP handler adapter. pricingSvc and snapshots may be nil.
func NewLotHandler(featureSvc FeatureService, pricingSvc PricingService, snapshots SnapshotReader, logger *zap.Logger) *LotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LotHandler{features: featureSvc, pricing: pricingSvc, snapshots: snapshots, logger: logger}
}

// Features returns the feature vector of a lot. Query parameters:
// detalle=true adds the breakdown, desde/hasta (YYYY-MM-DD, inclusive) limit
// the recorded costs and version selects the feature set.
func (h *LotHandler) Features(c *gin.Context) {
	lotID, ok := h.lotID(c)
	if !ok {
		return
	}

	opts := features.Options{WithDetail: c.Query("detalle") == "true"}

	version, err := models.ParseFeatureSetVersion(c.Query("version"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if c.Query("version") != "" {
		opts.Version = version
	}

	window, err := models.ParseDayWindow(c.Query("desde"), c.Query("hasta"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fechas inválidas, use YYYY-MM-DD"})
		return
	}
	opts.CostWindow = window

	bundle, err := h.features.ComputeWithOptions(c.Request.Context(), lotID, opts)
	if err != nil {
		h.fail(c, lotID, err)
		return
	}

	c.JSON(http.StatusOK, bundle)
}

// Predict suggests a sale price for the lot in the request body.
func (h *LotHandler) Predict(c *gin.Context) {
	if h.pricing == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "modelo de precios no configurado"})
		return
	}

	var req pricing.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid predict payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	prediction, err := h.pricing.Suggest(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidMargin) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, pricing.ErrPriceModel) {
			h.logger.Error("price model failed", zap.Int64("lot_id", req.LotID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "modelo de precios no disponible"})
			return
		}
		h.fail(c, req.LotID, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

// LatestSnapshot returns the most recently archived bundle of a lot.
func (h *LotHandler) LatestSnapshot(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archivo de snapshots no configurado"})
		return
	}

	lotID, ok := h.lotID(c)
	if !ok {
		return
	}

	snapshot, err := h.snapshots.LatestSnapshot(c.Request.Context(), lotID)
	if err != nil {
		h.fail(c, lotID, err)
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Snapshot no encontrado"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *LotHandler) lotID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id de lote inválido"})
		return 0, false
	}
	return id, true
}

func (h *LotHandler) fail(c *gin.Context, lotID int64, err error) {
	if errors.Is(err, features.ErrLotNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lote no encontrado"})
		return
	}
	if errors.Is(err, features.ErrUnknownFeatureSet) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("lot request failed", zap.Int64("lot_id", lotID), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
