package sqlstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/lotprice/internal/domain/models"
)

// SavePrediction records a price prediction in the prediccion table.
func (s *Store) SavePrediction(ctx context.Context, p models.PricePrediction) error {
	query := s.db.Rebind(`
INSERT INTO prediccion (referencia, id_lote, precio_sugerido_kg, modelo_usado, ganancia_neta_estimada, mae_error, fecha_prediccion)
VALUES (?, ?, ?, ?, ?, ?, ?)`)

	if _, err := s.ext.ExecContext(ctx, query,
		p.ID, p.LotID, p.SuggestedPricePerKg, p.Model, p.NetProfit, p.ModelMAE, p.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("sqlstore.SavePrediction lot %d: %w", p.LotID, err)
	}

	s.logger.Debug("prediction stored", zap.String("id", p.ID), zap.Int64("lot_id", p.LotID))
	return nil
}
