package models

import "time"

// DefaultMarginRate is the resale margin applied when callers do not provide one.
const DefaultMarginRate = 0.10

// PricePrediction is a suggested sale price for a lot.
type PricePrediction struct {
	ID                  string            `json:"id" bson:"_id"`
	LotID               int64             `json:"id_lote" bson:"lot_id"`
	FeatureSet          FeatureSetVersion `json:"version_features" bson:"feature_set"`
	Model               string            `json:"modelo,omitempty" bson:"model,omitempty"`
	ModelMAE            float64           `json:"mae_modelo,omitempty" bson:"model_mae,omitempty"`
	PredictedPricePerKg float64           `json:"precio_predicho_kg" bson:"predicted_price_per_kg"`
	MarginRate          float64           `json:"margen_rate" bson:"margin_rate"`
	MarginPerKg         float64           `json:"margen_valor_kg" bson:"margin_per_kg"`
	SuggestedPricePerKg float64           `json:"precio_sugerido_kg" bson:"suggested_price_per_kg"`
	OutputKilos         float64           `json:"kilos_salida" bson:"output_kilos"`
	ExpectedRevenue     float64           `json:"ingreso_esperado" bson:"expected_revenue"`
	TotalCost           float64           `json:"costo_total" bson:"total_cost"`
	NetProfit           float64           `json:"utilidad_neta" bson:"net_profit"`
	Seasonality         string            `json:"estacionalidad" bson:"seasonality"`
	Features            Features          `json:"features" bson:"-"`
	CreatedAt           time.Time         `json:"creado_en" bson:"created_at"`
}
