package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FeatureSetVersion names a fixed, ordered list of model inputs.
type FeatureSetVersion string

const (
	// FeatureSetV1 is the legacy compact set driven by the recorded cost ledger.
	FeatureSetV1 FeatureSetVersion = "v1"
	// FeatureSetV2 is the full 24-field set the current price model is trained on.
	FeatureSetV2 FeatureSetVersion = "v2"
)

// ParseFeatureSetVersion validates a version string, defaulting to FeatureSetV2 when empty.
func ParseFeatureSetVersion(raw string) (FeatureSetVersion, error) {
	switch FeatureSetVersion(raw) {
	case "":
		return FeatureSetV2, nil
	case FeatureSetV1, FeatureSetV2:
		return FeatureSetVersion(raw), nil
	default:
		return "", fmt.Errorf("unknown feature set version %q", raw)
	}
}

// Features is an ordered name to value mapping. The order is the model's input order.
type Features struct {
	names  []string
	values []float64
	index  map[string]int
}

// NewFeatures builds an ordered feature vector. names and values must have equal length.
func NewFeatures(names []string, values []float64) Features {
	if len(names) != len(values) {
		panic(fmt.Sprintf("features: %d names for %d values", len(names), len(values)))
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		index[name] = i
	}
	return Features{
		names:  append([]string(nil), names...),
		values: append([]float64(nil), values...),
		index:  index,
	}
}

// Len returns the number of features.
func (f Features) Len() int { return len(f.names) }

// Names returns the feature names in order.
func (f Features) Names() []string { return append([]string(nil), f.names...) }

// Values returns the feature values in order.
func (f Features) Values() []float64 { return append([]float64(nil), f.values...) }

// Get returns the value of name and whether it exists.
func (f Features) Get(name string) (float64, bool) {
	i, ok := f.index[name]
	if !ok {
		return 0, false
	}
	return f.values[i], true
}

// MarshalJSON writes the features as a JSON object preserving order.
func (f Features) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range f.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.values[i])
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Extras carries non-model values useful to callers.
type Extras struct {
	LogisticsTotal    float64 `json:"costo_logistica_total" bson:"logistics_total"`
	FixedCostTotal    float64 `json:"costo_fijo_total" bson:"fixed_cost_total"`
	VariableCostTotal float64 `json:"costo_variable_total" bson:"variable_cost_total"`
	EntryKilos        float64 `json:"kilos_entrada" bson:"entry_kilos"`
	OutputKilos       float64 `json:"peso_salida_total" bson:"output_kilos"`
	Origin            string  `json:"ubicacion_origen" bson:"origin"`
	DistanceKm        float64 `json:"distancia_km" bson:"distance_km"`
	TripsInMonth      int     `json:"viajes_mes" bson:"trips_in_month"`
}

// CostTypeTotal aggregates the recorded costs of one cost type.
type CostTypeTotal struct {
	Category CostCategory `json:"categoria" bson:"category"`
	Amount   float64      `json:"monto" bson:"amount"`
	Count    int          `json:"registros" bson:"count"`
}

// Detail is the human readable breakdown of a computation.
type Detail struct {
	ByGroup    map[string]map[string]float64 `json:"por_grupo" bson:"by_group"`
	ByCostType map[string]CostTypeTotal      `json:"por_tipo_costo" bson:"by_cost_type"`
	ByCategory map[CostCategory]float64      `json:"por_categoria" bson:"by_category"`
}

// FeatureBundle is the result of computing features for one lot.
type FeatureBundle struct {
	LotID    int64             `json:"id_lote"`
	Version  FeatureSetVersion `json:"version"`
	Features Features          `json:"features"`
	Extras   Extras            `json:"extras"`
	Detail   *Detail           `json:"detalle,omitempty"`
}

// FeatureSnapshot is the archived form of a bundle.
type FeatureSnapshot struct {
	ID         string             `bson:"_id" json:"id"`
	LotID      int64              `bson:"lot_id" json:"id_lote"`
	Version    FeatureSetVersion  `bson:"version" json:"version"`
	Features   map[string]float64 `bson:"features" json:"features"`
	Order      []string           `bson:"order" json:"orden"`
	Extras     Extras             `bson:"extras" json:"extras"`
	Detail     *Detail            `bson:"detail,omitempty" json:"detalle,omitempty"`
	ComputedAt time.Time          `bson:"computed_at" json:"calculado_en"`
	CreatedAt  time.Time          `bson:"created_at" json:"creado_en"`
}

// Map returns the features as an unordered map.
func (f Features) Map() map[string]float64 {
	out := make(map[string]float64, len(f.names))
	for i, name := range f.names {
		out[name] = f.values[i]
	}
	return out
}

// SnapshotOf converts a bundle into its archived form.
func SnapshotOf(id string, bundle FeatureBundle, at time.Time) FeatureSnapshot {
	return FeatureSnapshot{
		ID:         id,
		LotID:      bundle.LotID,
		Version:    bundle.Version,
		Features:   bundle.Features.Map(),
		Order:      bundle.Features.Names(),
		Extras:     bundle.Extras,
		Detail:     bundle.Detail,
		ComputedAt: at,
		CreatedAt:  at,
	}
}
