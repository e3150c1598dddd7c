package features

import (
	"math"

	"github.com/mamadbah2/lotprice/internal/domain/models"
)

var featureNamesV2 = []string{
	"cantidad_animales",
	"peso_promedio_entrada",
	"precio_compra_kg",
	"costo_adquisicion_total",
	"costo_combustible_viaje",
	"costo_peajes_lavado",
	"costo_flete_estimado",
	"mantenimiento_camion_prorrateado",
	"costo_fijo_diario_lote",
	"factor_ocupacion_granja",
	"tasa_consumo_energia_agua",
	"costo_mano_obra_asignada",
	"duracion_estadia_dias",
	"costo_alimentacion_total",
	"costo_sanitario_total",
	"merma_peso_transporte",
	"peso_salida_esperado",
	"mes_adquisicion",
	"dia_semana_llegada",
	"es_feriado_proximo",
	"dias_para_festividad",
	"costo_operativo_por_cabeza",
	"ratio_alimento_precio_compra",
	"indicador_eficiencia_estadia",
}

var featureNamesV1 = []string{
	"cantidad_animales",
	"peso_promedio_entrada",
	"precio_compra_kg",
	"costo_logistica_total",
	"costo_alimentacion_estadia",
	"duracion_estadia_dias",
	"mes_adquisicion",
	"costo_total_lote",
	"peso_salida",
	"costo_fijo_por_kg",
}

// FeatureNames returns the ordered input names of version, or nil when unknown.
func FeatureNames(version models.FeatureSetVersion) []string {
	switch version {
	case models.FeatureSetV1:
		return append([]string(nil), featureNamesV1...)
	case models.FeatureSetV2:
		return append([]string(nil), featureNamesV2...)
	default:
		return nil
	}
}

// vectorBuilder collects values by name and emits them in the version order.
type vectorBuilder struct {
	values map[string]float64
	// replaced lists names whose value was not finite.
	replaced []string
}

func newVectorBuilder() *vectorBuilder {
	return &vectorBuilder{values: make(map[string]float64)}
}

func (b *vectorBuilder) set(name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		b.replaced = append(b.replaced, name)
		v = 0
	}
	b.values[name] = v
}

func (b *vectorBuilder) build(names []string) models.Features {
	values := make([]float64, len(names))
	for i, name := range names {
		values[i] = b.values[name]
	}
	return models.NewFeatures(names, values)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
