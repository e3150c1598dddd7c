package features

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
)

// Options tune a single computation.
type Options struct {
	WithDetail bool
	// CostWindow limits the recorded costs read for the ledger.
	CostWindow *models.DateRange
	// Version overrides the configured feature set.
	Version models.FeatureSetVersion
}

// Composer assembles the model input vector of a lot. It holds no per-call state
// and is safe for concurrent use.
type Composer struct {
	store  ports.LotStore
	cfg    EngineConfig
	logger *zap.Logger
}

// NewComposer wires a composer over store.
func NewComposer(store ports.LotStore, cfg EngineConfig, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{store: store, cfg: cfg, logger: logger}
}

// Version returns the feature set produced when callers do not override it.
func (c *Composer) Version() models.FeatureSetVersion {
	if c.cfg.FeatureSet == "" {
		return models.FeatureSetV2
	}
	return c.cfg.FeatureSet
}

// Compute returns the feature bundle of lotID using the configured feature set.
func (c *Composer) Compute(ctx context.Context, lotID int64, withDetail bool) (*models.FeatureBundle, error) {
	return c.ComputeWithOptions(ctx, lotID, Options{WithDetail: withDetail})
}

// ComputeWithOptions returns the feature bundle of lotID. When the store supports
// snapshots every read happens inside one consistent view.
func (c *Composer) ComputeWithOptions(ctx context.Context, lotID int64, opts Options) (*models.FeatureBundle, error) {
	version := opts.Version
	if version == "" {
		version = c.Version()
	}
	if FeatureNames(version) == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeatureSet, version)
	}

	snapshots, ok := c.store.(ports.SnapshotStore)
	if !ok {
		return c.compute(ctx, c.store, lotID, version, opts)
	}

	var bundle *models.FeatureBundle
	err := snapshots.WithSnapshot(ctx, func(store ports.LotStore) error {
		var err error
		bundle, err = c.compute(ctx, store, lotID, version, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// computation holds every intermediate value of one lot.
type computation struct {
	lot        models.Lot
	animals    float64
	entryKilos float64
	stayDays   int

	acquisition float64
	logistics   Logistics

	occupancy  float64
	proration  Proration
	dailyFixed float64

	feed       float64
	sanitation float64
	growth     GrowthEstimate

	month   int
	weekday int
	holiday HolidayProximity

	costPerHead    float64
	feedRatio      float64
	stayEfficiency float64

	ledger *ledger
}

func (c *Composer) compute(ctx context.Context, store ports.LotStore, lotID int64, version models.FeatureSetVersion, opts Options) (*models.FeatureBundle, error) {
	lot, err := store.FindLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, ErrLotNotFound
	}

	comp, err := c.gather(ctx, store, *lot)
	if err != nil {
		return nil, err
	}

	if opts.WithDetail || version == models.FeatureSetV1 {
		costs, err := store.ListCosts(ctx, lotID, opts.CostWindow)
		if err != nil {
			return nil, err
		}
		summary := summarizeLedger(costs)
		comp.ledger = &summary
	}

	var bundle *models.FeatureBundle
	switch version {
	case models.FeatureSetV1:
		bundle = c.assembleV1(comp, opts.WithDetail)
	default:
		bundle = c.assembleV2(comp, opts.WithDetail)
	}

	c.logger.Debug("features computed",
		zap.Int64("lot_id", lotID),
		zap.String("version", string(bundle.Version)),
		zap.Int("features", bundle.Features.Len()))
	return bundle, nil
}

func (c *Composer) gather(ctx context.Context, store ports.LotStore, lot models.Lot) (*computation, error) {
	comp := &computation{
		lot:        lot,
		animals:    float64(lot.AnimalCount),
		entryKilos: lot.EntryKilos(),
		stayDays:   lot.Stay(),
	}
	comp.acquisition = comp.entryKilos * lot.PurchasePrice()

	logistics, err := NewLogisticsEstimator(store, c.cfg).Estimate(ctx, lot)
	if err != nil {
		return nil, err
	}
	comp.logistics = logistics
	if len(logistics.Estimated) > 0 {
		c.logger.Debug("logistics estimated from distance",
			zap.Int64("lot_id", lot.ID),
			zap.String("origin", logistics.Origin),
			zap.Strings("components", logistics.Estimated))
	}

	comp.occupancy, err = NewOccupancyEstimator(store, c.cfg).OccupancyFactor(ctx, lot.AcquiredAt)
	if err != nil {
		return nil, err
	}

	comp.proration, err = NewProrationCalculator(store).Prorate(ctx, lot.AcquiredAt, lot.AnimalCount)
	if err != nil {
		return nil, err
	}
	if comp.proration.Expenses == 0 {
		c.logger.Debug("no monthly expenses recorded, overhead share is zero",
			zap.Int64("lot_id", lot.ID),
			zap.Int("month", int(lot.AcquiredAt.Month())),
			zap.Int("year", lot.AcquiredAt.Year()))
	}

	comp.dailyFixed = c.cfg.DailyFixedRate() * float64(comp.stayDays)
	comp.feed = comp.animals * float64(comp.stayDays) * c.cfg.FeedCostPerHeadDay
	comp.sanitation = comp.animals * c.cfg.SanitaryCostPerHead

	production, err := store.FindProduction(ctx, lot.ID)
	if err != nil {
		return nil, err
	}
	comp.growth = NewGrowthModel(c.cfg).ExpectedOutput(lot, production)
	if comp.growth.Floored {
		c.logger.Warn("projected output weight not positive, using entry weight", zap.Int64("lot_id", lot.ID))
	}

	comp.month = int(lot.AcquiredAt.Month())
	comp.weekday = mondayWeekday(lot.AcquiredAt)
	comp.holiday, err = NewCalendarLookup(store, c.cfg).NearestHoliday(ctx, lot.AcquiredAt)
	if err != nil {
		return nil, err
	}

	comp.costPerHead = (logistics.Total() + comp.dailyFixed) / math.Max(comp.animals, 1)
	if comp.acquisition > 0 {
		comp.feedRatio = comp.feed / comp.acquisition
	}
	if comp.stayDays > 0 {
		comp.stayEfficiency = lot.EntryWeightKg / float64(comp.stayDays)
	} else {
		comp.stayEfficiency = lot.EntryWeightKg
	}

	return comp, nil
}

// engineLines are the cost lines derived from the engine's own formulas.
func (comp *computation) engineLines() []costLine {
	return []costLine{
		{name: "costo_fijo_diario_lote", category: models.CategoryFixed, amount: comp.dailyFixed},
		{name: "tasa_consumo_energia_agua", category: models.CategoryFixed, amount: comp.proration.Utilities},
		{name: "costo_mano_obra_asignada", category: models.CategoryFixed, amount: comp.proration.Labor},
		{name: "costo_adquisicion_total", category: models.CategoryVariable, amount: comp.acquisition},
		{name: "costo_logistica_total", category: models.CategoryVariable, amount: comp.logistics.Total()},
		{name: "costo_alimentacion_total", category: models.CategoryVariable, amount: comp.feed},
		{name: "costo_sanitario_total", category: models.CategoryVariable, amount: comp.sanitation},
	}
}

func (comp *computation) extras(lines []costLine) models.Extras {
	fixed, variable := categoryTotals(lines)
	return models.Extras{
		LogisticsTotal:    finite(comp.logistics.Total()),
		FixedCostTotal:    fixed,
		VariableCostTotal: variable,
		EntryKilos:        finite(comp.entryKilos),
		OutputKilos:       finite(comp.growth.OutputKg),
		Origin:            comp.logistics.Origin,
		DistanceKm:        comp.logistics.DistanceKm,
		TripsInMonth:      comp.logistics.TripsInMonth,
	}
}

func (c *Composer) assembleV2(comp *computation, withDetail bool) *models.FeatureBundle {
	b := newVectorBuilder()
	comp.fillAll(b)
	c.warnReplaced(comp.lot.ID, b)

	lines := comp.engineLines()
	bundle := &models.FeatureBundle{
		LotID:    comp.lot.ID,
		Version:  models.FeatureSetV2,
		Features: b.build(featureNamesV2),
		Extras:   comp.extras(lines),
	}

	if withDetail {
		detail := comp.groupDetail(b)
		detail.ByCategory = map[models.CostCategory]float64{
			models.CategoryFixed:    bundle.Extras.FixedCostTotal,
			models.CategoryVariable: bundle.Extras.VariableCostTotal,
		}
		bundle.Detail = detail
	}
	return bundle
}

func (c *Composer) assembleV1(comp *computation, withDetail bool) *models.FeatureBundle {
	led := comp.ledger

	// Recorded costs replace the engine formulas concept by concept.
	lines := comp.engineLines()
	if led.rows > 0 {
		lines = led.lines
	}
	extras := comp.extras(lines)

	pricePerKg := comp.lot.PurchasePrice()
	if acq := led.byRole[models.RoleAcquisition]; acq > 0 && comp.entryKilos > 0 {
		pricePerKg = acq / comp.entryKilos
	}
	logistics := comp.logistics.Total()
	if v := led.byRole[models.RoleLogistics]; v > 0 {
		logistics = v
	}
	feed := comp.feed
	if v := led.byRole[models.RoleFeed]; v > 0 {
		feed = v
	}

	b := newVectorBuilder()
	b.set("cantidad_animales", comp.animals)
	b.set("peso_promedio_entrada", comp.lot.EntryWeightKg)
	b.set("precio_compra_kg", pricePerKg)
	b.set("costo_logistica_total", logistics)
	b.set("costo_alimentacion_estadia", feed)
	b.set("duracion_estadia_dias", float64(comp.stayDays))
	b.set("mes_adquisicion", float64(comp.month))
	b.set("costo_total_lote", extras.FixedCostTotal+extras.VariableCostTotal)
	b.set("peso_salida", comp.growth.OutputKg)
	b.set("costo_fijo_por_kg", extras.FixedCostTotal/math.Max(comp.growth.OutputKg, 1))
	c.warnReplaced(comp.lot.ID, b)

	extras.LogisticsTotal = finite(logistics)
	bundle := &models.FeatureBundle{
		LotID:    comp.lot.ID,
		Version:  models.FeatureSetV1,
		Features: b.build(featureNamesV1),
		Extras:   extras,
	}

	if withDetail {
		v2 := newVectorBuilder()
		comp.fillAll(v2)
		detail := comp.groupDetail(v2)
		detail.ByCategory = map[models.CostCategory]float64{
			models.CategoryFixed:    extras.FixedCostTotal,
			models.CategoryVariable: extras.VariableCostTotal,
		}
		bundle.Detail = detail
	}
	return bundle
}

// fillAll sets every value a detail group can reference.
func (comp *computation) fillAll(b *vectorBuilder) {
	b.set("cantidad_animales", comp.animals)
	b.set("peso_promedio_entrada", comp.lot.EntryWeightKg)
	b.set("precio_compra_kg", comp.lot.PurchasePrice())
	b.set("costo_adquisicion_total", comp.acquisition)
	b.set("costo_combustible_viaje", comp.logistics.Fuel)
	b.set("costo_peajes_lavado", comp.logistics.TollsWash)
	b.set("costo_flete_estimado", comp.logistics.Freight)
	b.set("mantenimiento_camion_prorrateado", comp.logistics.TruckMaintenance)
	b.set("costo_fijo_diario_lote", comp.dailyFixed)
	b.set("factor_ocupacion_granja", comp.occupancy)
	b.set("tasa_consumo_energia_agua", comp.proration.Utilities)
	b.set("costo_mano_obra_asignada", comp.proration.Labor)
	b.set("duracion_estadia_dias", float64(comp.stayDays))
	b.set("costo_alimentacion_total", comp.feed)
	b.set("costo_sanitario_total", comp.sanitation)
	b.set("merma_peso_transporte", comp.growth.TransportLossKg)
	b.set("peso_salida_esperado", comp.growth.OutputKg)
	b.set("mes_adquisicion", float64(comp.month))
	b.set("dia_semana_llegada", float64(comp.weekday))
	b.set("es_feriado_proximo", boolToFloat(comp.holiday.Upcoming))
	b.set("dias_para_festividad", float64(comp.holiday.DaysUntil))
	b.set("costo_operativo_por_cabeza", comp.costPerHead)
	b.set("ratio_alimento_precio_compra", comp.feedRatio)
	b.set("indicador_eficiencia_estadia", comp.stayEfficiency)
}

var detailGroups = []struct {
	name   string
	fields []string
}{
	{"grupo_1_adquisicion", []string{"cantidad_animales", "peso_promedio_entrada", "precio_compra_kg", "costo_adquisicion_total"}},
	{"grupo_2_logistica", []string{"costo_combustible_viaje", "costo_peajes_lavado", "costo_flete_estimado", "mantenimiento_camion_prorrateado"}},
	{"grupo_3_costos_fijos", []string{"costo_fijo_diario_lote", "factor_ocupacion_granja", "tasa_consumo_energia_agua", "costo_mano_obra_asignada"}},
	{"grupo_4_estadia", []string{"duracion_estadia_dias", "costo_alimentacion_total", "costo_sanitario_total", "merma_peso_transporte", "peso_salida_esperado"}},
	{"grupo_5_temporales", []string{"mes_adquisicion", "dia_semana_llegada", "es_feriado_proximo", "dias_para_festividad"}},
	{"grupo_6_compuestas", []string{"costo_operativo_por_cabeza", "ratio_alimento_precio_compra", "indicador_eficiencia_estadia"}},
}

func (comp *computation) groupDetail(b *vectorBuilder) *models.Detail {
	detail := &models.Detail{
		ByGroup:    make(map[string]map[string]float64, len(detailGroups)),
		ByCostType: make(map[string]models.CostTypeTotal),
	}
	for _, g := range detailGroups {
		group := make(map[string]float64, len(g.fields))
		for _, f := range g.fields {
			group[f] = b.values[f]
		}
		detail.ByGroup[g.name] = group
	}
	detail.ByGroup["grupo_3_costos_fijos"]["gasto_total_mes_prorrateado"] = finite(comp.proration.MonthTotal)

	if comp.ledger != nil {
		for name, total := range comp.ledger.byType {
			detail.ByCostType[name] = total
		}
	}
	return detail
}

func (c *Composer) warnReplaced(lotID int64, b *vectorBuilder) {
	if len(b.replaced) == 0 {
		return
	}
	c.logger.Warn("non-finite feature values replaced with zero",
		zap.Int64("lot_id", lotID),
		zap.Strings("features", b.replaced))
}

