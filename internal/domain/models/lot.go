package models

import (
	"errors"
	"fmt"
	"time"
)

// DefaultOrigin is the origin assumed when a lot does not record one.
const DefaultOrigin = "Santa Cruz"

// Lot is a batch of animals acquired together and resold together.
type Lot struct {
	ID                 int64     `db:"id_lote" json:"id_lote"`
	AcquiredAt         time.Time `db:"fecha_adquisicion" json:"fecha_adquisicion"`
	AnimalCount        int       `db:"cantidad_animales" json:"cantidad_animales"`
	EntryWeightKg      float64   `db:"peso_promedio_entrada" json:"peso_promedio_entrada"`
	PurchasePricePerKg *float64  `db:"precio_compra_kg" json:"precio_compra_kg,omitempty"`
	StayDays           *int      `db:"duracion_estadia_dias" json:"duracion_estadia_dias,omitempty"`
	Origin             *string   `db:"ubicacion_origen" json:"ubicacion_origen,omitempty"`
	FuelCost           *float64  `db:"costo_combustible" json:"costo_combustible,omitempty"`
	TollsWashCost      *float64  `db:"costo_peajes_lavado" json:"costo_peajes_lavado,omitempty"`
	FreightCost        *float64  `db:"costo_flete" json:"costo_flete,omitempty"`
	TransportLossKg    *float64  `db:"merma_peso_transporte" json:"merma_peso_transporte,omitempty"`
}

// OriginOrDefault returns the recorded origin or DefaultOrigin.
func (l Lot) OriginOrDefault() string {
	if l.Origin == nil || *l.Origin == "" {
		return DefaultOrigin
	}
	return *l.Origin
}

// Stay returns the planned stay in days, zero when unknown or negative.
func (l Lot) Stay() int {
	if l.StayDays == nil || *l.StayDays < 0 {
		return 0
	}
	return *l.StayDays
}

// PurchasePrice returns the purchase price per kg, zero when unknown.
func (l Lot) PurchasePrice() float64 {
	if l.PurchasePricePerKg == nil {
		return 0
	}
	return *l.PurchasePricePerKg
}

// EntryKilos is the total live weight at acquisition.
func (l Lot) EntryKilos() float64 {
	return float64(l.AnimalCount) * l.EntryWeightKg
}

// Production records the sale outcome of a lot.
type Production struct {
	ID             int64     `db:"id_produccion" json:"id_produccion"`
	LotID          int64     `db:"id_lote" json:"id_lote"`
	CutoffDate     time.Time `db:"fecha_corte" json:"fecha_corte"`
	SoldKg         *float64  `db:"kilos_vendidos" json:"kilos_vendidos,omitempty"`
	SalePricePerKg *float64  `db:"precio_venta_kg" json:"precio_venta_kg,omitempty"`
	Mortality      *int      `db:"mortalidad" json:"mortalidad,omitempty"`
}

// Holiday is a calendar event that shifts demand.
type Holiday struct {
	ID   int64     `db:"id_feriado" json:"id_feriado"`
	Name string    `db:"nombre" json:"nombre"`
	Date time.Time `db:"fecha" json:"fecha"`
}

// DateRange is a half-open interval [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysAround returns the inclusive day window [t-before, t+after] as a half-open range.
func DaysAround(t time.Time, before, after int) DateRange {
	day := Day(t)
	return DateRange{
		From: day.AddDate(0, 0, -before),
		To:   day.AddDate(0, 0, after+1),
	}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return DateRange{From: start, To: start.AddDate(0, 1, 0)}
}

// DateLayout is the calendar date format used by the HTTP API and the CLI.
const DateLayout = "2006-01-02"

// ErrEmptyDateRange is returned when the first day falls after the last one.
var ErrEmptyDateRange = errors.New("first day is after last day")

// ParseDayWindow converts inclusive calendar days (either may be empty) into a
// half-open range. It returns nil when both bounds are empty.
func ParseDayWindow(first, last string) (*DateRange, error) {
	if first == "" && last == "" {
		return nil, nil
	}

	window := DateRange{To: time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)}
	if first != "" {
		start, err := time.Parse(DateLayout, first)
		if err != nil {
			return nil, fmt.Errorf("invalid first day: %w", err)
		}
		window.From = start
	}
	if last != "" {
		end, err := time.Parse(DateLayout, last)
		if err != nil {
			return nil, fmt.Errorf("invalid last day: %w", err)
		}
		window.To = end.AddDate(0, 0, 1)
	}
	if !window.To.After(window.From) {
		return nil, ErrEmptyDateRange
	}
	return &window, nil
}
