package features

import (
	"context"
	"time"

	"github.com/mamadbah2/lotprice/internal/domain/models"
)

type fakeStore struct {
	lots        []models.Lot
	productions []models.Production
	costs       []models.Cost
	expenses    []models.MonthlyExpense
	holidays    []models.Holiday
	err         error
	calls       int
}

func (s *fakeStore) FindLot(_ context.Context, lotID int64) (*models.Lot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for _, l := range s.lots {
		if l.ID == lotID {
			lot := l
			return &lot, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindProduction(_ context.Context, lotID int64) (*models.Production, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.productions {
		if p.LotID == lotID {
			prod := p
			return &prod, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListCosts(_ context.Context, lotID int64, window *models.DateRange) ([]models.Cost, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Cost
	for _, c := range s.costs {
		if c.LotID != lotID {
			continue
		}
		if window != nil && !inRange(c.ExpenseDate, *window) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) ListMonthlyExpenses(_ context.Context, month, year int) ([]models.MonthlyExpense, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.MonthlyExpense
	for _, e := range s.expenses {
		if e.Month == month && e.Year == year {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) ListLots(_ context.Context, window models.DateRange) ([]models.Lot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Lot
	for _, l := range s.lots {
		if inRange(l.AcquiredAt, window) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) ListHolidays(_ context.Context, window models.DateRange) ([]models.Holiday, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Holiday
	for _, h := range s.holidays {
		if inRange(h.Date, window) {
			out = append(out, h)
		}
	}
	return out, nil
}

func inRange(t time.Time, r models.DateRange) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }
func ptrString(v string) *string  { return &v }

func scenarioLot() models.Lot {
	return models.Lot{
		ID:                 1,
		AcquiredAt:         date(2025, time.January, 15),
		AnimalCount:        50,
		EntryWeightKg:      100,
		PurchasePricePerKg: ptrFloat(19),
		StayDays:           ptrInt(2),
		Origin:             ptrString("Santa Cruz"),
	}
}

func expenseType(name string, category models.CostCategory) models.CostType {
	return models.CostType{Name: name, Category: category}
}
