package features

import (
	"context"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
)

// Proration is a lot's share of the farm-wide monthly overhead.
type Proration struct {
	Utilities  float64
	Labor      float64
	MonthTotal float64
	HerdSize   int
	Expenses   int
}

// ProrationCalculator splits monthly expenses across the lots acquired that month
// in proportion to their animal count.
type ProrationCalculator struct {
	store ports.LotStore
}

// NewProrationCalculator builds a calculator over store.
func NewProrationCalculator(store ports.LotStore) *ProrationCalculator {
	return &ProrationCalculator{store: store}
}

// MonthlyShare returns the lot's share of the expenses whose cost type has role.
func (p *ProrationCalculator) MonthlyShare(ctx context.Context, date time.Time, animals int, role models.CostRole) (float64, error) {
	expenses, err := p.store.ListMonthlyExpenses(ctx, int(date.Month()), date.Year())
	if err != nil {
		return 0, err
	}
	if len(expenses) == 0 {
		return 0, nil
	}

	herd, err := p.herdSize(ctx, date, animals)
	if err != nil {
		return 0, err
	}
	return share(sumByRole(expenses, role), animals, herd), nil
}

// Prorate computes the utilities, labor and whole-month shares in one pass.
func (p *ProrationCalculator) Prorate(ctx context.Context, date time.Time, animals int) (Proration, error) {
	expenses, err := p.store.ListMonthlyExpenses(ctx, int(date.Month()), date.Year())
	if err != nil {
		return Proration{}, err
	}
	if len(expenses) == 0 {
		return Proration{}, nil
	}

	herd, err := p.herdSize(ctx, date, animals)
	if err != nil {
		return Proration{}, err
	}

	amounts := make([]float64, len(expenses))
	for i, e := range expenses {
		amounts[i] = e.Amount
	}

	return Proration{
		Utilities:  share(sumByRole(expenses, models.RoleUtilities), animals, herd),
		Labor:      share(sumByRole(expenses, models.RoleLabor), animals, herd),
		MonthTotal: share(floats.Sum(amounts), animals, herd),
		HerdSize:   herd,
		Expenses:   len(expenses),
	}, nil
}

// herdSize is the number of animals acquired in the month of date, never below
// the lot's own count.
func (p *ProrationCalculator) herdSize(ctx context.Context, date time.Time, animals int) (int, error) {
	lots, err := p.store.ListLots(ctx, models.MonthOf(date))
	if err != nil {
		return 0, err
	}
	herd := 0
	for _, l := range lots {
		herd += l.AnimalCount
	}
	if herd < animals {
		herd = animals
	}
	if herd < 1 {
		herd = 1
	}
	return herd, nil
}

func sumByRole(expenses []models.MonthlyExpense, role models.CostRole) float64 {
	amounts := make([]float64, 0, len(expenses))
	for _, e := range expenses {
		if e.Type.HasRole(role) {
			amounts = append(amounts, e.Amount)
		}
	}
	return floats.Sum(amounts)
}

func share(pool float64, animals, herd int) float64 {
	if animals <= 0 {
		return 0
	}
	return pool * float64(animals) / float64(herd)
}
