package features

import (
	"gonum.org/v1/gonum/floats"

	"github.com/mamadbah2/lotprice/internal/domain/models"
)

// costLine is one amount contributing to the fixed or variable total.
type costLine struct {
	name     string
	category models.CostCategory
	amount   float64
}

// categoryTotals sums lines per category. Extras and the detail breakdown both
// read from it so they always agree.
func categoryTotals(lines []costLine) (fixed, variable float64) {
	var f, v []float64
	for _, l := range lines {
		switch l.category {
		case models.CategoryFixed:
			f = append(f, finite(l.amount))
		case models.CategoryVariable:
			v = append(v, finite(l.amount))
		}
	}
	return floats.Sum(f), floats.Sum(v)
}

// ledger summarizes the costs recorded against a lot.
type ledger struct {
	rows   int
	byType map[string]models.CostTypeTotal
	byRole map[models.CostRole]float64
	lines  []costLine
}

var ledgerRoles = []models.CostRole{
	models.RoleAcquisition,
	models.RoleLogistics,
	models.RoleFeed,
}

func summarizeLedger(costs []models.Cost) ledger {
	l := ledger{
		rows:   len(costs),
		byType: make(map[string]models.CostTypeTotal),
		byRole: make(map[models.CostRole]float64),
	}
	for _, c := range costs {
		name := c.Type.Name
		total := l.byType[name]
		total.Category = c.Type.Category
		total.Amount += c.Amount
		total.Count++
		l.byType[name] = total

		for _, role := range ledgerRoles {
			if c.Type.CountsAs(role) {
				l.byRole[role] += c.Amount
			}
		}

		l.lines = append(l.lines, costLine{name: name, category: c.Type.Category, amount: c.Amount})
	}
	return l
}
