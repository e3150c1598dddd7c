package models

import (
	"strings"
	"time"
)

// CostCategory separates fixed from variable costs.
type CostCategory string

const (
	CategoryFixed    CostCategory = "FIJO"
	CategoryVariable CostCategory = "VARIABLE"
)

// CostRole tags a cost type with the engine concept it feeds.
type CostRole string

const (
	RoleUnset       CostRole = ""
	RoleUtilities   CostRole = "UTILITIES"
	RoleLabor       CostRole = "LABOR"
	RoleLogistics   CostRole = "LOGISTICS"
	RoleFeed        CostRole = "FEED"
	RoleAcquisition CostRole = "ACQUISITION"
	RoleOther       CostRole = "OTHER"
)

// legacyRoleKeywords maps overhead roles to the name fragments used before
// cost types carried a role.
var legacyRoleKeywords = map[CostRole][]string{
	RoleUtilities: {"servicio", "energia"},
	RoleLabor:     {"mano", "sueldo"},
}

// ledgerAliases lists the exact normalized type names counted per ledger role.
// The sets are disjoint so one cost row feeds at most one role.
var ledgerAliases = map[CostRole]map[string]struct{}{
	RoleAcquisition: aliasSet("adquisición", "adquisicion", "compra"),
	RoleLogistics:   aliasSet("logística", "logistica", "transporte", "flete", "peajes", "combustible"),
	RoleFeed:        aliasSet("alimento", "alimentacion", "alimentación"),
}

func aliasSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// NormalizeTypeName trims and lowercases a cost type name.
func NormalizeTypeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CostType classifies costs and monthly expenses.
type CostType struct {
	ID       int64        `db:"id_tipo_costo" json:"id_tipo_costo"`
	Name     string       `db:"nombre_tipo" json:"nombre_tipo"`
	Category CostCategory `db:"categoria" json:"categoria"`
	Role     CostRole     `db:"rol" json:"rol,omitempty"`
}

// HasRole reports whether the type belongs to an overhead role (utilities or
// labor). An explicit role tag wins; untagged types fall back to a
// case-insensitive substring match on the type name.
func (t CostType) HasRole(role CostRole) bool {
	if role == RoleUnset {
		return false
	}
	if t.Role != RoleUnset {
		return t.Role == role
	}
	name := NormalizeTypeName(t.Name)
	for _, keyword := range legacyRoleKeywords[role] {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// CountsAs reports whether costs of this type are summed into a ledger role
// (acquisition, logistics or feed). An explicit role tag wins; untagged types
// must match an alias exactly after normalization.
func (t CostType) CountsAs(role CostRole) bool {
	if role == RoleUnset {
		return false
	}
	if t.Role != RoleUnset {
		return t.Role == role
	}
	_, ok := ledgerAliases[role][NormalizeTypeName(t.Name)]
	return ok
}

// Cost is an expense recorded against a single lot.
type Cost struct {
	ID          int64     `db:"id_costo" json:"id_costo"`
	LotID       int64     `db:"id_lote" json:"id_lote"`
	Amount      float64   `db:"monto" json:"monto"`
	ExpenseDate time.Time `db:"fecha_gasto" json:"fecha_gasto"`
	Description *string   `db:"descripcion" json:"descripcion,omitempty"`
	Type        CostType  `db:"tipo" json:"tipo_costo"`
}

// MonthlyExpense is a farm-wide overhead for one calendar month.
type MonthlyExpense struct {
	ID          int64    `db:"id_gasto" json:"id_gasto"`
	Amount      float64  `db:"monto" json:"monto"`
	Month       int      `db:"mes" json:"mes"`
	Year        int      `db:"anio" json:"anio"`
	Description *string  `db:"descripcion" json:"descripcion,omitempty"`
	Type        CostType `db:"tipo" json:"tipo_costo"`
}
