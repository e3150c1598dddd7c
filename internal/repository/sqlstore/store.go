package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// sqlx only knows the cgo driver name "sqlite3".
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Store reads lots and their costs from a relational database.
type Store struct {
	db     *sqlx.DB
	ext    sqlx.ExtContext
	logger *zap.Logger
}

var _ ports.SnapshotStore = (*Store)(nil)

// Open connects to the database identified by driver and dsn.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("sqlstore.Open: unsupported driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore.Open: connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	return New(db, logger), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, ext: db, logger: logger}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithSnapshot runs fn against a read-only transaction so every read sees the
// same data.
func (s *Store) WithSnapshot(ctx context.Context, fn func(ports.LotStore) error) error {
	opts := &sql.TxOptions{ReadOnly: true}
	if s.db.DriverName() == DriverPostgres {
		opts.Isolation = sql.LevelRepeatableRead
	}

	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("sqlstore.WithSnapshot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, ext: tx, logger: s.logger}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore.WithSnapshot: commit: %w", err)
	}
	return nil
}

// dayRange builds the half-open filter col in [window.From, window.To).
// SQLite keeps dates as text in whatever form they were written ('2025-01-15'
// or a full timestamp), so there the calendar day prefix is compared.
func (s *Store) dayRange(col string, window models.DateRange) (string, []interface{}) {
	if s.db.DriverName() == DriverSQLite {
		day := "substr(" + col + ", 1, 10)"
		return day + " >= ? AND " + day + " < ?", []interface{}{
			window.From.UTC().Format(models.DateLayout),
			window.To.UTC().Format(models.DateLayout),
		}
	}
	return col + " >= ? AND " + col + " < ?", []interface{}{window.From.UTC(), window.To.UTC()}
}

const lotColumns = `
    id_lote, fecha_adquisicion, cantidad_animales, peso_promedio_entrada,
    precio_compra_kg, duracion_estadia_dias, ubicacion_origen,
    costo_combustible, costo_peajes_lavado, costo_flete, merma_peso_transporte`

const costTypeColumns = `
    t.id_tipo_costo AS "tipo.id_tipo_costo",
    t.nombre_tipo   AS "tipo.nombre_tipo",
    t.categoria     AS "tipo.categoria",
    COALESCE(t.rol, '') AS "tipo.rol"`

// FindLot returns the lot or nil when it does not exist.
func (s *Store) FindLot(ctx context.Context, lotID int64) (*models.Lot, error) {
	query := s.db.Rebind(`SELECT` + lotColumns + ` FROM lote WHERE id_lote = ?`)

	var lot models.Lot
	if err := sqlx.GetContext(ctx, s.ext, &lot, query, lotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore.FindLot %d: %w", lotID, err)
	}
	lot.AcquiredAt = lot.AcquiredAt.UTC()
	return &lot, nil
}

// FindProduction returns the latest production record of a lot or nil.
func (s *Store) FindProduction(ctx context.Context, lotID int64) (*models.Production, error) {
	query := s.db.Rebind(`
SELECT id_produccion, id_lote, fecha_corte, kilos_vendidos, precio_venta_kg, mortalidad
FROM produccion
WHERE id_lote = ?
ORDER BY fecha_corte DESC, id_produccion DESC
LIMIT 1`)

	var prod models.Production
	if err := sqlx.GetContext(ctx, s.ext, &prod, query, lotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlstore.FindProduction %d: %w", lotID, err)
	}
	return &prod, nil
}

// ListCosts returns the costs of a lot, optionally limited to window.
func (s *Store) ListCosts(ctx context.Context, lotID int64, window *models.DateRange) ([]models.Cost, error) {
	query := `
SELECT c.id_costo, c.id_lote, c.monto, c.fecha_gasto, c.descripcion,` + costTypeColumns + `
FROM costo c
JOIN tipocosto t ON t.id_tipo_costo = c.id_tipo_costo
WHERE c.id_lote = ?`
	args := []interface{}{lotID}
	if window != nil {
		clause, bounds := s.dayRange("c.fecha_gasto", *window)
		query += ` AND ` + clause
		args = append(args, bounds...)
	}
	query += ` ORDER BY c.fecha_gasto, c.id_costo`

	var costs []models.Cost
	if err := sqlx.SelectContext(ctx, s.ext, &costs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sqlstore.ListCosts %d: %w", lotID, err)
	}
	return costs, nil
}

// ListMonthlyExpenses returns the farm-wide expenses of a month.
func (s *Store) ListMonthlyExpenses(ctx context.Context, month, year int) ([]models.MonthlyExpense, error) {
	query := s.db.Rebind(`
SELECT g.id_gasto, g.monto, g.mes, g.anio, g.descripcion,` + costTypeColumns + `
FROM gastomensual g
JOIN tipocosto t ON t.id_tipo_costo = g.id_tipo_costo
WHERE g.mes = ? AND g.anio = ?
ORDER BY g.id_gasto`)

	var expenses []models.MonthlyExpense
	if err := sqlx.SelectContext(ctx, s.ext, &expenses, query, month, year); err != nil {
		return nil, fmt.Errorf("sqlstore.ListMonthlyExpenses %d/%d: %w", month, year, err)
	}
	return expenses, nil
}

// ListLots returns the lots acquired within window.
func (s *Store) ListLots(ctx context.Context, window models.DateRange) ([]models.Lot, error) {
	clause, bounds := s.dayRange("fecha_adquisicion", window)
	query := s.db.Rebind(`SELECT` + lotColumns + `
FROM lote
WHERE ` + clause + `
ORDER BY fecha_adquisicion, id_lote`)

	var lots []models.Lot
	if err := sqlx.SelectContext(ctx, s.ext, &lots, query, bounds...); err != nil {
		return nil, fmt.Errorf("sqlstore.ListLots: %w", err)
	}
	for i := range lots {
		lots[i].AcquiredAt = lots[i].AcquiredAt.UTC()
	}
	return lots, nil
}

// ListHolidays returns the holidays within window ordered by date.
func (s *Store) ListHolidays(ctx context.Context, window models.DateRange) ([]models.Holiday, error) {
	clause, bounds := s.dayRange("fecha", window)
	query := s.db.Rebind(`
SELECT id_feriado, nombre, fecha
FROM feriado
WHERE ` + clause + `
ORDER BY fecha, id_feriado`)

	var holidays []models.Holiday
	if err := sqlx.SelectContext(ctx, s.ext, &holidays, query, bounds...); err != nil {
		return nil, fmt.Errorf("sqlstore.ListHolidays: %w", err)
	}
	return holidays, nil
}
