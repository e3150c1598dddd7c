package sqlstore

import (
	"context"
	"fmt"
)

// sqliteSchema mirrors the production tables for local databases and tests.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tipocosto (
    id_tipo_costo INTEGER PRIMARY KEY AUTOINCREMENT,
    nombre_tipo   TEXT NOT NULL,
    categoria     TEXT NOT NULL CHECK (categoria IN ('FIJO', 'VARIABLE')),
    rol           TEXT
);

CREATE TABLE IF NOT EXISTS lote (
    id_lote               INTEGER PRIMARY KEY AUTOINCREMENT,
    fecha_adquisicion     DATE    NOT NULL,
    cantidad_animales     INTEGER NOT NULL CHECK (cantidad_animales > 0),
    peso_promedio_entrada REAL    NOT NULL CHECK (peso_promedio_entrada > 0),
    precio_compra_kg      REAL,
    duracion_estadia_dias INTEGER,
    ubicacion_origen      TEXT,
    costo_combustible     REAL,
    costo_peajes_lavado   REAL,
    costo_flete           REAL,
    merma_peso_transporte REAL
);

CREATE TABLE IF NOT EXISTS costo (
    id_costo      INTEGER PRIMARY KEY AUTOINCREMENT,
    id_lote       INTEGER NOT NULL REFERENCES lote(id_lote),
    id_tipo_costo INTEGER NOT NULL REFERENCES tipocosto(id_tipo_costo),
    monto         REAL    NOT NULL,
    fecha_gasto   DATE    NOT NULL,
    descripcion   TEXT
);

CREATE TABLE IF NOT EXISTS gastomensual (
    id_gasto      INTEGER PRIMARY KEY AUTOINCREMENT,
    id_tipo_costo INTEGER NOT NULL REFERENCES tipocosto(id_tipo_costo),
    monto         REAL    NOT NULL,
    mes           INTEGER NOT NULL CHECK (mes BETWEEN 1 AND 12),
    anio          INTEGER NOT NULL,
    descripcion   TEXT
);

CREATE TABLE IF NOT EXISTS feriado (
    id_feriado INTEGER PRIMARY KEY AUTOINCREMENT,
    nombre     TEXT NOT NULL,
    fecha      DATE NOT NULL
);

CREATE TABLE IF NOT EXISTS produccion (
    id_produccion   INTEGER PRIMARY KEY AUTOINCREMENT,
    id_lote         INTEGER NOT NULL REFERENCES lote(id_lote),
    fecha_corte     DATE    NOT NULL,
    kilos_vendidos  REAL,
    precio_venta_kg REAL,
    mortalidad      INTEGER
);

CREATE TABLE IF NOT EXISTS prediccion (
    id_prediccion          INTEGER PRIMARY KEY AUTOINCREMENT,
    referencia             TEXT     NOT NULL UNIQUE,
    id_lote                INTEGER  NOT NULL REFERENCES lote(id_lote),
    precio_sugerido_kg     REAL     NOT NULL,
    modelo_usado           TEXT,
    ganancia_neta_estimada REAL,
    mae_error              REAL,
    fecha_prediccion       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lote_fecha       ON lote(fecha_adquisicion);
CREATE INDEX IF NOT EXISTS idx_costo_lote       ON costo(id_lote, fecha_gasto);
CREATE INDEX IF NOT EXISTS idx_gasto_periodo    ON gastomensual(anio, mes);
CREATE INDEX IF NOT EXISTS idx_feriado_fecha    ON feriado(fecha);
CREATE INDEX IF NOT EXISTS idx_produccion_lote  ON produccion(id_lote);
`

// ApplySchema creates the tables on a SQLite database. Postgres databases are
// managed by the migration tooling of the main application.
func (s *Store) ApplySchema(ctx context.Context) error {
	if s.db.DriverName() != DriverSQLite {
		return fmt.Errorf("sqlstore.ApplySchema: unsupported driver %q", s.db.DriverName())
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("sqlstore.ApplySchema: %w", err)
	}
	return nil
}
