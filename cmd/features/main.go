package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/mamadbah2/lotprice/internal/config"
	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
	"github.com/mamadbah2/lotprice/internal/repository/sheets"
	"github.com/mamadbah2/lotprice/internal/repository/sqlstore"
	exportsvc "github.com/mamadbah2/lotprice/internal/service/export"
	"github.com/mamadbah2/lotprice/internal/service/features"
	"github.com/mamadbah2/lotprice/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "path to an env file (defaults to .env when present)")
	lotID := flag.Int64("lot", 0, "lot id to compute features for")
	detail := flag.Bool("detail", false, "print the breakdown by group, cost type and category")
	version := flag.String("version", "", "feature set version: v1|v2 (overrides the engine config)")
	from := flag.String("from", "", "first cost date to include (YYYY-MM-DD)")
	to := flag.String("to", "", "last cost date to include (YYYY-MM-DD)")
	exportFrom := flag.String("export-from", "", "export lots acquired from this date (YYYY-MM-DD)")
	exportTo := flag.String("export-to", "", "export lots acquired up to this date (YYYY-MM-DD, defaults to export-from)")
	initSchema := flag.Bool("init-schema", false, "create the sqlite tables before running")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	log := logger.Must(logger.New(logger.Config{Level: cfg.Log.Level, Development: true}))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, cliOptions{
		lotID:      *lotID,
		detail:     *detail,
		version:    *version,
		from:       *from,
		to:         *to,
		exportFrom: *exportFrom,
		exportTo:   *exportTo,
		initSchema: *initSchema,
	}); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

type cliOptions struct {
	lotID      int64
	detail     bool
	version    string
	from       string
	to         string
	exportFrom string
	exportTo   string
	initSchema bool
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, opts cliOptions) error {
	engineCfg, err := features.LoadEngineConfig(cfg.Engine.ConfigPath)
	if err != nil {
		return err
	}
	if opts.version != "" {
		v, err := models.ParseFeatureSetVersion(opts.version)
		if err != nil {
			return err
		}
		engineCfg.FeatureSet = v
	}

	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, logger.Named(log, "repo.sql"))
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.initSchema {
		if err := store.ApplySchema(ctx); err != nil {
			return err
		}
		log.Info("sqlite schema ready")
	}

	composer := features.NewComposer(store, engineCfg, logger.Named(log, "svc.features"))

	switch {
	case opts.exportFrom != "":
		return runExport(ctx, cfg, log, store, composer, opts)
	case opts.lotID > 0:
		return runLot(ctx, composer, opts, os.Stdout)
	case opts.initSchema:
		return nil
	default:
		return fmt.Errorf("either -lot or -export-from is required")
	}
}

func runLot(ctx context.Context, composer *features.Composer, opts cliOptions, out io.Writer) error {
	window, err := models.ParseDayWindow(opts.from, opts.to)
	if err != nil {
		return fmt.Errorf("invalid -from/-to: %w", err)
	}

	bundle, err := composer.ComputeWithOptions(ctx, opts.lotID, features.Options{WithDetail: opts.detail, CostWindow: window})
	if err != nil {
		return err
	}

	printBundle(out, bundle)
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, log *zap.Logger, store *sqlstore.Store, composer *features.Composer, opts cliOptions) error {
	start, err := time.Parse(models.DateLayout, opts.exportFrom)
	if err != nil {
		return fmt.Errorf("invalid -export-from: %w", err)
	}
	end := start
	if opts.exportTo != "" {
		if end, err = time.Parse(models.DateLayout, opts.exportTo); err != nil {
			return fmt.Errorf("invalid -export-to: %w", err)
		}
	}

	var sink ports.DatasetSink
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(log, "repo.sheets"))
		if err != nil {
			return err
		}
		sink = repo
	} else {
		log.Warn("google sheets credentials missing, computing without writing rows")
	}

	summary, err := exportsvc.NewService(store, composer, sink, nil, logger.Named(log, "svc.export")).ExportRange(ctx, start, end)
	if err != nil {
		return err
	}
	fmt.Println(summary.String())
	return nil
}

func printBundle(out io.Writer, bundle *models.FeatureBundle) {
	fmt.Fprintf(out, "\nLote %d (features %s)\n", bundle.LotID, bundle.Version)

	table := tablewriter.NewWriter(out)
	table.Header("#", "Feature", "Valor")
	values := bundle.Features.Values()
	for i, name := range bundle.Features.Names() {
		table.Append(fmt.Sprintf("%d", i+1), name, formatValue(values[i]))
	}
	table.Render()

	ex := bundle.Extras
	extras := tablewriter.NewWriter(out)
	extras.Header("Extra", "Valor")
	extras.Append("ubicacion_origen", ex.Origin)
	extras.Append("distancia_km", formatValue(ex.DistanceKm))
	extras.Append("viajes_mes", fmt.Sprintf("%d", ex.TripsInMonth))
	extras.Append("kilos_entrada", formatValue(ex.EntryKilos))
	extras.Append("peso_salida_total", formatValue(ex.OutputKilos))
	extras.Append("costo_logistica_total", formatValue(ex.LogisticsTotal))
	extras.Append("costo_fijo_total", formatValue(ex.FixedCostTotal))
	extras.Append("costo_variable_total", formatValue(ex.VariableCostTotal))
	extras.Render()

	if bundle.Detail != nil {
		printDetail(out, bundle.Detail)
	}
}

func printDetail(out io.Writer, detail *models.Detail) {
	groups := tablewriter.NewWriter(out)
	groups.Header("Grupo", "Feature", "Valor")
	for _, group := range sortedKeys(detail.ByGroup) {
		fields := detail.ByGroup[group]
		for _, name := range sortedKeys(fields) {
			groups.Append(group, name, formatValue(fields[name]))
		}
	}
	groups.Render()

	types := tablewriter.NewWriter(out)
	types.Header("Tipo de costo", "Categoria", "Registros", "Monto")
	for _, name := range sortedKeys(detail.ByCostType) {
		total := detail.ByCostType[name]
		types.Append(name, string(total.Category), fmt.Sprintf("%d", total.Count), formatValue(total.Amount))
	}
	types.Render()

	categories := tablewriter.NewWriter(out)
	categories.Header("Categoria", "Monto")
	for _, category := range []models.CostCategory{models.CategoryFixed, models.CategoryVariable} {
		categories.Append(string(category), formatValue(detail.ByCategory[category]))
	}
	categories.Render()
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
