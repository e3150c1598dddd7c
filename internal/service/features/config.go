package features

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/lotprice/internal/domain/models"
)

// EngineConfig holds every tunable constant used by the feature engine.
type EngineConfig struct {
	FeatureSet models.FeatureSetVersion `yaml:"feature_set"`

	HolidayHorizonDays int `yaml:"holiday_horizon_days"`
	NoHolidaySentinel  int `yaml:"no_holiday_sentinel"`

	OccupancyWindowDays int `yaml:"occupancy_window_days"`
	FarmCapacity        int `yaml:"farm_capacity"`

	DefaultOrigin       string             `yaml:"default_origin"`
	DefaultDistanceKm   float64            `yaml:"default_distance_km"`
	DistancesKm         map[string]float64 `yaml:"distances_km"`
	KmPerLiter          float64            `yaml:"km_per_liter"`
	DieselPricePerLiter float64            `yaml:"diesel_price_per_liter"`
	TollCount           int                `yaml:"toll_count"`
	TollPrice           float64            `yaml:"toll_price"`
	WashPrice           float64            `yaml:"wash_price"`
	FreightBaseFee      float64            `yaml:"freight_base_fee"`
	FreightPerKm        float64            `yaml:"freight_per_km"`
	FreightPerHead      float64            `yaml:"freight_per_head"`
	TruckMaintenance    float64            `yaml:"truck_maintenance_monthly"`

	DailyGainKg            float64 `yaml:"daily_gain_kg"`
	TransportLossPerHeadKg float64 `yaml:"transport_loss_per_head_kg"`

	MonthlySalaries     float64 `yaml:"monthly_salaries"`
	MonthlyOperating    float64 `yaml:"monthly_operating"`
	DaysPerMonth        float64 `yaml:"days_per_month"`
	FeedCostPerHeadDay  float64 `yaml:"feed_cost_per_head_day"`
	SanitaryCostPerHead float64 `yaml:"sanitary_cost_per_head"`
}

// DefaultEngineConfig returns the calibrated defaults of the current price model.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FeatureSet: models.FeatureSetV2,

		HolidayHorizonDays: 7,
		NoHolidaySentinel:  999,

		OccupancyWindowDays: 7,
		FarmCapacity:        1000,

		DefaultOrigin:     models.DefaultOrigin,
		DefaultDistanceKm: 350,
		DistancesKm: map[string]float64{
			"Santa Cruz": 350,
			"Beni":       520,
			"Pando":      680,
			"La Paz":     400,
			"Cochabamba": 300,
		},
		KmPerLiter:          25,
		DieselPricePerLiter: 3.7,
		TollCount:           3,
		TollPrice:           40,
		WashPrice:           100,
		FreightBaseFee:      300,
		FreightPerKm:        1.0,
		FreightPerHead:      10,
		TruckMaintenance:    3000,

		DailyGainKg:            1.15,
		TransportLossPerHeadKg: 0.5,

		MonthlySalaries:     11000,
		MonthlyOperating:    3250,
		DaysPerMonth:        30,
		FeedCostPerHeadDay:  1.5,
		SanitaryCostPerHead: 10,
	}
}

// LoadEngineConfig overlays the YAML file at path on the defaults. An empty path
// or a missing file yields the defaults.
func LoadEngineConfig(path string) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read engine config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse engine config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values that would make a formula meaningless.
func (c EngineConfig) Validate() error {
	if _, err := models.ParseFeatureSetVersion(string(c.FeatureSet)); err != nil {
		return err
	}

	switch {
	case c.HolidayHorizonDays < 0:
		return errors.New("holiday_horizon_days must not be negative")
	case c.OccupancyWindowDays < 0:
		return errors.New("occupancy_window_days must not be negative")
	case c.KmPerLiter <= 0:
		return errors.New("km_per_liter must be positive")
	case c.DaysPerMonth <= 0:
		return errors.New("days_per_month must be positive")
	case c.DefaultOrigin == "":
		return errors.New("default_origin must be provided")
	}
	return nil
}

// DistanceKm returns the road distance from origin to the farm.
func (c EngineConfig) DistanceKm(origin string) float64 {
	if d, ok := c.DistancesKm[origin]; ok {
		return d
	}
	return c.DefaultDistanceKm
}

// DailyFixedRate is the farm's fixed cost per day.
func (c EngineConfig) DailyFixedRate() float64 {
	return (c.MonthlySalaries + c.MonthlyOperating) / c.DaysPerMonth
}
