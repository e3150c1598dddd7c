package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysAroundAndMonthOf(t *testing.T) {
	at := time.Date(2025, time.January, 15, 17, 30, 0, 0, time.UTC)

	window := DaysAround(at, 7, 7)
	assert.Equal(t, time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC), window.From)
	assert.Equal(t, time.Date(2025, time.January, 23, 0, 0, 0, 0, time.UTC), window.To)

	month := MonthOf(time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), month.From)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), month.To)
}

func TestParseDayWindow(t *testing.T) {
	window, err := ParseDayWindow("", "")
	require.NoError(t, err)
	assert.Nil(t, window)

	window, err = ParseDayWindow("2025-01-10", "2025-01-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), window.From)
	assert.Equal(t, time.Date(2025, time.January, 11, 0, 0, 0, 0, time.UTC), window.To)

	window, err = ParseDayWindow("", "2025-01-10")
	require.NoError(t, err)
	assert.True(t, window.From.IsZero())

	window, err = ParseDayWindow("2025-01-10", "")
	require.NoError(t, err)
	assert.Equal(t, 9999, window.To.Year())

	_, err = ParseDayWindow("2025-02-01", "2025-01-31")
	assert.ErrorIs(t, err, ErrEmptyDateRange)

	_, err = ParseDayWindow("10/01/2025", "")
	assert.Error(t, err)
}

func TestLotAccessors(t *testing.T) {
	stay, price, origin, empty := -3, 18.5, "Beni", ""
	lot := Lot{AnimalCount: 50, EntryWeightKg: 80}

	assert.Equal(t, DefaultOrigin, lot.OriginOrDefault())
	assert.Zero(t, lot.Stay())
	assert.Zero(t, lot.PurchasePrice())
	assert.Equal(t, 4000.0, lot.EntryKilos())

	lot.StayDays, lot.PurchasePricePerKg, lot.Origin = &stay, &price, &origin
	assert.Zero(t, lot.Stay())
	assert.Equal(t, 18.5, lot.PurchasePrice())
	assert.Equal(t, "Beni", lot.OriginOrDefault())

	lot.Origin = &empty
	assert.Equal(t, DefaultOrigin, lot.OriginOrDefault())
}

func TestCostTypeHasRole(t *testing.T) {
	tagged := CostType{Name: "Servicios básicos", Role: RoleLabor}
	assert.True(t, tagged.HasRole(RoleLabor))
	assert.False(t, tagged.HasRole(RoleUtilities))

	assert.True(t, CostType{Name: "Servicios básicos"}.HasRole(RoleUtilities))
	assert.True(t, CostType{Name: "Mano de obra"}.HasRole(RoleLabor))
	assert.False(t, CostType{Name: "Flete"}.HasRole(RoleLogistics))
	assert.False(t, CostType{Name: "Energía"}.HasRole(RoleUtilities))
	assert.False(t, CostType{Name: "Servicios"}.HasRole(RoleUnset))
}

func TestCostTypeCountsAs(t *testing.T) {
	tests := []struct {
		name string
		role CostRole
		want bool
	}{
		{"  Compra ", RoleAcquisition, true},
		{"Adquisición", RoleAcquisition, true},
		{"FLETE", RoleLogistics, true},
		{"Alimentación", RoleFeed, true},
		{"Compra de alimento", RoleAcquisition, false},
		{"Compra de alimento", RoleFeed, false},
		{"Alimento balanceado", RoleFeed, false},
		{"Flete terrestre", RoleLogistics, false},
		{"Compra", RoleUnset, false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, CostType{Name: tt.name}.CountsAs(tt.role))
		})
	}

	tagged := CostType{Name: "Compra de alimento", Role: RoleFeed}
	assert.True(t, tagged.CountsAs(RoleFeed))
	assert.False(t, tagged.CountsAs(RoleAcquisition))
}

func TestFeaturesOrderedJSON(t *testing.T) {
	f := NewFeatures([]string{"z", "a", "m"}, []float64{1, 2.5, 0})

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":2.5,"m":0}`, string(raw))

	v, ok := f.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
	_, ok = f.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]float64{"z": 1, "a": 2.5, "m": 0}, f.Map())
	assert.Panics(t, func() { NewFeatures([]string{"a"}, nil) })
}

func TestSnapshotOf(t *testing.T) {
	at := time.Date(2025, time.January, 20, 9, 0, 0, 0, time.UTC)
	bundle := FeatureBundle{
		LotID:    4,
		Version:  FeatureSetV2,
		Features: NewFeatures([]string{"b", "a"}, []float64{2, 1}),
	}

	snap := SnapshotOf("id-1", bundle, at)
	assert.Equal(t, "id-1", snap.ID)
	assert.Equal(t, []string{"b", "a"}, snap.Order)
	assert.Equal(t, 2.0, snap.Features["b"])
	assert.Equal(t, at, snap.CreatedAt)
}

func TestParseFeatureSetVersion(t *testing.T) {
	v, err := ParseFeatureSetVersion("")
	require.NoError(t, err)
	assert.Equal(t, FeatureSetV2, v)

	v, err = ParseFeatureSetVersion("v1")
	require.NoError(t, err)
	assert.Equal(t, FeatureSetV1, v)

	_, err = ParseFeatureSetVersion("v3")
	assert.Error(t, err)
}
