package features

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/lotprice/internal/domain/models"
)

func TestCalendarLookup_NearestHoliday(t *testing.T) {
	lotDate := date(2025, time.January, 15)

	tests := []struct {
		name     string
		holidays []models.Holiday
		want     HolidayProximity
	}{
		{
			name: "no holidays",
			want: HolidayProximity{DaysUntil: 999},
		},
		{
			name:     "same day",
			holidays: []models.Holiday{{Name: "Aniversario", Date: lotDate}},
			want:     HolidayProximity{Upcoming: true, DaysUntil: 0, Name: "Aniversario"},
		},
		{
			name:     "exactly seven days ahead",
			holidays: []models.Holiday{{Name: "Alasitas", Date: lotDate.AddDate(0, 0, 7)}},
			want:     HolidayProximity{Upcoming: true, DaysUntil: 7, Name: "Alasitas"},
		},
		{
			name:     "eight days ahead is out of range",
			holidays: []models.Holiday{{Name: "Alasitas", Date: lotDate.AddDate(0, 0, 8)}},
			want:     HolidayProximity{DaysUntil: 999},
		},
		{
			name:     "past holiday ignored",
			holidays: []models.Holiday{{Name: "Reyes", Date: lotDate.AddDate(0, 0, -1)}},
			want:     HolidayProximity{DaysUntil: 999},
		},
		{
			name: "earliest wins",
			holidays: []models.Holiday{
				{Name: "Later", Date: lotDate.AddDate(0, 0, 6)},
				{Name: "Sooner", Date: lotDate.AddDate(0, 0, 2)},
			},
			want: HolidayProximity{Upcoming: true, DaysUntil: 2, Name: "Sooner"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{holidays: tt.holidays}
			lookup := NewCalendarLookup(store, DefaultEngineConfig())

			got, err := lookup.NearestHoliday(context.Background(), lotDate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalendarLookup_IgnoresTimeOfDay(t *testing.T) {
	store := &fakeStore{holidays: []models.Holiday{{Name: "Carnaval", Date: date(2025, time.March, 3)}}}
	lookup := NewCalendarLookup(store, DefaultEngineConfig())

	got, err := lookup.NearestHoliday(context.Background(), time.Date(2025, time.February, 24, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, got.Upcoming)
	assert.Equal(t, 7, got.DaysUntil)
}

func TestCalendarLookup_StoreError(t *testing.T) {
	boom := errors.New("connection refused")
	lookup := NewCalendarLookup(&fakeStore{err: boom}, DefaultEngineConfig())

	_, err := lookup.NearestHoliday(context.Background(), date(2025, time.January, 1))
	assert.ErrorIs(t, err, boom)
}

func TestMondayWeekday(t *testing.T) {
	assert.Equal(t, 0, mondayWeekday(date(2025, time.January, 13)))
	assert.Equal(t, 2, mondayWeekday(date(2025, time.January, 15)))
	assert.Equal(t, 6, mondayWeekday(date(2025, time.January, 19)))
}
