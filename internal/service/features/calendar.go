package features

import (
	"context"
	"time"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
)

// HolidayProximity describes the nearest holiday after a date.
type HolidayProximity struct {
	Upcoming  bool
	DaysUntil int
	Name      string
}

// CalendarLookup finds holidays close to an acquisition date.
type CalendarLookup struct {
	store ports.LotStore
	cfg   EngineConfig
}

// NewCalendarLookup builds a lookup over store.
func NewCalendarLookup(store ports.LotStore, cfg EngineConfig) *CalendarLookup {
	return &CalendarLookup{store: store, cfg: cfg}
}

// NearestHoliday returns the earliest holiday within the horizon starting at date,
// both ends inclusive. When none exists DaysUntil is the configured sentinel.
func (l *CalendarLookup) NearestHoliday(ctx context.Context, date time.Time) (HolidayProximity, error) {
	window := models.DaysAround(date, 0, l.cfg.HolidayHorizonDays)
	holidays, err := l.store.ListHolidays(ctx, window)
	if err != nil {
		return HolidayProximity{}, err
	}

	result := HolidayProximity{DaysUntil: l.cfg.NoHolidaySentinel}
	day := models.Day(date)
	for _, h := range holidays {
		days := daysBetween(day, models.Day(h.Date))
		if days < 0 || days > l.cfg.HolidayHorizonDays {
			continue
		}
		if !result.Upcoming || days < result.DaysUntil {
			result = HolidayProximity{Upcoming: true, DaysUntil: days, Name: h.Name}
		}
	}
	return result, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Round(time.Hour).Hours() / 24)
}

func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
