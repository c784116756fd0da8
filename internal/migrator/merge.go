package migrator

import (
	"sort"
	"time"

	"github.com/meltforce/strongmig/internal/models"
)

// Merge concatenates per-file streams in processing order and stable-sorts the
// copy by calendar date. Records sharing a date keep file order, then
// production order, whatever their time of day. The inputs are not modified.
func Merge(streams ...[]models.SetRecord) []models.SetRecord {
	total := 0
	for _, s := range streams {
		total += len(s)
	}
	merged := make([]models.SetRecord, 0, total)
	for _, s := range streams {
		merged = append(merged, s...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return calendarDay(merged[i].Date).Before(calendarDay(merged[j].Date))
	})
	return merged
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
