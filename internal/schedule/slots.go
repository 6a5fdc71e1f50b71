package schedule

import (
	"slices"
	"time"

	"github.com/benvon/napoleon/internal/models"
)

// Working hours in the configured timezone. Everything outside is treated as busy.
const (
	DayStartHour = 8
	DayEndHour   = 22
)

// Placement is a task assigned to a concrete time range
type Placement struct {
	Task  *models.Task
	Start time.Time
	End   time.Time
}

// DayRange returns midnight to midnight of day in loc
func DayRange(day time.Time, loc *time.Location) models.TimeRange {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return models.TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// NightBlocks returns the busy ranges before DayStartHour and after DayEndHour on day
func NightBlocks(day time.Time, loc *time.Location) []models.TimeRange {
	r := DayRange(day, loc)
	y, m, d := r.Start.Date()
	return []models.TimeRange{
		{Start: r.Start, End: time.Date(y, m, d, DayStartHour, 0, 0, 0, loc)},
		{Start: time.Date(y, m, d, DayEndHour, 0, 0, 0, loc), End: r.End},
	}
}

// mergeRanges sorts ranges and joins overlapping or touching ones
func mergeRanges(ranges []models.TimeRange) []models.TimeRange {
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b models.TimeRange) int { return a.Start.Compare(b.Start) })

	merged := make([]models.TimeRange, 0, len(sorted))
	for _, r := range sorted {
		if !r.End.After(r.Start) {
			continue
		}
		if n := len(merged); n > 0 && !r.Start.After(merged[n-1].End) {
			if r.End.After(merged[n-1].End) {
				merged[n-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// FreeSlots returns the gaps in day not covered by busy, the night blocks or the time before notBefore
func FreeSlots(day time.Time, loc *time.Location, busy []models.TimeRange, notBefore time.Time) []models.TimeRange {
	window := DayRange(day, loc)
	blocked := append(slices.Clone(busy), NightBlocks(day, loc)...)
	if notBefore.After(window.Start) {
		blocked = append(blocked, models.TimeRange{Start: window.Start, End: notBefore})
	}

	free := make([]models.TimeRange, 0)
	cursor := window.Start
	for _, b := range mergeRanges(blocked) {
		if !b.End.After(window.Start) || !b.Start.Before(window.End) {
			continue
		}
		if b.Start.After(cursor) {
			free = append(free, models.TimeRange{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, models.TimeRange{Start: cursor, End: window.End})
	}
	return free
}

// EstimatedDuration converts a task's estimated hours to a duration
func EstimatedDuration(t *models.Task) time.Duration {
	return time.Duration(t.EstimatedTime * float64(time.Hour))
}

// Assign places tasks in order into the first free range long enough to hold them.
// Tasks that fit nowhere are returned as unplaced.
func Assign(tasks []*models.Task, free []models.TimeRange) ([]Placement, []*models.Task) {
	remaining := slices.Clone(free)
	placed := make([]Placement, 0, len(tasks))
	var unplaced []*models.Task

	for _, t := range tasks {
		need := EstimatedDuration(t)
		if need <= 0 {
			unplaced = append(unplaced, t)
			continue
		}
		fitted := false
		for i := range remaining {
			if remaining[i].End.Sub(remaining[i].Start) < need {
				continue
			}
			start := remaining[i].Start
			end := start.Add(need)
			placed = append(placed, Placement{Task: t, Start: start, End: end})
			remaining[i].Start = end
			fitted = true
			break
		}
		if !fitted {
			unplaced = append(unplaced, t)
		}
	}
	return placed, unplaced
}
