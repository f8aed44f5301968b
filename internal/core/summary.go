package core

import (
	"sort"
	"time"
)

// SeriesPoint is one bar of the per-entry profit chart.
type SeriesPoint struct {
	EntryID       string  `json:"entryId"`
	Date          Date    `json:"date"`
	GrossEarnings float64 `json:"grossEarnings"`
	NetProfit     float64 `json:"netProfit"`
}

// ItemCost is the share of the maintenance bill attributed to one item.
type ItemCost struct {
	Name      string  `json:"name"`
	CostPerKm float64 `json:"costPerKm"`
	Total     float64 `json:"total"`
}

// SortEntries returns a copy ordered by date, ties broken by ID.
func SortEntries(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})
	return sorted
}

// NetProfitSeries builds the chart series in date order. Each point is the
// dashboard aggregation of a one-entry collection, so the series and the
// totals share a single definition of net profit.
func NetProfitSeries(entries []Entry, cfg CostConfiguration) []SeriesPoint {
	sorted := SortEntries(entries)
	points := make([]SeriesPoint, 0, len(sorted))
	for _, e := range sorted {
		m := ComputeDashboardMetrics([]Entry{e}, cfg)
		points = append(points, SeriesPoint{
			EntryID:       e.ID,
			Date:          e.Date,
			GrossEarnings: m.TotalRevenue,
			NetProfit:     m.TotalNetProfit,
		})
	}
	return points
}

// MaintenanceSummary splits the maintenance bill of totalDistance by item.
func MaintenanceSummary(cfg CostConfiguration, totalDistance float64) []ItemCost {
	items := cfg.Items()
	out := make([]ItemCost, 0, len(items))
	for _, item := range items {
		perKm := item.Item.CostPerKm()
		out = append(out, ItemCost{
			Name:      item.Name,
			CostPerKm: perKm,
			Total:     perKm * totalDistance,
		})
	}
	return out
}

// WeekRange returns the Monday and Sunday of the week containing day.
func WeekRange(day Date) (Date, Date) {
	t := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	start := t.AddDate(0, 0, -offset)
	return Date{Time: start}, Date{Time: start.AddDate(0, 0, 6)}
}

// FilterByDateRange keeps entries whose date falls in [from, to], preserving order.
func FilterByDateRange(entries []Entry, from, to Date) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Date.Before(from.Time) || e.Date.After(to.Time) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// MostRecent returns up to n entries with the latest dates, newest first.
func MostRecent(entries []Entry, n int) []Entry {
	sorted := SortEntries(entries)
	out := make([]Entry, 0, n)
	for i := len(sorted) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, sorted[i])
	}
	return out
}
