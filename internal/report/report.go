// Package report renders entries and their breakdowns as an xlsx workbook.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"motocusto/internal/core"
)

const (
	EntriesSheet = "Entries"
	SummarySheet = "Summary"
)

var entryHeaders = []any{
	"Date", "Odometer start", "Odometer end", "Distance (km)", "Gross earnings",
	"Food", "Other", "Maintenance", "Total expense", "Net profit", "Expense %",
}

// WriteEntriesXLSX writes one row per entry, oldest first, followed by a
// summary sheet with the totals and the per-item maintenance costs.
func WriteEntriesXLSX(w io.Writer, entries []core.Entry, cfg core.CostConfiguration) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EntriesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeEntries(f, core.SortEntries(entries), cfg); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummary(f, entries, cfg); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEntries(f *excelize.File, entries []core.Entry, cfg core.CostConfiguration) error {
	if err := f.SetSheetRow(EntriesSheet, "A1", &entryHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range entries {
		b := core.ComputeCostBreakdown(e, cfg)
		row := []any{
			e.Date.String(), e.OdometerStart, e.OdometerEnd, b.Distance, e.GrossEarnings,
			e.FoodExpense, e.OtherExpenses, b.MaintenanceCost, b.TotalExpense, b.NetProfit, b.ExpensePercentage,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(EntriesSheet, cell, &row); err != nil {
			return fmt.Errorf("write entry %s: %w", e.ID, err)
		}
	}
	return f.SetColWidth(EntriesSheet, "A", "K", 15)
}

func writeSummary(f *excelize.File, entries []core.Entry, cfg core.CostConfiguration) error {
	m := core.ComputeDashboardMetrics(entries, cfg)
	rows := [][]any{
		{"Total revenue", m.TotalRevenue},
		{"Total expenses", m.TotalExpenses},
		{"Net profit", m.TotalNetProfit},
		{"Total distance (km)", m.TotalDistance},
		{"Cost per km", cfg.CostPerKm()},
		{"Entries", len(entries)},
		{},
		{"Item", "Cost per km", "Total"},
	}
	for _, item := range core.MaintenanceSummary(cfg, m.TotalDistance) {
		rows = append(rows, []any{item.Name, item.CostPerKm, item.Total})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 22)
}
