package core

// CostPerKm is price/lifespan, or 0 when either side is not positive.
func (m MaintenanceItem) CostPerKm() float64 {
	if m.Price > 0 && m.LifespanKm > 0 {
		return m.Price / m.LifespanKm
	}
	return 0
}

// NamedItem pairs a maintenance item with a stable identifier.
type NamedItem struct {
	Name string
	Item MaintenanceItem
}

// Item names used in summaries, reports and the sheet mirror.
const (
	ItemOil       = "oil"
	ItemDriveKit  = "driveKit"
	ItemFrontTire = "frontTire"
	ItemRearTire  = "rearTire"
	ItemFuel      = "fuel"
)

// Items lists the five cost sources in a fixed order, fuel last.
func (c CostConfiguration) Items() []NamedItem {
	return []NamedItem{
		{Name: ItemOil, Item: c.Oil},
		{Name: ItemDriveKit, Item: c.DriveKit},
		{Name: ItemFrontTire, Item: c.FrontTire},
		{Name: ItemRearTire, Item: c.RearTire},
		{Name: ItemFuel, Item: c.Fuel.AsItem()},
	}
}

// CostPerKm is the combined running cost of one kilometre.
func (c CostConfiguration) CostPerKm() float64 {
	var total float64
	for _, item := range c.Items() {
		total += item.Item.CostPerKm()
	}
	return total
}

// Distance is the raw odometer difference. It is not clamped.
func (e Entry) Distance() float64 {
	return e.OdometerEnd - e.OdometerStart
}

// ComputeCostBreakdown prices a single entry against a configuration.
//
// The function is total: zero lifespans, zero fuel efficiency and zero
// earnings all resolve to 0 instead of dividing. A malformed entry with
// OdometerEnd < OdometerStart yields a negative distance and the arithmetic
// follows from it; rejecting such entries is the caller's job (Entry.Validate).
func ComputeCostBreakdown(e Entry, cfg CostConfiguration) CostBreakdown {
	distance := e.Distance()
	maintenance := distance * cfg.CostPerKm()
	total := e.FoodExpense + e.OtherExpenses + maintenance

	var pct float64
	if e.GrossEarnings > 0 {
		pct = total / e.GrossEarnings * 100
	}

	return CostBreakdown{
		Distance:          distance,
		MaintenanceCost:   maintenance,
		TotalExpense:      total,
		NetProfit:         e.GrossEarnings - total,
		ExpensePercentage: pct,
	}
}

// ComputeDashboardMetrics folds ComputeCostBreakdown over entries. An empty
// slice produces the zero value.
func ComputeDashboardMetrics(entries []Entry, cfg CostConfiguration) DashboardMetrics {
	var m DashboardMetrics
	for _, e := range entries {
		b := ComputeCostBreakdown(e, cfg)
		m.TotalRevenue += e.GrossEarnings
		m.TotalDistance += b.Distance
		m.TotalExpenses += b.TotalExpense
		m.TotalNetProfit += b.NetProfit
	}
	return m
}
