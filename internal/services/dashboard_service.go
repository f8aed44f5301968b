package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"motocusto/internal/cache"
	"motocusto/internal/core"
	applog "motocusto/internal/log"
	"motocusto/internal/ports"
)

// DashboardReader is the read side the dashboard needs.
type DashboardReader interface {
	LoadEntries(ctx context.Context, userID string) ([]core.Entry, error)
	LoadConfiguration(ctx context.Context, userID string) (core.CostConfiguration, error)
	GetEntry(ctx context.Context, userID, entryID string) (core.Entry, error)
}

var _ DashboardReader = (ports.Store)(nil)

// Dashboard is everything the dashboard screen shows for one user.
type Dashboard struct {
	Metrics       core.DashboardMetrics  `json:"metrics"`
	Series        []core.SeriesPoint     `json:"series"`
	Maintenance   []core.ItemCost        `json:"maintenance"`
	CostPerKm     float64                `json:"costPerKm"`
	EntryCount    int                    `json:"entryCount"`
	Configuration core.CostConfiguration `json:"configuration"`
}

// EntryBreakdown pairs an entry with its computed costs.
type EntryBreakdown struct {
	Entry     core.Entry         `json:"entry"`
	Breakdown core.CostBreakdown `json:"breakdown"`
}

// Week is the Monday to Sunday view containing a given day.
type Week struct {
	Start   core.Date             `json:"start"`
	End     core.Date             `json:"end"`
	Entries []EntryBreakdown      `json:"entries"`
	Metrics core.DashboardMetrics `json:"metrics"`
}

type DashboardService struct {
	store      DashboardReader
	breakdowns *cache.BreakdownCache
	logger     *applog.Logger
}

// NewDashboardService accepts a nil cache; breakdowns are then always
// recomputed.
func NewDashboardService(store DashboardReader, breakdowns *cache.BreakdownCache, logger *applog.Logger) *DashboardService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DashboardService{
		store:      store,
		breakdowns: breakdowns,
		logger:     logger.WithComponent(applog.ComponentDashboard),
	}
}

// load fetches configuration and entries concurrently.
// History returns the user's configuration and entries, oldest first,
// without computing anything.
func (s *DashboardService) History(ctx context.Context, userID string) (core.CostConfiguration, []core.Entry, error) {
	cfg, entries, err := s.load(ctx, userID)
	if err != nil {
		return core.CostConfiguration{}, nil, err
	}
	return cfg, core.SortEntries(entries), nil
}

func (s *DashboardService) load(ctx context.Context, userID string) (core.CostConfiguration, []core.Entry, error) {
	var (
		cfg     core.CostConfiguration
		entries []core.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.store.LoadConfiguration(gctx, userID)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = s.store.LoadEntries(gctx, userID)
		if err != nil {
			return fmt.Errorf("load entries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.CostConfiguration{}, nil, err
	}
	return cfg, entries, nil
}

func (s *DashboardService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	cfg, entries, err := s.load(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	metrics := core.ComputeDashboardMetrics(entries, cfg)
	d := Dashboard{
		Metrics:       metrics,
		Series:        core.NetProfitSeries(entries, cfg),
		Maintenance:   core.MaintenanceSummary(cfg, metrics.TotalDistance),
		CostPerKm:     cfg.CostPerKm(),
		EntryCount:    len(entries),
		Configuration: cfg,
	}

	s.logger.DebugContext(ctx, "Dashboard computed",
		applog.FieldUserID, userID,
		applog.FieldCount, len(entries),
		applog.FieldConfigVersion, cfg.Version)
	return d, nil
}

// Week returns the entries of the week containing day, each with its
// breakdown, plus the week's totals.
func (s *DashboardService) Week(ctx context.Context, userID string, day core.Date) (Week, error) {
	if err := day.Validate(); err != nil {
		return Week{}, err
	}
	cfg, entries, err := s.load(ctx, userID)
	if err != nil {
		return Week{}, err
	}

	start, end := core.WeekRange(day)
	inWeek := core.SortEntries(core.FilterByDateRange(entries, start, end))

	w := Week{
		Start:   start,
		End:     end,
		Entries: make([]EntryBreakdown, 0, len(inWeek)),
		Metrics: core.ComputeDashboardMetrics(inWeek, cfg),
	}
	for _, e := range inWeek {
		w.Entries = append(w.Entries, EntryBreakdown{Entry: e, Breakdown: s.breakdowns.Breakdown(e, cfg)})
	}
	return w, nil
}

// Breakdown computes the costs of a single stored entry.
func (s *DashboardService) Breakdown(ctx context.Context, userID, entryID string) (EntryBreakdown, error) {
	var (
		cfg core.CostConfiguration
		e   core.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = s.store.LoadConfiguration(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		e, err = s.store.GetEntry(gctx, userID, entryID)
		return err
	})
	if err := g.Wait(); err != nil {
		return EntryBreakdown{}, err
	}
	return EntryBreakdown{Entry: e, Breakdown: s.breakdowns.Breakdown(e, cfg)}, nil
}

// Breakdowns computes every entry of the user, in date order.
func (s *DashboardService) Breakdowns(ctx context.Context, userID string) ([]EntryBreakdown, core.CostConfiguration, error) {
	cfg, entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, core.CostConfiguration{}, err
	}
	sorted := core.SortEntries(entries)
	out := make([]EntryBreakdown, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, EntryBreakdown{Entry: e, Breakdown: s.breakdowns.Breakdown(e, cfg)})
	}
	return out, cfg, nil
}
