package services

import (
	"context"
	"errors"
	"fmt"

	"motocusto/internal/core"
	applog "motocusto/internal/log"
	"motocusto/internal/ports"
)

const (
	// AdviceWindow is how many of the latest entries the advisor sees.
	AdviceWindow = 20
	// MinAdviceEntries is the smallest history worth sending.
	MinAdviceEntries = 3
	// MaxSuggestions caps what is returned to the user.
	MaxSuggestions = 2
)

var (
	ErrNotEnoughEntries = errors.New("at least 3 entries are needed for suggestions")
	// ErrAdvisorUnavailable wraps every advisor failure so callers can tell
	// it apart from storage errors.
	ErrAdvisorUnavailable = errors.New("suggestions are unavailable right now")
)

// AdviceService asks the advisor for suggestions based on recent history.
// It only reads entries; nothing it does affects the computed costs.
type AdviceService struct {
	entries ports.EntryStore
	advisor ports.Advisor
	logger  *applog.Logger
}

func NewAdviceService(entries ports.EntryStore, advisor ports.Advisor, logger *applog.Logger) *AdviceService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AdviceService{
		entries: entries,
		advisor: advisor,
		logger:  logger.WithComponent(applog.ComponentAdvisor),
	}
}

func (s *AdviceService) Suggest(ctx context.Context, userID string) ([]string, error) {
	entries, err := s.entries.LoadEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	if len(entries) < MinAdviceEntries {
		return nil, ErrNotEnoughEntries
	}

	suggestions, err := s.advisor.Suggest(ctx, AdvisorInput(entries))
	if err != nil {
		s.logger.Failure(ctx, "Advisor request failed", err, applog.FieldUserID, userID)
		return nil, fmt.Errorf("%w: %v", ErrAdvisorUnavailable, err)
	}
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}

	s.logger.InfoContext(ctx, "Suggestions generated",
		applog.FieldUserID, userID,
		applog.FieldCount, len(suggestions))
	return suggestions, nil
}

// AdvisorInput keeps the latest AdviceWindow entries, oldest first.
func AdvisorInput(entries []core.Entry) []ports.AdvisorEntry {
	recent := core.MostRecent(entries, AdviceWindow)
	out := make([]ports.AdvisorEntry, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		e := recent[i]
		out = append(out, ports.AdvisorEntry{
			Date:          e.Date.String(),
			DistanceKm:    e.Distance(),
			FoodExpense:   e.FoodExpense,
			OtherExpenses: e.OtherExpenses,
			GrossEarnings: e.GrossEarnings,
		})
	}
	return out
}
