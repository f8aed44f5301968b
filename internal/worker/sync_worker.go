// Package worker mirrors stored entries, with their computed costs, to the
// spreadsheet. It is driven by AMQP messages and by a periodic sweep of
// entries still pending or in error with attempts left.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"motocusto/internal/amqp"
	"motocusto/internal/core"
	applog "motocusto/internal/log"
	"motocusto/internal/ports"
)

// Store is what the worker reads and updates.
type Store interface {
	ports.EntryStore
	ports.SettingsStore
	ports.SyncStore
}

// SyncWorker recomputes breakdowns with the user's current configuration
// and writes them to the sheet.
type SyncWorker struct {
	store     Store
	sheet     ports.SheetWriter
	batchSize int
	logger    *applog.Logger
}

func NewSyncWorker(store Store, sheet ports.SheetWriter, batchSize int, logger *applog.Logger) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SyncWorker{
		store:     store,
		sheet:     sheet,
		batchSize: batchSize,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleMessage processes one sync message. A returned error requeues it.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		applog.FieldMessageType, msg.Type,
		applog.FieldUserID, msg.UserID,
		applog.FieldEntryID, msg.EntryID,
		applog.FieldEntryVersion, msg.Version)

	switch msg.Type {
	case amqp.EntryUpserted:
		return w.syncEntry(ctx, msg.UserID, msg.EntryID)
	case amqp.EntryDeleted:
		if err := w.sheet.DeleteEntry(ctx, msg.EntryID); err != nil {
			return fmt.Errorf("delete row of entry %s: %w", msg.EntryID, err)
		}
		w.logger.InfoContext(ctx, "Deleted mirrored entry", applog.FieldEntryID, msg.EntryID)
		return nil
	case amqp.ConfigUpdated:
		return w.syncUser(ctx, msg.UserID)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// syncEntry mirrors one entry. An entry deleted in the meantime is skipped;
// its delete message removes the row.
func (w *SyncWorker) syncEntry(ctx context.Context, userID, entryID string) error {
	var (
		e   core.Entry
		cfg core.CostConfiguration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		e, err = w.store.GetEntry(gctx, userID, entryID)
		return err
	})
	g.Go(func() error {
		var err error
		cfg, err = w.store.LoadConfiguration(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.InfoContext(ctx, "Entry no longer exists, skipping",
				applog.FieldUserID, userID, applog.FieldEntryID, entryID)
			return nil
		}
		return fmt.Errorf("load entry %s: %w", entryID, err)
	}
	return w.push(ctx, userID, e, cfg)
}

// syncUser re-mirrors every entry of the user after a configuration change.
func (w *SyncWorker) syncUser(ctx context.Context, userID string) error {
	cfg, err := w.store.LoadConfiguration(ctx, userID)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	entries, err := w.store.LoadEntries(ctx, userID)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}

	var failed int
	for _, e := range entries {
		if err := w.push(ctx, userID, e, cfg); err != nil {
			failed++
		}
	}
	w.logger.InfoContext(ctx, "Re-synced entries after configuration change",
		applog.FieldUserID, userID,
		applog.FieldConfigVersion, cfg.Version,
		applog.FieldCount, len(entries),
		"failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d entries failed to sync", failed, len(entries))
	}
	return nil
}

func (w *SyncWorker) push(ctx context.Context, userID string, e core.Entry, cfg core.CostConfiguration) error {
	b := core.ComputeCostBreakdown(e, cfg)
	if err := w.sheet.UpsertEntry(ctx, ports.SheetRow{UserID: userID, Entry: e, Breakdown: b}); err != nil {
		if markErr := w.store.MarkSyncError(ctx, e.ID, e.Version); markErr != nil {
			w.logger.Failure(ctx, "Failed to mark sync error", markErr, applog.FieldEntryID, e.ID)
		}
		w.logger.Failure(ctx, "Failed to mirror entry", err, applog.NewFields().
			WithEntry(userID, e.ID, e.Version).ToSlice()...)
		return fmt.Errorf("upsert entry %s: %w", e.ID, err)
	}

	if err := w.store.MarkSynced(ctx, e.ID, e.Version); err != nil {
		// the row is written; the next sweep will rewrite it
		w.logger.Failure(ctx, "Failed to mark as synced", err, applog.FieldEntryID, e.ID)
	}

	w.logger.InfoContext(ctx, "Mirrored entry", append(applog.NewFields().
		WithEntry(userID, e.ID, e.Version).ToSlice(),
		applog.FieldNetProfit, b.NetProfit)...)
	return nil
}

// ProcessPending syncs up to one batch of entries still pending or in error
// with attempts left. It covers messages that were never published or got
// lost and failed writes to the sheet.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck gives entries that ran out of attempts a new round and
// runs a larger sweep before consuming begins.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	reset, err := w.store.RetryFailedSyncs(ctx)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if reset > 0 {
		w.logger.InfoContext(ctx, "Reset failed entries for retry", applog.FieldCount, reset)
	}

	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed", "synced", synced, "errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending entries: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending entries", applog.FieldCount, len(pending))
	for _, p := range pending {
		if err := w.syncEntry(ctx, p.UserID, p.EntryID); err != nil {
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// RunSweeper calls ProcessPending every interval until ctx is done.
func (w *SyncWorker) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Pending sweep stopped")
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.Failure(ctx, "Pending sweep failed", err)
			}
		}
	}
}
