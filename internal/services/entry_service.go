// Package services orchestrates the stores, the cost model and the event
// publisher behind the HTTP handlers and the worker.
package services

import (
	"context"
	"fmt"

	"motocusto/internal/amqp"
	"motocusto/internal/core"
	applog "motocusto/internal/log"
	"motocusto/internal/ports"
)

// Publisher sends sync notifications. *amqp.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, msg *amqp.SyncMessage) error
}

// EntryRepository is the slice of a store the entry service writes to.
type EntryRepository interface {
	ports.EntryStore
	ports.SettingsStore
}

// EntryService saves entries and configurations locally and then notifies
// the worker. Notification failures never fail the request.
type EntryService struct {
	store     EntryRepository
	publisher Publisher
	logger    *applog.Logger
}

// NewEntryService accepts a nil publisher for setups without a broker.
func NewEntryService(store EntryRepository, publisher Publisher, logger *applog.Logger) *EntryService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &EntryService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentEntry),
	}
}

func (s *EntryService) List(ctx context.Context, userID string) ([]core.Entry, error) {
	entries, err := s.store.LoadEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return entries, nil
}

func (s *EntryService) Get(ctx context.Context, userID, entryID string) (core.Entry, error) {
	return s.store.GetEntry(ctx, userID, entryID)
}

// Save validates and stores the entry. An empty ID creates a new one.
func (s *EntryService) Save(ctx context.Context, userID string, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	op := applog.OpUpdate
	if e.ID == "" {
		op = applog.OpCreate
	}
	saved, err := s.store.SaveEntry(ctx, userID, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	s.logger.InfoContext(ctx, "Entry saved", applog.NewFields().
		WithOperation(op).
		WithEntry(userID, saved.ID, saved.Version).ToSlice()...)

	s.publish(ctx, amqp.NewEntryUpserted(userID, saved.ID, saved.Version))
	return saved, nil
}

func (s *EntryService) Delete(ctx context.Context, userID, entryID string) error {
	if err := s.store.DeleteEntry(ctx, userID, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	s.logger.InfoContext(ctx, "Entry deleted",
		applog.FieldUserID, userID, applog.FieldEntryID, entryID)

	s.publish(ctx, amqp.NewEntryDeleted(userID, entryID))
	return nil
}

// Configuration returns the zero configuration for users that never saved one.
func (s *EntryService) Configuration(ctx context.Context, userID string) (core.CostConfiguration, error) {
	cfg, err := s.store.LoadConfiguration(ctx, userID)
	if err != nil {
		return core.CostConfiguration{}, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfiguration replaces the user's configuration. Every breakdown of
// the user changes with it.
func (s *EntryService) SaveConfiguration(ctx context.Context, userID string, cfg core.CostConfiguration) (core.CostConfiguration, error) {
	if err := cfg.Validate(); err != nil {
		return core.CostConfiguration{}, err
	}
	saved, err := s.store.SaveConfiguration(ctx, userID, cfg)
	if err != nil {
		return core.CostConfiguration{}, fmt.Errorf("save configuration: %w", err)
	}

	s.logger.InfoContext(ctx, "Configuration saved",
		applog.FieldUserID, userID,
		applog.FieldConfigVersion, saved.Version)

	s.publish(ctx, amqp.NewConfigUpdated(userID, saved.Version))
	return saved, nil
}

func (s *EntryService) publish(ctx context.Context, msg *amqp.SyncMessage) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping sync message",
			applog.FieldMessageType, msg.Type)
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		// the pending sweep picks the entry up later
		s.logger.Failure(ctx, "Failed to publish sync message", err,
			applog.FieldMessageType, msg.Type,
			applog.FieldUserID, msg.UserID,
			applog.FieldEntryID, msg.EntryID)
	}
}
