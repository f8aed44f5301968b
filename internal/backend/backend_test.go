package backend

import (
	"context"
	"path/filepath"
	"testing"

	"motocusto/internal/config"
	"motocusto/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "postgres", PostgresDSN: "postgres://u:p@db/motocusto", PostgresMaxConns: 7}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != PostgresBackend || got.PostgresMaxConns != 7 {
		t.Errorf("unexpected config %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}, true},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Publisher != nil {
		t.Error("publisher should be nil without AMQP")
	}
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motocusto.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	ctx := context.Background()
	saved, err := res.Store.SaveEntry(ctx, "u1", core.Entry{Date: core.NewDate(2025, 4, 1), OdometerStart: 1, OdometerEnd: 2})
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if _, err := res.Store.GetEntry(ctx, "u1", saved.ID); err != nil {
		t.Errorf("GetEntry: %v", err)
	}
}
