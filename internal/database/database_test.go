package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shaniyajacobs/NewCircuit-sub000/internal/config"
	"github.com/shaniyajacobs/NewCircuit-sub000/internal/models"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{
		DatabaseDriver: config.DriverSQLite,
		DatabasePath:   filepath.Join(t.TempDir(), "circuit.db"),
	}
	s, closeFn, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeFn()

	ctx := context.Background()
	if err := s.CreateEvent(ctx, &models.Event{ID: "ev-1", MenSpots: 1}); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	ev, err := s.Event(ctx, "ev-1")
	if err != nil {
		t.Fatalf("Event failed: %v", err)
	}
	if ev.MenSpots != 1 {
		t.Errorf("expected men spots 1, got %d", ev.MenSpots)
	}
}

func TestNewPoolRejectsBadURL(t *testing.T) {
	if _, err := NewPool(context.Background(), "postgres://circuit@localhost:notaport/circuit"); err == nil {
		t.Fatal("expected parse error")
	}
}
