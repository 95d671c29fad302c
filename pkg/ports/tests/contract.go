// Package tests provides reusable contract suites for ports implementations.
package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arbored/weft/pkg/domain"
	"github.com/arbored/weft/pkg/ports"
)

// RunStoreContractTest is a reusable test suite that verifies an adapter
// complies with ports.RunStore.
func RunStoreContractTest(t *testing.T, store ports.RunStore) {
	t.Helper()
	ctx := context.Background()

	record := &domain.RunRecord{
		ID:        "run-1",
		Graph:     "stock-analysis",
		Final:     domain.Snapshot{"symbol": "AAPL", "score": float64(7)},
		StartedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("unexpected error saving record: %v", err)
		}

		loaded, err := store.Load(ctx, "run-1")
		if err != nil {
			t.Fatalf("unexpected error loading record: %v", err)
		}
		if loaded.Graph != record.Graph {
			t.Errorf("graph mismatch. got %q, want %q", loaded.Graph, record.Graph)
		}
		if !loaded.StartedAt.Equal(record.StartedAt) {
			t.Errorf("started_at mismatch. got %v, want %v", loaded.StartedAt, record.StartedAt)
		}
		if got := loaded.Final["symbol"]; got != "AAPL" {
			t.Errorf("final state mismatch. got %v, want AAPL", got)
		}
		if !loaded.Succeeded() {
			t.Error("record without error must report success")
		}
	})

	t.Run("LoadIsolation", func(t *testing.T) {
		loaded, err := store.Load(ctx, "run-1")
		if err != nil {
			t.Fatalf("unexpected error loading record: %v", err)
		}
		loaded.Final["symbol"] = "mutated"

		again, err := store.Load(ctx, "run-1")
		if err != nil {
			t.Fatalf("unexpected error reloading record: %v", err)
		}
		if again.Final["symbol"] != "AAPL" {
			t.Error("mutating a loaded record leaked back into the store")
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		failed := &domain.RunRecord{
			ID:         "run-1",
			Graph:      "stock-analysis",
			FailedNode: "collect_data",
			Error:      "upstream unavailable",
			StartedAt:  record.StartedAt,
		}
		if err := store.Save(ctx, failed); err != nil {
			t.Fatalf("unexpected error overwriting record: %v", err)
		}

		loaded, err := store.Load(ctx, "run-1")
		if err != nil {
			t.Fatalf("unexpected error loading record: %v", err)
		}
		if loaded.Succeeded() {
			t.Error("overwritten record must report failure")
		}
		if loaded.FailedNode != "collect_data" {
			t.Errorf("failed node mismatch. got %q", loaded.FailedNode)
		}
	})

	t.Run("LoadNotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-run")
		if !errors.Is(err, domain.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		second := &domain.RunRecord{ID: "run-2", Graph: "stock-analysis", StartedAt: time.Now().UTC()}
		if err := store.Save(ctx, second); err != nil {
			t.Fatalf("unexpected error saving record: %v", err)
		}

		ids, err := store.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing runs: %v", err)
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for _, want := range []string{"run-1", "run-2"} {
			if !lookup[want] {
				t.Errorf("run %s missing from list", want)
			}
		}
	})

	t.Run("PendingRoundTrip", func(t *testing.T) {
		pending := &domain.RunRecord{ID: "run-3", Graph: "stock-analysis", StartedAt: time.Now().UTC()}
		if err := store.Save(ctx, pending); err != nil {
			t.Fatalf("unexpected error saving pending record: %v", err)
		}

		loaded, err := store.Load(ctx, "run-3")
		if err != nil {
			t.Fatalf("unexpected error loading pending record: %v", err)
		}
		// Nil means "no final state yet". An empty snapshot here would make
		// an in-flight run look finished to anyone polling its status.
		if loaded.Final != nil {
			t.Errorf("pending record must keep a nil final state, got %v", loaded.Final)
		}

		if err := store.Delete(ctx, "run-3"); err != nil {
			t.Fatalf("unexpected error cleaning up pending record: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "run-2"); err != nil {
			t.Fatalf("unexpected error deleting run: %v", err)
		}
		if _, err := store.Load(ctx, "run-2"); !errors.Is(err, domain.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "run-2"); err != nil {
			t.Errorf("deleting an absent run must not fail: %v", err)
		}
	})
}
