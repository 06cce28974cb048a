package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"positionScope/internal/model"
)

func sampleDecision(reason model.Reason, tick int) model.RebalanceDecision {
	return model.RebalanceDecision{
		ShouldRebalance: reason != model.ReasonNone,
		Reason:          reason,
		Urgency:         model.UrgencyLow,
		CurrentRange:    model.Band{TickLower: -120, TickUpper: 120},
		Pool: model.PoolSnapshot{
			Address:      "0x0000000000000000000000000000000000000001",
			CurrentTick:  tick,
			SqrtPriceX96: "79228162514264337593543950336",
		},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestJsonlStoreAppendAndLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	store := NewJsonlStore(path)
	ctx := context.Background()

	if err := store.Append(ctx, sampleDecision(model.ReasonNone, 10)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, sampleDecision(model.ReasonOutOfRange, 500)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, ok, err := store.Last(ctx)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if !ok {
		t.Fatalf("expected a stored decision")
	}
	if got.Reason != model.ReasonOutOfRange {
		t.Fatalf("reason mismatch: %s", got.Reason)
	}
	if got.Pool.CurrentTick != 500 {
		t.Fatalf("tick mismatch: %d", got.Pool.CurrentTick)
	}
	if !got.ShouldRebalance {
		t.Fatalf("expected should_rebalance to survive the round trip")
	}
}

func TestJsonlStoreLastRebalance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	store := NewJsonlStore(path)
	ctx := context.Background()

	for _, d := range []model.RebalanceDecision{
		sampleDecision(model.ReasonOutOfRange, 900),
		sampleDecision(model.ReasonTimeCapExceeded, 300),
		sampleDecision(model.ReasonNone, 10),
		sampleDecision(model.ReasonNone, 11),
	} {
		if err := store.Append(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, ok, err := store.LastRebalance(ctx)
	if err != nil {
		t.Fatalf("last rebalance: %v", err)
	}
	if !ok {
		t.Fatalf("expected a recommended decision")
	}
	if got.Reason != model.ReasonTimeCapExceeded || got.Pool.CurrentTick != 300 {
		t.Fatalf("got %s at tick %d, want the latest recommended decision", got.Reason, got.Pool.CurrentTick)
	}

	last, ok, err := store.Last(ctx)
	if err != nil || !ok {
		t.Fatalf("last: %v ok=%v", err, ok)
	}
	if last.Reason != model.ReasonNone {
		t.Fatalf("last of any kind = %s, want NONE", last.Reason)
	}
}

func TestJsonlStoreLastRebalanceNoneRecommended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	store := NewJsonlStore(path)
	ctx := context.Background()

	if err := store.Append(ctx, sampleDecision(model.ReasonNone, 5)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, ok, err := store.LastRebalance(ctx); err != nil || ok {
		t.Fatalf("expected no recommended decision, ok=%v err=%v", ok, err)
	}
}

func TestJsonlStoreLastMissingFile(t *testing.T) {
	store := NewJsonlStore(filepath.Join(t.TempDir(), "absent.jsonl"))

	_, ok, err := store.Last(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no decision for a missing file")
	}
}

func TestJsonlStoreCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "decisions.jsonl")
	store := NewJsonlStore(path)

	if err := store.Append(context.Background(), sampleDecision(model.ReasonNone, 0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}

func TestJsonlStoreLastSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	store := NewJsonlStore(path)
	ctx := context.Background()

	if err := store.Append(ctx, sampleDecision(model.ReasonTimeCapExceeded, 77)); err != nil {
		t.Fatalf("append: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("\n\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	got, ok, err := store.Last(ctx)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if !ok || got.Reason != model.ReasonTimeCapExceeded {
		t.Fatalf("expected time cap decision, got ok=%v reason=%s", ok, got.Reason)
	}
}
