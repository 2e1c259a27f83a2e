package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/tessera-ml/tessera-go/internal/domain"
)

func TestStepCounterCheckpointRoundtrip(t *testing.T) {
	c := &stepCounter{}
	if err := c.Setup(nil); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Step(ctx); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	var buf bytes.Buffer
	if err := c.SaveCheckpoint(&buf); err != nil {
		t.Fatalf("SaveCheckpoint() error = %v", err)
	}

	restored := &stepCounter{}
	if err := restored.RestoreCheckpoint(&buf); err != nil {
		t.Fatalf("RestoreCheckpoint() error = %v", err)
	}
	metrics, err := restored.Step(ctx)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if metrics["steps"] != uint64(4) {
		t.Fatalf("steps = %v, want 4", metrics["steps"])
	}
}

func TestSleepTrainableRejectsBadSeconds(t *testing.T) {
	var reported []domain.Metadata
	report := func(m domain.Metadata) { reported = append(reported, m) }

	if err := sleepTrainable(context.Background(), domain.Metadata{"seconds": "soon"}, report); err == nil {
		t.Fatal("expected error for non-numeric seconds")
	}
	if err := sleepTrainable(context.Background(), domain.Metadata{"seconds": -1}, report); err == nil {
		t.Fatal("expected error for negative seconds")
	}
	if err := sleepTrainable(context.Background(), domain.Metadata{"seconds": 0}, report); err != nil {
		t.Fatalf("zero seconds should be a no-op, got %v", err)
	}
	if len(reported) != 0 {
		t.Fatalf("no progress expected, got %d reports", len(reported))
	}
}
