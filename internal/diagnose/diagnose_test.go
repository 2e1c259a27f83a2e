package diagnose

import (
	"strings"
	"sync"
	"testing"
)

func TestDiagnoseCapturedChannel(t *testing.T) {
	// Mirrors the classic mistake: a synchronization primitive captured
	// from the enclosing scope instead of built inside the task.
	e := make(chan struct{})

	report := Diagnose(Captures(Var("e", e)))
	if report == nil {
		t.Fatalf("expected a report for a captured channel")
	}
	if report.Name != "e" {
		t.Fatalf("Name=%q, want e", report.Name)
	}
	if !report.Isolated {
		t.Fatalf("expected isolated report")
	}
	if !strings.Contains(report.Path, `captured variable "e"`) {
		t.Fatalf("Path=%q", report.Path)
	}
	if report.Cause == nil {
		t.Fatalf("expected a cause")
	}
}

func TestDiagnoseNoCaptures(t *testing.T) {
	// The corrected task builds its channel inside its own body, so the
	// capture set is empty and nothing blocks shipping.
	if report := Diagnose(Captures()); report != nil {
		t.Fatalf("expected nil report, got %v", report)
	}
}

func TestDiagnoseSerializableCaptures(t *testing.T) {
	caps := Captures(
		Var("lr", 0.01),
		Var("name", "trial-1"),
		Var("config", map[string]any{"epochs": 10, "layers": []any{64, 32}}),
	)
	if report := Diagnose(caps); report != nil {
		t.Fatalf("expected nil report, got %v", report)
	}
}

func TestDiagnoseMutexCapture(t *testing.T) {
	var mu sync.Mutex
	report := Diagnose(Captures(Var("mu", &mu)))
	if report == nil {
		t.Fatalf("expected a report for a captured mutex")
	}
	if report.Name != "mu" {
		t.Fatalf("Name=%q, want mu", report.Name)
	}
}

func TestDiagnoseRefinesPathIntoStruct(t *testing.T) {
	type handle struct {
		Events chan struct{}
	}
	type trialState struct {
		Name   string
		Handle handle
	}
	state := trialState{Name: "t1", Handle: handle{Events: make(chan struct{})}}

	report := Diagnose(Captures(Var("state", state)))
	if report == nil {
		t.Fatalf("expected a report")
	}
	if want := `captured variable "state".Handle.Events`; report.Path != want {
		t.Fatalf("Path=%q, want %q", report.Path, want)
	}
}

func TestDiagnoseRefinesPathIntoMap(t *testing.T) {
	captured := map[string]any{
		"ok":   1,
		"sync": make(chan struct{}),
	}
	report := Diagnose(Captures(Var("env", captured)))
	if report == nil {
		t.Fatalf("expected a report")
	}
	if want := `captured variable "env"[sync]`; report.Path != want {
		t.Fatalf("Path=%q, want %q", report.Path, want)
	}
}

func TestDiagnoseReportsFirstFailingCapture(t *testing.T) {
	report := Diagnose(Captures(
		Var("fine", 1),
		Var("first", make(chan struct{})),
		Var("second", make(chan struct{})),
	))
	if report == nil || report.Name != "first" {
		t.Fatalf("report=%v, want first capture blamed", report)
	}
}

func TestDiagnoseCyclicValueNotIsolated(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	report := Diagnose(Captures(Var("c", cyclic)))
	if report == nil {
		t.Fatalf("expected a report for a cyclic capture")
	}
	if report.Isolated {
		t.Fatalf("expected non-isolated report")
	}
	if !strings.Contains(report.String(), "no single captured reference") {
		t.Fatalf("String()=%q", report.String())
	}
}

func TestDiagnoseNilCaptureValue(t *testing.T) {
	if report := Diagnose(Captures(Var("absent", nil))); report != nil {
		t.Fatalf("expected nil report, got %v", report)
	}
}

func TestDiagnoseDoesNotMutateCaptures(t *testing.T) {
	config := map[string]any{"lr": 0.01}
	_ = Diagnose(Captures(Var("config", config), Var("e", make(chan struct{}))))
	if len(config) != 1 || config["lr"] != 0.01 {
		t.Fatalf("inspected map was mutated: %v", config)
	}
}
