package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/tessera-ml/tessera-go/internal/domain"
	"github.com/tessera-ml/tessera-go/internal/registry"
)

// builtinRegistry holds the trainables this deployment ships with.
// Suites and API batches reference these by name.
func builtinRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := reg.RegisterFunc("noop", noopTrainable); err != nil {
		return nil, err
	}
	if err := reg.RegisterFunc("sleep", sleepTrainable); err != nil {
		return nil, err
	}
	if err := reg.RegisterClass("step_counter", func() domain.ClassTrainable {
		return &stepCounter{}
	}); err != nil {
		return nil, err
	}
	return reg, nil
}

func noopTrainable(ctx context.Context, config domain.Metadata, report domain.ProgressFunc) error {
	report(domain.Metadata{"done": true})
	return nil
}

// sleepTrainable idles for config["seconds"] seconds, reporting once per
// second. Used to exercise scheduling without real training work.
func sleepTrainable(ctx context.Context, config domain.Metadata, report domain.ProgressFunc) error {
	seconds := 1
	if raw, ok := config["seconds"]; ok {
		switch v := raw.(type) {
		case int:
			seconds = v
		case float64:
			seconds = int(v)
		default:
			return fmt.Errorf("seconds must be a number, got %T", raw)
		}
	}
	if seconds < 0 {
		return fmt.Errorf("seconds must be >= 0, got %d", seconds)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for i := 0; i < seconds; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			report(domain.Metadata{"elapsed_seconds": i + 1})
		}
	}
	return nil
}

// stepCounter is a minimal stateful trainable: each step increments a
// counter that survives checkpoint and restore.
type stepCounter struct {
	steps uint64
}

func (c *stepCounter) Setup(config domain.Metadata) error {
	c.steps = 0
	return nil
}

func (c *stepCounter) Step(ctx context.Context) (domain.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.steps++
	return domain.Metadata{"steps": c.steps}, nil
}

func (c *stepCounter) SaveCheckpoint(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, c.steps)
}

func (c *stepCounter) RestoreCheckpoint(r io.Reader) error {
	return binary.Read(r, binary.BigEndian, &c.steps)
}
