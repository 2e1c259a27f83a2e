package repo

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// RunDefinitionRecord is the stored form of one normalized run definition.
// Config is JSON; Position is the run's index within its batch, so a batch
// reads back in normalization order.
type RunDefinitionRecord struct {
	ID                  string
	BatchID             string
	Name                string
	Trainable           string
	TrainableKind       string
	Config              []byte
	CheckpointAtEnd     bool
	CheckpointFrequency int
	Position            int
	CreatedAt           time.Time
}

type RunDefinitionFilter struct {
	BatchID string
	Name    string
	Limit   int
}

// RunDefinitionRepository stores normalized batches for the scheduler to
// pick up. Batches are inserted whole; a failed insert leaves no partial
// batch behind.
type RunDefinitionRepository interface {
	InsertBatch(ctx context.Context, records []RunDefinitionRecord) ([]RunDefinitionRecord, error)
	Get(ctx context.Context, id string) (RunDefinitionRecord, error)
	List(ctx context.Context, filter RunDefinitionFilter) ([]RunDefinitionRecord, error)
}
