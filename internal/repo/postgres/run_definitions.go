package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tessera-ml/tessera-go/internal/repo"
)

type RunDefinitionStore struct {
	db DB
}

const (
	insertRunDefinitionQuery = `INSERT INTO run_definitions (
		run_id,
		batch_id,
		name,
		trainable,
		trainable_kind,
		config,
		checkpoint_at_end,
		checkpoint_frequency,
		position
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	RETURNING run_id, batch_id, name, trainable, trainable_kind, config, checkpoint_at_end, checkpoint_frequency, position, created_at`

	selectRunDefinitionByIDQuery = `SELECT run_id, batch_id, name, trainable, trainable_kind, config, checkpoint_at_end, checkpoint_frequency, position, created_at
	 FROM run_definitions
	 WHERE run_id = $1`

	selectRunDefinitionsQuery = `SELECT run_id, batch_id, name, trainable, trainable_kind, config, checkpoint_at_end, checkpoint_frequency, position, created_at
	 FROM run_definitions
	 WHERE ($1 = '' OR batch_id = $1)
	   AND ($2 = '' OR name = $2)
	 ORDER BY batch_id, position
	 LIMIT $3`
)

func NewRunDefinitionStore(db DB) *RunDefinitionStore {
	if db == nil {
		return nil
	}
	return &RunDefinitionStore{db: db}
}

// InsertBatch stores a whole normalized batch in one transaction. Either
// every definition lands or none do.
func (s *RunDefinitionStore) InsertBatch(ctx context.Context, records []repo.RunDefinitionRecord) ([]repo.RunDefinitionRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run definition store not initialized")
	}
	if len(records) == 0 {
		return []repo.RunDefinitionRecord{}, nil
	}
	for i, record := range records {
		if strings.TrimSpace(record.BatchID) == "" {
			return nil, fmt.Errorf("record %d: batch id is required", i)
		}
		if strings.TrimSpace(record.Name) == "" {
			return nil, fmt.Errorf("record %d: name is required", i)
		}
		if strings.TrimSpace(record.Trainable) == "" {
			return nil, fmt.Errorf("record %d: trainable is required", i)
		}
		if strings.TrimSpace(record.TrainableKind) == "" {
			return nil, fmt.Errorf("record %d: trainable kind is required", i)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := make([]repo.RunDefinitionRecord, 0, len(records))
	for i, record := range records {
		runID := record.ID
		if strings.TrimSpace(runID) == "" {
			runID = uuid.NewString()
		}
		var out repo.RunDefinitionRecord
		err := tx.QueryRowContext(
			ctx,
			insertRunDefinitionQuery,
			runID,
			record.BatchID,
			record.Name,
			record.Trainable,
			record.TrainableKind,
			configOrEmpty(record.Config),
			record.CheckpointAtEnd,
			record.CheckpointFrequency,
			i,
		).Scan(
			&out.ID,
			&out.BatchID,
			&out.Name,
			&out.Trainable,
			&out.TrainableKind,
			&out.Config,
			&out.CheckpointAtEnd,
			&out.CheckpointFrequency,
			&out.Position,
			&out.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert run definition %d: %w", i, err)
		}
		inserted = append(inserted, out)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *RunDefinitionStore) Get(ctx context.Context, id string) (repo.RunDefinitionRecord, error) {
	if s == nil || s.db == nil {
		return repo.RunDefinitionRecord{}, fmt.Errorf("run definition store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return repo.RunDefinitionRecord{}, fmt.Errorf("run id is required")
	}
	var record repo.RunDefinitionRecord
	row := s.db.QueryRowContext(ctx, selectRunDefinitionByIDQuery, id)
	if err := row.Scan(
		&record.ID,
		&record.BatchID,
		&record.Name,
		&record.Trainable,
		&record.TrainableKind,
		&record.Config,
		&record.CheckpointAtEnd,
		&record.CheckpointFrequency,
		&record.Position,
		&record.CreatedAt,
	); err != nil {
		return repo.RunDefinitionRecord{}, handleNotFound(err)
	}
	return record, nil
}

func (s *RunDefinitionStore) List(ctx context.Context, filter repo.RunDefinitionFilter) ([]repo.RunDefinitionRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("run definition store not initialized")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, selectRunDefinitionsQuery, strings.TrimSpace(filter.BatchID), strings.TrimSpace(filter.Name), limit)
	if err != nil {
		return nil, fmt.Errorf("list run definitions: %w", err)
	}
	defer rows.Close()

	out := make([]repo.RunDefinitionRecord, 0, limit)
	for rows.Next() {
		var record repo.RunDefinitionRecord
		if err := rows.Scan(
			&record.ID,
			&record.BatchID,
			&record.Name,
			&record.Trainable,
			&record.TrainableKind,
			&record.Config,
			&record.CheckpointAtEnd,
			&record.CheckpointFrequency,
			&record.Position,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run definition: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run definitions: %w", err)
	}
	return out, nil
}
