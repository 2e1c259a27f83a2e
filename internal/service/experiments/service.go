// Package experiments turns suite documents and ad-hoc spec batches into
// stored run definitions: fetch, parse, normalize, persist.
package experiments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tessera-ml/tessera-go/internal/domain"
	"github.com/tessera-ml/tessera-go/internal/experiment"
	"github.com/tessera-ml/tessera-go/internal/repo"
	"github.com/tessera-ml/tessera-go/internal/suite"
)

type Service struct {
	log    *slog.Logger
	suites SuiteStore
	runs   repo.RunDefinitionRepository
	kinds  domain.KindResolver
}

func NewService(log *slog.Logger, suites SuiteStore, runs repo.RunDefinitionRepository, kinds domain.KindResolver) *Service {
	return &Service{log: log, suites: suites, runs: runs, kinds: kinds}
}

// NormalizeBatch validates a spec batch and persists the resulting run
// definitions as one batch. Trainables must be name references; a spec
// carrying an inline function or class cannot be stored.
func (s *Service) NormalizeBatch(ctx context.Context, input experiment.SpecInput) ([]repo.RunDefinitionRecord, error) {
	defs, err := experiment.Normalize(input, s.kinds)
	if err != nil {
		return nil, err
	}
	return s.store(ctx, defs)
}

// NormalizeSuite fetches the named suite document from the store,
// normalizes it, and persists the batch.
func (s *Service) NormalizeSuite(ctx context.Context, name string) ([]repo.RunDefinitionRecord, error) {
	data, err := s.suites.FetchSuite(ctx, name)
	if err != nil {
		return nil, err
	}

	doc, err := suite.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("suite %q: %w", name, err)
	}

	defs, err := experiment.Normalize(doc.SpecInput(), s.kinds)
	if err != nil {
		return nil, err
	}

	records, err := s.store(ctx, defs)
	if err != nil {
		return nil, err
	}
	s.log.Info("suite normalized",
		"suite", name,
		"runs", len(records),
	)
	return records, nil
}

func (s *Service) GetRun(ctx context.Context, id string) (repo.RunDefinitionRecord, error) {
	return s.runs.Get(ctx, id)
}

func (s *Service) ListRuns(ctx context.Context, filter repo.RunDefinitionFilter) ([]repo.RunDefinitionRecord, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.runs.List(ctx, filter)
}

func (s *Service) store(ctx context.Context, defs []domain.RunDefinition) ([]repo.RunDefinitionRecord, error) {
	if len(defs) == 0 {
		return []repo.RunDefinitionRecord{}, nil
	}

	batchID := uuid.NewString()
	records := make([]repo.RunDefinitionRecord, 0, len(defs))
	for i, def := range defs {
		if def.Trainable.Name() == "" {
			return nil, fmt.Errorf("run %q: only name-referenced trainables can be stored", def.Name)
		}
		kind, err := def.Trainable.Kind(s.kinds)
		if err != nil {
			return nil, fmt.Errorf("run %q: %w", def.Name, err)
		}
		config, err := json.Marshal(def.Config)
		if err != nil {
			return nil, fmt.Errorf("run %q: encode config: %w", def.Name, err)
		}
		records = append(records, repo.RunDefinitionRecord{
			BatchID:             batchID,
			Name:                def.Name,
			Trainable:           def.Trainable.Name(),
			TrainableKind:       string(kind),
			Config:              config,
			CheckpointAtEnd:     def.Checkpoint.AtEnd,
			CheckpointFrequency: def.Checkpoint.Frequency,
			Position:            i,
		})
	}

	return s.runs.InsertBatch(ctx, records)
}
