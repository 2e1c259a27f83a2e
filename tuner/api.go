package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tessera-ml/tessera-go/internal/domain"
	"github.com/tessera-ml/tessera-go/internal/experiment"
	"github.com/tessera-ml/tessera-go/internal/registry"
	"github.com/tessera-ml/tessera-go/internal/repo"
	"github.com/tessera-ml/tessera-go/internal/service/experiments"
)

type tunerAPI struct {
	logger   *slog.Logger
	svc      *experiments.Service
	registry *registry.Registry
}

func newTunerAPI(logger *slog.Logger, svc *experiments.Service, reg *registry.Registry) *tunerAPI {
	return &tunerAPI{logger: logger, svc: svc, registry: reg}
}

func (api *tunerAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/experiments/normalize", api.handleNormalize)
	mux.HandleFunc("POST /v1/suites/{suite}/normalize", api.handleNormalizeSuite)
	mux.HandleFunc("GET /v1/runs", api.handleListRuns)
	mux.HandleFunc("GET /v1/runs/{run_id}", api.handleGetRun)
	mux.HandleFunc("GET /v1/trainables", api.handleListTrainables)
}

// specPayload is the wire form of one experiment spec. Trainables are
// always referenced by registered name over the API.
type specPayload struct {
	Name       string         `json:"name,omitempty"`
	Run        string         `json:"run"`
	Config     map[string]any `json:"config,omitempty"`
	Checkpoint struct {
		AtEnd     bool `json:"at_end,omitempty"`
		Frequency int  `json:"frequency,omitempty"`
	} `json:"checkpoint,omitempty"`
}

func (p specPayload) toSpec() experiment.Spec {
	return experiment.Spec{
		Name:      p.Name,
		Trainable: domain.TrainableByName(p.Run),
		Config:    p.Config,
		Checkpoint: domain.CheckpointConfig{
			AtEnd:     p.Checkpoint.AtEnd,
			Frequency: p.Checkpoint.Frequency,
		},
	}
}

// normalizeRequest accepts exactly one of the three input shapes. A named
// batch arrives as a JSON object, which carries no order, so its specs
// are normalized in sorted-key order.
type normalizeRequest struct {
	Experiment  *specPayload           `json:"experiment,omitempty"`
	Experiments []specPayload          `json:"experiments,omitempty"`
	Named       map[string]specPayload `json:"named,omitempty"`
}

type runRecord struct {
	RunID               string          `json:"run_id"`
	BatchID             string          `json:"batch_id"`
	Name                string          `json:"name"`
	Trainable           string          `json:"trainable"`
	TrainableKind       string          `json:"trainable_kind"`
	Config              json.RawMessage `json:"config"`
	CheckpointAtEnd     bool            `json:"checkpoint_at_end"`
	CheckpointFrequency int             `json:"checkpoint_frequency"`
	Position            int             `json:"position"`
	CreatedAt           time.Time       `json:"created_at"`
}

func toRunRecord(rec repo.RunDefinitionRecord) runRecord {
	config := rec.Config
	if len(config) == 0 {
		config = []byte("{}")
	}
	return runRecord{
		RunID:               rec.ID,
		BatchID:             rec.BatchID,
		Name:                rec.Name,
		Trainable:           rec.Trainable,
		TrainableKind:       rec.TrainableKind,
		Config:              config,
		CheckpointAtEnd:     rec.CheckpointAtEnd,
		CheckpointFrequency: rec.CheckpointFrequency,
		Position:            rec.Position,
		CreatedAt:           rec.CreatedAt,
	}
}

func (api *tunerAPI) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}

	shapes := 0
	if req.Experiment != nil {
		shapes++
	}
	if req.Experiments != nil {
		shapes++
	}
	if req.Named != nil {
		shapes++
	}
	if shapes > 1 {
		api.writeError(w, r, http.StatusBadRequest, "ambiguous_input_shape")
		return
	}

	var input experiment.SpecInput
	switch {
	case req.Experiment != nil:
		input = experiment.Single{Spec: req.Experiment.toSpec()}
	case req.Experiments != nil:
		specs := make([]experiment.Spec, 0, len(req.Experiments))
		for _, p := range req.Experiments {
			specs = append(specs, p.toSpec())
		}
		input = experiment.Many{Specs: specs}
	case req.Named != nil:
		specs := make(map[string]experiment.Spec, len(req.Named))
		for name, p := range req.Named {
			specs[name] = p.toSpec()
		}
		classified, err := experiment.Classify(specs)
		if err != nil {
			api.writeNormalizeError(w, r, err)
			return
		}
		input = classified
	}

	records, err := api.svc.NormalizeBatch(r.Context(), input)
	if err != nil {
		api.writeNormalizeError(w, r, err)
		return
	}
	api.writeBatch(w, http.StatusCreated, records)
}

func (api *tunerAPI) handleNormalizeSuite(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("suite"))
	if name == "" {
		api.writeError(w, r, http.StatusBadRequest, "suite_name_required")
		return
	}

	records, err := api.svc.NormalizeSuite(r.Context(), name)
	if err != nil {
		if errors.Is(err, experiments.ErrSuiteNotFound) {
			api.writeError(w, r, http.StatusNotFound, "suite_not_found")
			return
		}
		api.writeNormalizeError(w, r, err)
		return
	}
	api.writeBatch(w, http.StatusCreated, records)
}

func (api *tunerAPI) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := repo.RunDefinitionFilter{
		BatchID: strings.TrimSpace(r.URL.Query().Get("batch_id")),
		Name:    strings.TrimSpace(r.URL.Query().Get("name")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			api.writeError(w, r, http.StatusBadRequest, "invalid_limit")
			return
		}
		filter.Limit = limit
	}

	records, err := api.svc.ListRuns(r.Context(), filter)
	if err != nil {
		api.logger.Error("list runs failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	api.writeBatch(w, http.StatusOK, records)
}

func (api *tunerAPI) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("run_id"))
	if id == "" {
		api.writeError(w, r, http.StatusBadRequest, "run_id_required")
		return
	}

	rec, err := api.svc.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "run_not_found")
			return
		}
		api.logger.Error("get run failed", "run_id", id, "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	api.writeJSON(w, http.StatusOK, toRunRecord(rec))
}

func (api *tunerAPI) handleListTrainables(w http.ResponseWriter, r *http.Request) {
	names := api.registry.Names()
	items := make([]map[string]any, 0, len(names))
	for _, name := range names {
		kind, err := api.registry.TrainableKind(name)
		if err != nil {
			continue
		}
		items = append(items, map[string]any{"name": name, "kind": string(kind)})
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"trainables": items})
}

// writeNormalizeError maps the normalization error taxonomy onto HTTP
// error codes. Anything unrecognized is a server fault.
func (api *tunerAPI) writeNormalizeError(w http.ResponseWriter, r *http.Request, err error) {
	var specErr *experiment.InvalidSpecError
	var configErr *domain.ConfigTypeError
	var policyErr *domain.CheckpointPolicyError
	switch {
	case errors.As(err, &specErr):
		api.writeErrorDetail(w, r, http.StatusBadRequest, "invalid_spec", err.Error())
	case errors.As(err, &configErr):
		api.writeErrorDetail(w, r, http.StatusBadRequest, "invalid_config_type", err.Error())
	case errors.As(err, &policyErr):
		api.writeErrorDetail(w, r, http.StatusBadRequest, "invalid_checkpoint_policy", err.Error())
	case errors.Is(err, registry.ErrNotRegistered):
		api.writeErrorDetail(w, r, http.StatusBadRequest, "unknown_trainable", err.Error())
	case strings.Contains(err.Error(), "parse suite"), strings.Contains(err.Error(), "experiments must be a mapping"), strings.Contains(err.Error(), "no experiments mapping"):
		api.writeErrorDetail(w, r, http.StatusBadRequest, "invalid_suite", err.Error())
	case strings.Contains(err.Error(), "is required"), strings.Contains(err.Error(), "must be >= 0"), strings.Contains(err.Error(), "defined twice"):
		api.writeErrorDetail(w, r, http.StatusBadRequest, "invalid_spec", err.Error())
	default:
		api.logger.Error("normalize failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

func (api *tunerAPI) writeBatch(w http.ResponseWriter, status int, records []repo.RunDefinitionRecord) {
	out := make([]runRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, toRunRecord(rec))
	}
	body := map[string]any{"runs": out}
	if len(records) > 0 {
		body["batch_id"] = records[0].BatchID
	}
	api.writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func (api *tunerAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if err := enc.Encode(body); err != nil {
		api.logger.Error("encode response failed", "error", err)
	}
}

func (api *tunerAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func (api *tunerAPI) writeErrorDetail(w http.ResponseWriter, r *http.Request, status int, code string, detail string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"detail":     detail,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}
