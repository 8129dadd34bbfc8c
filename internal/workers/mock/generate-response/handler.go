// internal/workers/mock/generate-response/handler.go
package generateresponse

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mock-response-service/internal/common/errors"
	"mock-response-service/internal/common/logger"
	"mock-response-service/internal/common/metrics"
	"mock-response-service/internal/common/observability"
	"mock-response-service/internal/keys"
	"mock-response-service/internal/storage"
	"mock-response-service/internal/template"
	"mock-response-service/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const TaskType = "mock-generate-response"

// Dependencies are injected once at construction. Store and Keys are required.
type Dependencies struct {
	Store         storage.Store
	Keys          *keys.Generator
	Renderer      *template.Renderer
	Catalog       *registry.Registry
	Observability *observability.Observability
	Clock         func() time.Time
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	deps         Dependencies
	errorHandler *errors.ErrorHandler
}

func NewHandler(cfg *Config, deps Dependencies, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if deps.Store == nil {
		return nil, errors.NewStoreNotConfiguredError(TaskType)
	}
	if deps.Keys == nil {
		return nil, fmt.Errorf("%s: key generator is required", TaskType)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if deps.Renderer == nil {
		deps.Renderer = template.NewRenderer(nil, log)
	}
	if deps.Catalog == nil {
		deps.Catalog = registry.NewStaticRegistry(nil)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		logger:       scoped,
		deps:         deps,
		errorHandler: errors.NewErrorHandler(scoped),
	}, nil
}

// Handle is the Zeebe job entry point.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// parseInput accepts either {"selections": {...}} or the selections object itself.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	if sel, ok := variables["selections"]; ok {
		return &Input{Selections: sel}, nil
	}
	return &Input{Selections: variables}, nil
}

// Execute records one generation: validate, derive keys from the latest
// record, render flavor templates, insert.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	ctx, span := h.deps.Observability.StartSpan(ctx, "generate-response")
	defer span.End()

	output, err := h.execute(input)
	status := "success"
	if err != nil {
		status = string(errors.CodeOf(err))
	} else {
		span.SetAttributes(attribute.String("document.id", output.ID))
	}
	h.deps.Observability.RecordFlow(ctx, "generate-response", status, time.Since(start))
	return output, err
}

func (h *Handler) execute(input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidInputError("request body must be an object with service selections")
	}
	if err := validateSelections(input.Selections); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	selections := toSelections(input.Selections)

	catalog := h.deps.Catalog.Catalog()
	if h.config.Strict {
		if err := checkCatalog(catalog, selections); err != nil {
			return nil, err
		}
	}

	existing := keys.KeySet{}
	if latest, ok := h.deps.Store.FindLatest(h.config.Collection); ok {
		existing = keys.FromMap(latest.Fields["uniqueKeys"])
	}
	uniqueKeys := h.deps.Keys.Derive(existing)
	timestamp := h.deps.Clock().UTC().Format(timestampLayout)

	payloads := h.renderPayloads(catalog, selections, uniqueKeys, timestamp)

	responses := make(map[string]interface{}, len(selections))
	for svc, flavor := range selections {
		responses[svc] = flavor
	}
	fields := map[string]interface{}{
		"responses":  responses,
		"uniqueKeys": uniqueKeys.ToMap(),
		"timestamp":  timestamp,
	}
	if len(payloads) > 0 {
		fields["payloads"] = payloads
	}
	id := h.deps.Store.Insert(h.config.Collection, fields)

	for svc, flavor := range selections {
		metrics.ResponsesGenerated.WithLabelValues(svc, flavor).Inc()
	}
	h.logger.Info("response generated", map[string]interface{}{
		"id":         id,
		"services":   sortedKeys(selections),
		"uniqueKeys": map[string]string(uniqueKeys),
		"payloads":   len(payloads),
	})

	return &Output{
		ID:         id,
		Responses:  selections,
		UniqueKeys: uniqueKeys,
		Timestamp:  timestamp,
	}, nil
}

func checkCatalog(catalog *registry.Catalog, selections map[string]string) error {
	for _, svc := range sortedKeys(selections) {
		if _, ok := catalog.Flavor(svc, selections[svc]); !ok {
			return errors.NewInvalidInputError(fmt.Sprintf("unknown service or flavor: %s/%s", svc, selections[svc])).
				WithMetadata("service", svc).
				WithMetadata("flavor", selections[svc])
		}
	}
	return nil
}

// renderPayloads renders the template of every selected flavor that has one.
func (h *Handler) renderPayloads(catalog *registry.Catalog, selections map[string]string, uniqueKeys keys.KeySet, timestamp string) map[string]interface{} {
	payloads := map[string]interface{}{}
	for svc, flavorID := range selections {
		flavor, ok := catalog.Flavor(svc, flavorID)
		if !ok || flavor.Template == nil {
			continue
		}
		payloads[svc] = h.deps.Renderer.Render(flavor.Template, RenderContext(uniqueKeys, svc, flavorID, timestamp))
	}
	return payloads
}

// RenderContext is the variable scope for flavor templates: every key type
// at top level plus uniqueKeys, service, flavor and timestamp.
func RenderContext(uniqueKeys keys.KeySet, service, flavor, timestamp string) map[string]interface{} {
	ctx := uniqueKeys.ToMap()
	ctx["uniqueKeys"] = uniqueKeys.ToMap()
	ctx["service"] = service
	ctx["flavor"] = flavor
	ctx["timestamp"] = timestamp
	return ctx
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err})
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
