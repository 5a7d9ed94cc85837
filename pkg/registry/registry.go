// Package registry holds the catalog of step and trigger kinds together with
// the JSON schemas for their settings. Workflow definitions arriving over the
// API are validated here before they are decoded into models.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/gangrun/outreach/pkg/models"
)

type Registry struct {
	logger         *slog.Logger
	stepSchemas    map[models.StepKind]map[string]any
	triggerSchemas map[models.TriggerKind]map[string]any
}

func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		logger:         logger,
		stepSchemas:    make(map[models.StepKind]map[string]any),
		triggerSchemas: make(map[models.TriggerKind]map[string]any),
	}

	registerStepSchemas(r)
	registerTriggerSchemas(r)

	return r
}

func (r *Registry) RegisterStep(kind models.StepKind, schema map[string]any) {
	r.stepSchemas[kind] = schema
}

func (r *Registry) RegisterTrigger(kind models.TriggerKind, schema map[string]any) {
	r.triggerSchemas[kind] = schema
}

func (r *Registry) StepKinds() []models.StepKind {
	kinds := make([]models.StepKind, 0, len(r.stepSchemas))
	for kind := range r.stepSchemas {
		kinds = append(kinds, kind)
	}

	return kinds
}

// ValidateStepSettings checks raw step settings against the schema registered
// for the kind.
func (r *Registry) ValidateStepSettings(kind models.StepKind, settings map[string]any) error {
	schema, ok := r.stepSchemas[kind]
	if !ok {
		return fmt.Errorf("step type '%s' not registered", kind)
	}

	return validateSchema(schema, settings)
}

// ValidateTriggerSettings checks raw trigger settings against the schema
// registered for the kind.
func (r *Registry) ValidateTriggerSettings(kind models.TriggerKind, settings map[string]any) error {
	schema, ok := r.triggerSchemas[kind]
	if !ok {
		return fmt.Errorf("trigger type '%s' not registered", kind)
	}

	return validateSchema(schema, settings)
}

func validateSchema(schema map[string]any, data map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(descriptions, "; "))
	}

	return nil
}
