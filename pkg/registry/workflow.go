package registry

import (
	"encoding/json"
	"fmt"

	"github.com/gangrun/outreach/pkg/models"
)

type rawComponent struct {
	ID       string         `json:"id"`
	Kind     string         `json:"type"`
	Settings map[string]any `json:"settings"`
}

type rawWorkflow struct {
	Trigger *rawComponent  `json:"trigger"`
	Steps   []rawComponent `json:"steps"`
}

// ValidateWorkflowJSON schema-checks the trigger and step settings of a raw
// workflow definition before it is decoded into models. This catches
// malformed settings with a field-level message instead of a decode error.
func (r *Registry) ValidateWorkflowJSON(body []byte) error {
	var raw rawWorkflow

	err := json.Unmarshal(body, &raw)
	if err != nil {
		return fmt.Errorf("invalid workflow document: %w", err)
	}

	if raw.Trigger != nil {
		err = r.ValidateTriggerSettings(models.TriggerKind(raw.Trigger.Kind), raw.Trigger.Settings)
		if err != nil {
			return fmt.Errorf("trigger: %w", err)
		}
	}

	for _, step := range raw.Steps {
		err = r.ValidateStepSettings(models.StepKind(step.Kind), step.Settings)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.ID, err)
		}
	}

	return nil
}
