package registry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangrun/outreach/pkg/models"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.Default())
}

func TestValidateStepSettings(t *testing.T) {
	r := newTestRegistry()

	err := r.ValidateStepSettings(models.StepKindEmail, map[string]any{
		"subject": "Welcome!",
		"content": "Thanks for signing up.",
	})
	require.NoError(t, err)

	err = r.ValidateStepSettings(models.StepKindEmail, map[string]any{
		"content": "no subject",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")

	err = r.ValidateStepSettings(models.StepKind("teleport"), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestValidateStepSettingsCondition(t *testing.T) {
	r := newTestRegistry()

	err := r.ValidateStepSettings(models.StepKindCondition, map[string]any{
		"field":    "order_count",
		"operator": "greater_than",
		"value":    3,
		"condition_steps": map[string]any{
			"true":  "step-vip",
			"false": "step-nudge",
		},
	})
	require.NoError(t, err)

	err = r.ValidateStepSettings(models.StepKindCondition, map[string]any{
		"field":    "order_count",
		"operator": "between",
	})
	require.Error(t, err)
}

func TestValidateWorkflowJSON(t *testing.T) {
	r := newTestRegistry()

	body := []byte(`{
		"name": "welcome",
		"trigger": {"type": "event", "settings": {"event": "user_registered"}},
		"steps": [
			{"id": "s1", "type": "email", "settings": {"subject": "Hi"}},
			{"id": "s2", "type": "wait", "settings": {"duration": 60}}
		]
	}`)
	require.NoError(t, r.ValidateWorkflowJSON(body))

	bad := []byte(`{
		"trigger": {"type": "event", "settings": {"event": "user_registered"}},
		"steps": [{"id": "s1", "type": "sms", "settings": {}}]
	}`)
	err := r.ValidateWorkflowJSON(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step s1")
}
