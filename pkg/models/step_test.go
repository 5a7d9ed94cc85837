package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepUnmarshalWaitStep(t *testing.T) {
	var step Step

	err := json.Unmarshal([]byte(`{"id":"w1","type":"wait","settings":{"duration":60}}`), &step)
	require.NoError(t, err)

	assert.Equal(t, "w1", step.ID)
	assert.Equal(t, StepKindWait, step.Kind)
	require.NotNil(t, step.Wait)
	assert.Equal(t, 60, step.Wait.DurationMinutes)
	assert.Nil(t, step.Email)
}

func TestStepUnmarshalConditionWithBranches(t *testing.T) {
	raw := `{
		"id": "c1",
		"type": "condition",
		"settings": {
			"field": "order_count",
			"operator": "greater_than",
			"value": 3,
			"condition_steps": {"true": "x", "false": "y"}
		}
	}`

	var step Step

	err := json.Unmarshal([]byte(raw), &step)
	require.NoError(t, err)
	require.NotNil(t, step.Condition)
	assert.Equal(t, OperatorGreaterThan, step.Condition.Operator)
	require.NotNil(t, step.Condition.Branches)
	assert.Equal(t, "x", step.Condition.Branches.True)
	assert.Equal(t, "y", step.Condition.Branches.False)
}

func TestStepUnmarshalUnknownKind(t *testing.T) {
	var step Step

	err := json.Unmarshal([]byte(`{"id":"s1","type":"carrier_pigeon","settings":{}}`), &step)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStepKind)
}

func TestStepMarshalRoundTrip(t *testing.T) {
	step := Step{
		ID:    "e1",
		Kind:  StepKindEmail,
		Email: &EmailStep{Subject: "Your proofs are ready"},
	}

	data, err := json.Marshal(step)
	require.NoError(t, err)

	var decoded Step

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, step.ID, decoded.ID)
	require.NotNil(t, decoded.Email)
	assert.Equal(t, "Your proofs are ready", decoded.Email.Subject)
}

func TestStepValidate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr bool
	}{
		{
			name: "valid webhook",
			step: Step{ID: "h1", Kind: StepKindWebhook, Webhook: &WebhookStep{URL: "https://example.com/hook"}},
		},
		{
			name:    "webhook without url",
			step:    Step{ID: "h1", Kind: StepKindWebhook, Webhook: &WebhookStep{}},
			wantErr: true,
		},
		{
			name:    "missing id",
			step:    Step{Kind: StepKindWait, Wait: &WaitStep{}},
			wantErr: true,
		},
		{
			name:    "variant nil for kind",
			step:    Step{ID: "e1", Kind: StepKindEmail},
			wantErr: true,
		},
		{
			name:    "negative wait duration",
			step:    Step{ID: "w1", Kind: StepKindWait, Wait: &WaitStep{DurationMinutes: -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWorkflowValidateDuplicateStepIDs(t *testing.T) {
	workflow := &Workflow{
		Name:    "dup steps",
		Trigger: Trigger{Kind: TriggerKindEvent, Event: &EventTrigger{EventName: "order.placed"}},
		Steps: []*Step{
			{ID: "a", Kind: StepKindWait, Wait: &WaitStep{}},
			{ID: "a", Kind: StepKindWait, Wait: &WaitStep{}},
		},
	}

	assert.ErrorIs(t, workflow.Validate(), ErrDuplicateStepID)
}

func TestWorkflowValidateDanglingBranchTarget(t *testing.T) {
	workflow := &Workflow{
		Name:    "bad branch",
		Trigger: Trigger{Kind: TriggerKindEvent, Event: &EventTrigger{EventName: "order.placed"}},
		Steps: []*Step{
			{
				ID:   "c",
				Kind: StepKindCondition,
				Condition: &ConditionStep{
					Field:    "email",
					Operator: OperatorEquals,
					Value:    "a@b.com",
					Branches: &Branches{True: "missing"},
				},
			},
		},
	}

	assert.ErrorIs(t, workflow.Validate(), ErrUnknownBranchTarget)
}
