package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperatorEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		op      Operator
		value   any
		compare any
		want    bool
	}{
		{"equals strings", OperatorEquals, "a@b.com", "a@b.com", true},
		{"equals mixed numeric widths", OperatorEquals, 5, float64(5), true},
		{"equals number vs string", OperatorEquals, 5, "5", false},
		{"not_equals", OperatorNotEquals, "gold", "silver", true},
		{"greater_than met", OperatorGreaterThan, float64(5), float64(3), true},
		{"greater_than equal values", OperatorGreaterThan, 3, 3, false},
		{"less_than strings lexical", OperatorLessThan, "apple", "banana", true},
		{"less_than number vs string", OperatorLessThan, 2, "banana", false},
		{"contains", OperatorContains, "a@gangrun.com", "gangrun", true},
		{"contains stringified number", OperatorContains, 1234.0, "23", true},
		{"starts_with", OperatorStartsWith, "GRP-1001", "GRP-", true},
		{"ends_with", OperatorEndsWith, "a@gangrun.com", ".com", true},
		{"ends_with miss", OperatorEndsWith, "a@gangrun.com", ".org", false},
		{"unknown operator always false", Operator("bogus"), 5, 5, false},
		{"nil value contains", OperatorContains, nil, "x", false},
		{"nil value equals nil", OperatorEquals, nil, nil, true},
		{"nil value not_equals", OperatorNotEquals, nil, "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Evaluate(tt.value, tt.compare))
		})
	}
}

func TestTriggerValidate(t *testing.T) {
	valid := Trigger{Kind: TriggerKindSchedule, Schedule: &ScheduleTrigger{Mode: ScheduleModeRecurring, Cron: "0 9 * * *"}}
	assert.NoError(t, valid.Validate())

	badCron := Trigger{Kind: TriggerKindSchedule, Schedule: &ScheduleTrigger{Mode: ScheduleModeRecurring, Cron: "not-a-cron"}}
	assert.Error(t, badCron.Validate())

	noDelay := Trigger{Kind: TriggerKindSchedule, Schedule: &ScheduleTrigger{Mode: ScheduleModeDelay}}
	assert.Error(t, noDelay.Validate())

	noVariant := Trigger{Kind: TriggerKindEvent}
	assert.ErrorIs(t, noVariant.Validate(), ErrTriggerVariantNil)
}
