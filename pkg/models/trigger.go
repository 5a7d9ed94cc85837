package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// TriggerKind discriminates the trigger union.
type TriggerKind string

const (
	TriggerKindEvent     TriggerKind = "event"
	TriggerKindSchedule  TriggerKind = "schedule"
	TriggerKindCondition TriggerKind = "condition"
)

// ScheduleMode selects how a schedule trigger fires relative to activation.
type ScheduleMode string

const (
	ScheduleModeImmediate ScheduleMode = "immediate"
	ScheduleModeDelay     ScheduleMode = "delay"
	ScheduleModeRecurring ScheduleMode = "recurring"
)

// Trigger is a tagged union: exactly one variant is set, matching Kind.
type Trigger struct {
	Kind      TriggerKind
	Event     *EventTrigger
	Schedule  *ScheduleTrigger
	Condition *ConditionTrigger
}

// EventTrigger starts a workflow when a named marketing event arrives.
type EventTrigger struct {
	EventName string `json:"event"`
}

// ScheduleTrigger starts a workflow for its audience on a clock: at
// activation, a fixed delay after activation, or on a recurring cron.
type ScheduleTrigger struct {
	Mode         ScheduleMode `json:"mode"`
	DelayMinutes int          `json:"delay,omitempty"`
	Cron         string       `json:"cron,omitempty"`
}

// ConditionTrigger starts a workflow when an event arrives for a customer
// whose field matches the configured comparison.
type ConditionTrigger struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

type triggerEnvelope struct {
	Kind     TriggerKind     `json:"type"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

var (
	ErrUnknownTriggerKind = errors.New("unknown trigger kind")
	ErrTriggerVariantNil  = errors.New("trigger variant not set for kind")
)

func (t *Trigger) UnmarshalJSON(data []byte) error {
	var env triggerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	settings := env.Settings
	if len(settings) == 0 {
		settings = []byte("{}")
	}

	t.Kind = env.Kind
	t.Event = nil
	t.Schedule = nil
	t.Condition = nil

	switch env.Kind {
	case TriggerKindEvent:
		t.Event = &EventTrigger{}

		return json.Unmarshal(settings, t.Event)
	case TriggerKindSchedule:
		t.Schedule = &ScheduleTrigger{}

		return json.Unmarshal(settings, t.Schedule)
	case TriggerKindCondition:
		t.Condition = &ConditionTrigger{}

		return json.Unmarshal(settings, t.Condition)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTriggerKind, env.Kind)
	}
}

func (t Trigger) MarshalJSON() ([]byte, error) {
	var settings any

	switch t.Kind {
	case TriggerKindEvent:
		settings = t.Event
	case TriggerKindSchedule:
		settings = t.Schedule
	case TriggerKindCondition:
		settings = t.Condition
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTriggerKind, t.Kind)
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}

	return json.Marshal(triggerEnvelope{Kind: t.Kind, Settings: raw})
}

// Validate checks that the active variant matches Kind and is well formed.
func (t *Trigger) Validate() error {
	switch t.Kind {
	case TriggerKindEvent:
		if t.Event == nil {
			return ErrTriggerVariantNil
		}

		if t.Event.EventName == "" {
			return errors.New("event trigger requires an event name")
		}
	case TriggerKindSchedule:
		if t.Schedule == nil {
			return ErrTriggerVariantNil
		}

		switch t.Schedule.Mode {
		case ScheduleModeImmediate:
		case ScheduleModeDelay:
			if t.Schedule.DelayMinutes <= 0 {
				return errors.New("delay schedule requires a positive delay")
			}
		case ScheduleModeRecurring:
			if _, err := cron.ParseStandard(t.Schedule.Cron); err != nil {
				return fmt.Errorf("invalid cron expression: %w", err)
			}
		default:
			return fmt.Errorf("unknown schedule mode %q", t.Schedule.Mode)
		}
	case TriggerKindCondition:
		if t.Condition == nil {
			return ErrTriggerVariantNil
		}

		if t.Condition.Field == "" || t.Condition.Operator == "" {
			return errors.New("condition trigger requires field and operator")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTriggerKind, t.Kind)
	}

	return nil
}
