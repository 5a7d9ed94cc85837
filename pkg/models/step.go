package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StepKind discriminates the step union.
type StepKind string

const (
	StepKindEmail      StepKind = "email"
	StepKindSMS        StepKind = "sms"
	StepKindWait       StepKind = "wait"
	StepKindCondition  StepKind = "condition"
	StepKindWebhook    StepKind = "webhook"
	StepKindTag        StepKind = "tag"
	StepKindUpdateUser StepKind = "update_user"
)

// Step is a tagged union over the supported automation actions. Exactly one
// variant pointer is non-nil, matching Kind. On the wire a step is
// {"id": ..., "type": ..., "settings": {...}}.
type Step struct {
	ID         string
	Kind       StepKind
	Email      *EmailStep
	SMS        *SMSStep
	Wait       *WaitStep
	Condition  *ConditionStep
	Webhook    *WebhookStep
	Tag        *TagStep
	UpdateUser *UpdateUserStep
}

// EmailStep records a campaign-style email send for the customer.
type EmailStep struct {
	Subject string `json:"subject"`
	Content string `json:"content,omitempty"`
}

// SMSStep records an SMS send for the customer.
type SMSStep struct {
	Message string `json:"message"`
}

// WaitStep suspends the execution until an absolute time, or for a duration
// in minutes from the moment the step runs.
type WaitStep struct {
	DurationMinutes int        `json:"duration,omitempty"`
	Until           *time.Time `json:"until,omitempty"`
}

// ConditionStep compares a customer field against a configured value. With
// Branches set it routes to an explicit step; otherwise execution advances
// linearly and the outcome is recorded.
type ConditionStep struct {
	Field    string    `json:"field"`
	Operator Operator  `json:"operator"`
	Value    any       `json:"value"`
	Branches *Branches `json:"condition_steps,omitempty"`
}

// Branches names the condition step's forward references by outcome.
type Branches struct {
	True  string `json:"true,omitempty"`
	False string `json:"false,omitempty"`
}

// WebhookStep calls an external endpoint with a fixed envelope around the
// configured payload. Failures abort the run unless ContinueOnError is set.
type WebhookStep struct {
	URL             string            `json:"url"`
	Method          string            `json:"method,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	Payload         map[string]any    `json:"payload,omitempty"`
	ContinueOnError bool              `json:"continue_on_error,omitempty"`
}

// TagStep adds and removes tags on the customer's tag set.
type TagStep struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// UpdateUserStep applies a field=value map to the customer record.
type UpdateUserStep struct {
	Fields map[string]any `json:"fields"`
}

type stepEnvelope struct {
	ID       string          `json:"id"`
	Kind     StepKind        `json:"type"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

var (
	ErrUnknownStepKind = errors.New("unknown step kind")
	ErrStepVariantNil  = errors.New("step variant not set for kind")
)

func (s *Step) UnmarshalJSON(data []byte) error {
	var env stepEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	settings := env.Settings
	if len(settings) == 0 {
		settings = []byte("{}")
	}

	*s = Step{ID: env.ID, Kind: env.Kind}

	switch env.Kind {
	case StepKindEmail:
		s.Email = &EmailStep{}

		return json.Unmarshal(settings, s.Email)
	case StepKindSMS:
		s.SMS = &SMSStep{}

		return json.Unmarshal(settings, s.SMS)
	case StepKindWait:
		s.Wait = &WaitStep{}

		return json.Unmarshal(settings, s.Wait)
	case StepKindCondition:
		s.Condition = &ConditionStep{}

		return json.Unmarshal(settings, s.Condition)
	case StepKindWebhook:
		s.Webhook = &WebhookStep{}

		return json.Unmarshal(settings, s.Webhook)
	case StepKindTag:
		s.Tag = &TagStep{}

		return json.Unmarshal(settings, s.Tag)
	case StepKindUpdateUser:
		s.UpdateUser = &UpdateUserStep{}

		return json.Unmarshal(settings, s.UpdateUser)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStepKind, env.Kind)
	}
}

func (s Step) MarshalJSON() ([]byte, error) {
	settings, err := json.Marshal(s.variant())
	if err != nil {
		return nil, err
	}

	return json.Marshal(stepEnvelope{ID: s.ID, Kind: s.Kind, Settings: settings})
}

func (s *Step) variant() any {
	switch s.Kind {
	case StepKindEmail:
		return s.Email
	case StepKindSMS:
		return s.SMS
	case StepKindWait:
		return s.Wait
	case StepKindCondition:
		return s.Condition
	case StepKindWebhook:
		return s.Webhook
	case StepKindTag:
		return s.Tag
	case StepKindUpdateUser:
		return s.UpdateUser
	default:
		return nil
	}
}

// Validate checks that the step has an ID and a well-formed active variant.
func (s *Step) Validate() error {
	if s.ID == "" {
		return errors.New("step id is required")
	}

	switch s.Kind {
	case StepKindEmail:
		if s.Email == nil {
			return ErrStepVariantNil
		}

		if s.Email.Subject == "" {
			return errors.New("email step requires a subject")
		}
	case StepKindSMS:
		if s.SMS == nil {
			return ErrStepVariantNil
		}

		if s.SMS.Message == "" {
			return errors.New("sms step requires a message")
		}
	case StepKindWait:
		if s.Wait == nil {
			return ErrStepVariantNil
		}

		if s.Wait.DurationMinutes < 0 {
			return errors.New("wait duration must not be negative")
		}
	case StepKindCondition:
		if s.Condition == nil {
			return ErrStepVariantNil
		}

		if s.Condition.Field == "" || s.Condition.Operator == "" {
			return errors.New("condition step requires field and operator")
		}
	case StepKindWebhook:
		if s.Webhook == nil {
			return ErrStepVariantNil
		}

		if s.Webhook.URL == "" {
			return errors.New("webhook step requires a url")
		}
	case StepKindTag:
		if s.Tag == nil {
			return ErrStepVariantNil
		}

		if len(s.Tag.Add) == 0 && len(s.Tag.Remove) == 0 {
			return errors.New("tag step requires tags to add or remove")
		}
	case StepKindUpdateUser:
		if s.UpdateUser == nil {
			return ErrStepVariantNil
		}

		if len(s.UpdateUser.Fields) == 0 {
			return errors.New("update_user step requires fields")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStepKind, s.Kind)
	}

	return nil
}
