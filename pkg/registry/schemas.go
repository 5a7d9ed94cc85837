package registry

import "github.com/gangrun/outreach/pkg/models"

var operatorEnum = []any{
	"equals", "not_equals", "greater_than", "less_than",
	"contains", "starts_with", "ends_with",
}

func registerStepSchemas(r *Registry) {
	r.RegisterStep(models.StepKindEmail, map[string]any{
		"type":     "object",
		"required": []any{"subject"},
		"properties": map[string]any{
			"subject": map[string]any{"type": "string", "minLength": 1},
			"content": map[string]any{"type": "string"},
		},
	})

	r.RegisterStep(models.StepKindSMS, map[string]any{
		"type":     "object",
		"required": []any{"message"},
		"properties": map[string]any{
			"message": map[string]any{"type": "string", "minLength": 1},
		},
	})

	r.RegisterStep(models.StepKindWait, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration": map[string]any{"type": "integer", "minimum": 0},
			"until":    map[string]any{"type": "string", "format": "date-time"},
		},
	})

	r.RegisterStep(models.StepKindCondition, map[string]any{
		"type":     "object",
		"required": []any{"field", "operator"},
		"properties": map[string]any{
			"field":    map[string]any{"type": "string", "minLength": 1},
			"operator": map[string]any{"type": "string", "enum": operatorEnum},
			"value":    map[string]any{},
			"condition_steps": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"true":  map[string]any{"type": "string"},
					"false": map[string]any{"type": "string"},
				},
			},
		},
	})

	r.RegisterStep(models.StepKindWebhook, map[string]any{
		"type":     "object",
		"required": []any{"url"},
		"properties": map[string]any{
			"url":               map[string]any{"type": "string", "format": "uri"},
			"method":            map[string]any{"type": "string", "enum": []any{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			"headers":           map[string]any{"type": "object"},
			"payload":           map[string]any{"type": "object"},
			"continue_on_error": map[string]any{"type": "boolean"},
		},
	})

	r.RegisterStep(models.StepKindTag, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"add":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"remove": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	})

	r.RegisterStep(models.StepKindUpdateUser, map[string]any{
		"type":     "object",
		"required": []any{"fields"},
		"properties": map[string]any{
			"fields": map[string]any{"type": "object"},
		},
	})
}

func registerTriggerSchemas(r *Registry) {
	r.RegisterTrigger(models.TriggerKindEvent, map[string]any{
		"type":     "object",
		"required": []any{"event"},
		"properties": map[string]any{
			"event": map[string]any{"type": "string", "minLength": 1},
		},
	})

	r.RegisterTrigger(models.TriggerKindSchedule, map[string]any{
		"type":     "object",
		"required": []any{"mode"},
		"properties": map[string]any{
			"mode":  map[string]any{"type": "string", "enum": []any{"immediate", "delay", "recurring"}},
			"delay": map[string]any{"type": "integer", "minimum": 0},
			"cron":  map[string]any{"type": "string"},
		},
	})

	r.RegisterTrigger(models.TriggerKindCondition, map[string]any{
		"type":     "object",
		"required": []any{"field", "operator"},
		"properties": map[string]any{
			"field":    map[string]any{"type": "string", "minLength": 1},
			"operator": map[string]any{"type": "string", "enum": operatorEnum},
			"value":    map[string]any{},
		},
	})
}
