package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

const webhookTimeout = 30 * time.Second

// Executor runs a single workflow step against a customer and reports the
// outcome. Email and sms steps write send records, webhook steps call out,
// tag and update_user steps mutate the customer record.
type Executor struct {
	persistence persistence.Persistence
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewExecutor(p persistence.Persistence, logger *slog.Logger) *Executor {
	return &Executor{
		persistence: p,
		httpClient:  &http.Client{Timeout: webhookTimeout},
		logger:      logger.With("module", "step_executor"),
	}
}

// ExecuteStep runs one step. A returned error is an execution-level failure
// that aborts the run; soft outcomes (skipped, webhook errors with
// continue_on_error) come back as a StepResult instead.
func (e *Executor) ExecuteStep(ctx context.Context, step *models.Step, execution *models.Execution, customer *models.Customer) (*models.StepResult, error) {
	switch step.Kind {
	case models.StepKindEmail:
		return e.executeEmail(ctx, step, execution, customer)
	case models.StepKindSMS:
		return e.executeSMS(ctx, step, execution, customer)
	case models.StepKindWait:
		return e.executeWait(step), nil
	case models.StepKindCondition:
		return e.executeCondition(ctx, step, customer)
	case models.StepKindWebhook:
		return e.executeWebhook(ctx, step, execution, customer)
	case models.StepKindTag:
		return e.executeTag(ctx, step, customer)
	case models.StepKindUpdateUser:
		return e.executeUpdateUser(ctx, step, customer)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownStepKind, step.Kind)
	}
}

func (e *Executor) executeEmail(ctx context.Context, step *models.Step, execution *models.Execution, customer *models.Customer) (*models.StepResult, error) {
	if !customer.MarketingOptIn {
		return &models.StepResult{
			Status: models.StepStatusSkipped,
			Reason: "customer has not opted in to marketing email",
		}, nil
	}

	send := &models.Send{
		ID:          uuid.New().String(),
		Channel:     models.SendChannelEmail,
		CustomerID:  customer.ID,
		Address:     customer.Email,
		Subject:     step.Email.Subject,
		Body:        step.Email.Content,
		WorkflowID:  execution.WorkflowID,
		ExecutionID: execution.ID,
		StepID:      step.ID,
		Status:      "sent",
		SentAt:      time.Now().UTC(),
	}

	err := e.persistence.Sends().Record(ctx, send)
	if err != nil {
		return nil, fmt.Errorf("failed to record email send: %w", err)
	}

	e.logger.InfoContext(ctx, "email sent",
		"customer_id", customer.ID, "execution_id", execution.ID, "subject", send.Subject)

	return &models.StepResult{Status: models.StepStatusSent}, nil
}

func (e *Executor) executeSMS(ctx context.Context, step *models.Step, execution *models.Execution, customer *models.Customer) (*models.StepResult, error) {
	if !customer.SMSOptIn {
		return &models.StepResult{
			Status: models.StepStatusSkipped,
			Reason: "customer has not opted in to sms",
		}, nil
	}

	if customer.Phone == "" {
		return &models.StepResult{
			Status: models.StepStatusSkipped,
			Reason: "customer has no phone number",
		}, nil
	}

	send := &models.Send{
		ID:          uuid.New().String(),
		Channel:     models.SendChannelSMS,
		CustomerID:  customer.ID,
		Address:     customer.Phone,
		Body:        step.SMS.Message,
		WorkflowID:  execution.WorkflowID,
		ExecutionID: execution.ID,
		StepID:      step.ID,
		Status:      "sent",
		SentAt:      time.Now().UTC(),
	}

	err := e.persistence.Sends().Record(ctx, send)
	if err != nil {
		return nil, fmt.Errorf("failed to record sms send: %w", err)
	}

	return &models.StepResult{Status: models.StepStatusSent}, nil
}

// executeWait always returns the suspend signal; the driver parks the
// execution and the sweeper resumes it when the deadline passes.
func (e *Executor) executeWait(step *models.Step) *models.StepResult {
	var waitUntil time.Time
	if step.Wait.Until != nil {
		waitUntil = *step.Wait.Until
	} else {
		waitUntil = time.Now().UTC().Add(time.Duration(step.Wait.DurationMinutes) * time.Minute)
	}

	return &models.StepResult{Wait: true, WaitUntil: &waitUntil}
}

func (e *Executor) executeCondition(ctx context.Context, step *models.Step, customer *models.Customer) (*models.StepResult, error) {
	value, err := e.resolveConditionField(ctx, step.Condition.Field, customer)
	if err != nil {
		return nil, err
	}

	met := step.Condition.Operator.Evaluate(value, step.Condition.Value)

	if step.Condition.Branches != nil {
		next := step.Condition.Branches.False
		if met {
			next = step.Condition.Branches.True
		}

		return &models.StepResult{NextStep: next, ConditionMet: &met}, nil
	}

	return &models.StepResult{Status: models.StepStatusEvaluated, ConditionMet: &met}, nil
}

// resolveConditionField maps a condition field name to its value on the
// customer. Purchase metrics are computed from order history. Unknown fields
// resolve to nil, which no operator matches.
func (e *Executor) resolveConditionField(ctx context.Context, field string, customer *models.Customer) (any, error) {
	switch field {
	case "email":
		return customer.Email, nil
	case "name":
		return customer.Name, nil
	case "order_count", "lifetime_spend":
		stats, err := e.persistence.Customers().OrderStats(ctx, customer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to compute order stats for %s: %w", customer.ID, err)
		}

		if field == "order_count" {
			return stats.OrderCount, nil
		}

		return stats.LifetimeSpend, nil
	default:
		return nil, nil
	}
}

func (e *Executor) executeWebhook(ctx context.Context, step *models.Step, execution *models.Execution, customer *models.Customer) (*models.StepResult, error) {
	result, err := e.callWebhook(ctx, step, execution, customer)
	if err == nil {
		return result, nil
	}

	if step.Webhook.ContinueOnError {
		e.logger.WarnContext(ctx, "webhook failed, continuing",
			"execution_id", execution.ID, "step_id", step.ID, "error", err)

		return &models.StepResult{Status: models.StepStatusError, Error: err.Error()}, nil
	}

	return nil, err
}

func (e *Executor) callWebhook(ctx context.Context, step *models.Step, execution *models.Execution, customer *models.Customer) (*models.StepResult, error) {
	envelope := make(map[string]any, len(step.Webhook.Payload)+2)
	for key, value := range step.Webhook.Payload {
		envelope[key] = value
	}

	envelope["user"] = map[string]any{
		"id":    customer.ID,
		"email": customer.Email,
		"name":  customer.Name,
	}
	envelope["execution"] = map[string]any{
		"id":           execution.ID,
		"workflow_id":  execution.WorkflowID,
		"trigger_data": execution.TriggerData,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	method := step.Webhook.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, step.Webhook.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range step.Webhook.Headers {
		req.Header.Set(key, value)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return &models.StepResult{
		Status: models.StepStatusSuccess,
		Output: map[string]any{"status_code": resp.StatusCode},
	}, nil
}

func (e *Executor) executeTag(ctx context.Context, step *models.Step, customer *models.Customer) (*models.StepResult, error) {
	for _, tag := range step.Tag.Add {
		customer.AddTag(tag)
	}

	for _, tag := range step.Tag.Remove {
		customer.RemoveTag(tag)
	}

	customer.UpdatedAt = time.Now().UTC()

	err := e.persistence.Customers().Save(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("failed to save customer tags: %w", err)
	}

	return &models.StepResult{Status: models.StepStatusSuccess}, nil
}

func (e *Executor) executeUpdateUser(ctx context.Context, step *models.Step, customer *models.Customer) (*models.StepResult, error) {
	for field, value := range step.UpdateUser.Fields {
		switch field {
		case "name":
			if name, ok := value.(string); ok {
				customer.Name = name
			}
		case "phone":
			if phone, ok := value.(string); ok {
				customer.Phone = phone
			}
		default:
			if customer.Attributes == nil {
				customer.Attributes = make(map[string]any)
			}

			customer.Attributes[field] = value
		}
	}

	customer.UpdatedAt = time.Now().UTC()

	err := e.persistence.Customers().Save(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("failed to save customer fields: %w", err)
	}

	return &models.StepResult{Status: models.StepStatusSuccess}, nil
}
