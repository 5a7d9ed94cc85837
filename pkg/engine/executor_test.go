package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangrun/outreach/pkg/models"
)

func TestWebhookStepSendsEnvelope(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))

	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-hook", Name: "webhook workflow", IsActive: true,
		Steps: []*models.Step{
			{ID: "hook", Kind: models.StepKindWebhook, Webhook: &models.WebhookStep{
				URL:     server.URL,
				Payload: map[string]any{"kind": "order_export"},
			}},
		},
	})
	execution := te.startExecution(t, "wf-hook", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)

	assert.Equal(t, "order_export", received["kind"])

	user, ok := received["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "c1", user["id"])

	exec, ok := received["execution"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "wf-hook", exec["workflow_id"])
}

func TestWebhookFailureFailsRun(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-hookfail", Name: "webhook fatal", IsActive: true,
		Steps: []*models.Step{
			{ID: "hook", Kind: models.StepKindWebhook, Webhook: &models.WebhookStep{URL: server.URL}},
			emailStep("after", "never sent"),
		},
	})
	execution := te.startExecution(t, "wf-hookfail", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "status 500")

	sends, err := te.store.Sends().ListByExecution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Empty(t, sends)
}

func TestWebhookContinueOnError(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-hooksoft", Name: "webhook soft", IsActive: true,
		Steps: []*models.Step{
			{ID: "hook", Kind: models.StepKindWebhook, Webhook: &models.WebhookStep{
				URL: server.URL, ContinueOnError: true,
			}},
			emailStep("after", "still sent"),
		},
	})
	execution := te.startExecution(t, "wf-hooksoft", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	require.Len(t, final.StepResults, 2)
	assert.Equal(t, models.StepStatusError, final.StepResults[0].Result.Status)

	sends, err := te.store.Sends().ListByExecution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Len(t, sends, 1)
}

func TestExecuteStepSMSRequiresPhone(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	customer := &models.Customer{ID: "c1", Email: "c1@example.com", SMSOptIn: true}
	te.seedCustomer(t, customer)

	executor := NewExecutor(te.store, testLogger())
	step := &models.Step{ID: "s", Kind: models.StepKindSMS, SMS: &models.SMSStep{Message: "Hi"}}
	execution := &models.Execution{ID: "ex", WorkflowID: "wf", CustomerID: "c1"}

	result, err := executor.ExecuteStep(ctx, step, execution, customer)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusSkipped, result.Status)
	assert.Contains(t, result.Reason, "phone")
}
