package segments

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence/file"
)

func seedResolver(t *testing.T) (*Resolver, *file.Persistence) {
	t.Helper()

	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())

	customers := []*models.Customer{
		{ID: "c1", Email: "ada@example.com", MarketingOptIn: true, EmailVerified: true},
		{ID: "c2", Email: "bo@example.com", MarketingOptIn: true, EmailVerified: false},
		{ID: "c3", Email: "cy@example.com", MarketingOptIn: false, EmailVerified: true},
	}
	for _, customer := range customers {
		require.NoError(t, store.Customers().Save(ctx, customer))
	}

	require.NoError(t, store.Segments().Save(ctx, &models.Segment{
		ID:          "seg-vip",
		Name:        "vip customers",
		CustomerIDs: []string{"c1", "c3", "ghost"},
	}))

	return NewResolver(store, slog.Default()), store
}

func TestIsCustomerInSegment(t *testing.T) {
	ctx := context.Background()
	resolver, _ := seedResolver(t)

	segmentID := "seg-vip"
	scoped := &models.Workflow{ID: "wf-1", SegmentID: &segmentID}

	in, err := resolver.IsCustomerInSegment(ctx, scoped, "c1")
	require.NoError(t, err)
	assert.True(t, in)

	in, err = resolver.IsCustomerInSegment(ctx, scoped, "c2")
	require.NoError(t, err)
	assert.False(t, in)

	open := &models.Workflow{ID: "wf-2"}
	in, err = resolver.IsCustomerInSegment(ctx, open, "c2")
	require.NoError(t, err)
	assert.True(t, in)
}

func TestIsCustomerInSegmentMissingSegment(t *testing.T) {
	ctx := context.Background()
	resolver, _ := seedResolver(t)

	missing := "seg-deleted"
	workflow := &models.Workflow{ID: "wf-3", SegmentID: &missing}

	in, err := resolver.IsCustomerInSegment(ctx, workflow, "c1")
	require.NoError(t, err)
	assert.False(t, in)
}

func TestResolveRecipientsBroadcast(t *testing.T) {
	ctx := context.Background()
	resolver, _ := seedResolver(t)

	recipients, err := resolver.ResolveRecipients(ctx, &models.Workflow{ID: "wf-4"})
	require.NoError(t, err)

	// Only consenting, verified customers receive broadcasts.
	require.Len(t, recipients, 1)
	assert.Equal(t, "c1", recipients[0].ID)
}

func TestResolveRecipientsSegmentSkipsMissingCustomers(t *testing.T) {
	ctx := context.Background()
	resolver, _ := seedResolver(t)

	segmentID := "seg-vip"
	recipients, err := resolver.ResolveRecipients(ctx, &models.Workflow{ID: "wf-5", SegmentID: &segmentID})
	require.NoError(t, err)

	ids := make([]string, 0, len(recipients))
	for _, customer := range recipients {
		ids = append(ids, customer.ID)
	}

	assert.ElementsMatch(t, []string{"c1", "c3"}, ids)
}
