// Package segments resolves workflow audiences. A workflow with a segment
// only runs for customers in that segment; without one the audience is every
// consenting customer.
package segments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

type Resolver struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewResolver(p persistence.Persistence, logger *slog.Logger) *Resolver {
	return &Resolver{
		persistence: p,
		logger:      logger.With("module", "segment_resolver"),
	}
}

// IsCustomerInSegment reports whether the customer may enter the workflow. A
// workflow without a segment admits everyone. A segment reference that cannot
// be resolved admits no one.
func (r *Resolver) IsCustomerInSegment(ctx context.Context, workflow *models.Workflow, customerID string) (bool, error) {
	if workflow.SegmentID == nil || *workflow.SegmentID == "" {
		return true, nil
	}

	segment, err := r.persistence.Segments().GetByID(ctx, *workflow.SegmentID)
	if err != nil {
		if persistence.IsSegmentNotFound(err) {
			r.logger.WarnContext(ctx, "workflow references missing segment",
				"workflow_id", workflow.ID, "segment_id", *workflow.SegmentID)

			return false, nil
		}

		return false, fmt.Errorf("failed to resolve segment %s: %w", *workflow.SegmentID, err)
	}

	return segment.Contains(customerID), nil
}

// ResolveRecipients returns the customers a broadcast-style workflow should
// run for. Segment members are returned as-is; the no-segment audience is
// every customer with marketing consent and a verified email.
func (r *Resolver) ResolveRecipients(ctx context.Context, workflow *models.Workflow) ([]*models.Customer, error) {
	if workflow.SegmentID != nil && *workflow.SegmentID != "" {
		return r.segmentMembers(ctx, *workflow.SegmentID)
	}

	customers, err := r.persistence.Customers().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	recipients := make([]*models.Customer, 0, len(customers))

	for _, customer := range customers {
		if customer.MarketingOptIn && customer.EmailVerified {
			recipients = append(recipients, customer)
		}
	}

	return recipients, nil
}

func (r *Resolver) segmentMembers(ctx context.Context, segmentID string) ([]*models.Customer, error) {
	segment, err := r.persistence.Segments().GetByID(ctx, segmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve segment %s: %w", segmentID, err)
	}

	members := make([]*models.Customer, 0, len(segment.CustomerIDs))

	for _, customerID := range segment.CustomerIDs {
		customer, err := r.persistence.Customers().GetByID(ctx, customerID)
		if err != nil {
			if persistence.IsCustomerNotFound(err) {
				r.logger.WarnContext(ctx, "segment references missing customer",
					"segment_id", segmentID, "customer_id", customerID)

				continue
			}

			return nil, fmt.Errorf("failed to load customer %s: %w", customerID, err)
		}

		members = append(members, customer)
	}

	return members, nil
}
