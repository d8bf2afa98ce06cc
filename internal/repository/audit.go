package repository

import (
	"context"

	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
)

// RecordAudit appends an audit event. Call it on a transaction-bound
// repository so the event commits or rolls back with the change.
func (r *UserRepository) RecordAudit(ctx context.Context, event *model.AuditEvent) error {
	ctx = withFunction(ctx, "RecordAudit")

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to record audit event").
			String("action", event.Action).
			Uint("target_id", event.TargetID).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Audit event recorded").
		String("action", event.Action).
		Uint("target_id", event.TargetID).
		Log()
	return nil
}

// AuditTrail lists the newest events for a target user.
func (r *UserRepository) AuditTrail(ctx context.Context, targetID uint, limit int) ([]model.AuditEvent, error) {
	ctx = withFunction(ctx, "AuditTrail")

	var events []model.AuditEvent
	err := r.db.WithContext(ctx).
		Where("target_id = ?", targetID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch audit trail").
			Uint("target_id", targetID).
			Err(err).
			Log()
		return nil, err
	}
	return events, nil
}
