package services

import (
	"context"
	"encoding/json"

	"moneyflow/internal/events"
	"moneyflow/internal/logger"
	"moneyflow/internal/models"

	"gorm.io/gorm"
)

// auditService records audit log entries and announces them as events.
type auditService struct {
	db        *gorm.DB
	publisher events.Publisher
}

// NewAuditService creates a new AuditServicer. A nil publisher drops events.
func NewAuditService(db *gorm.DB, publisher events.Publisher) AuditServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &auditService{db: db, publisher: publisher}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, action events.Type, resourceType, resourceID, ipAddress string, changes map[string]any) {
	changesJSON := "{}"
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	// The request may finish before the entry is written.
	ctx = context.WithoutCancel(ctx)

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}

	event := events.New(action, resourceType, resourceID, json.RawMessage(changesJSON))
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Get().Warnw("failed to publish event",
			"error", err,
			"type", action,
			"resource_id", resourceID,
		)
	}
}
