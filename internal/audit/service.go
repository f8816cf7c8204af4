package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/liamreece/leasepoint-backend/pkg/db/models"
)

// Service records administrative actions with a JSON change payload.
type Service interface {
	Record(ctx context.Context, input RecordInput) error
}

// RecordInput captures one auditable action. ActorID is nil for
// system-initiated actions.
type RecordInput struct {
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Changes    any
}

type service struct {
	repo Repository
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) error {
	if input.Action == "" {
		return fmt.Errorf("action is required")
	}
	if input.EntityType == "" {
		return fmt.Errorf("entity type is required")
	}
	if input.EntityID == uuid.Nil {
		return fmt.Errorf("entity id is required")
	}

	var changes json.RawMessage
	if input.Changes != nil {
		payload, err := json.Marshal(input.Changes)
		if err != nil {
			return fmt.Errorf("marshal audit changes: %w", err)
		}
		changes = payload
	}

	row := &models.AuditLog{
		ActorID:    input.ActorID,
		Action:     input.Action,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Changes:    changes,
	}
	return s.repo.Create(ctx, row)
}
