package repository

import (
	"context"
	"encoding/json"

	"github.com/haitrvn/gutcare/internal/domain/entity"
)

// SymptomRepository persists symptom diary entries.
type SymptomRepository interface {
	Add(ctx context.Context, s *entity.Symptom) error
	// ListByUser returns the raw log documents ordered by creation time,
	// oldest first.
	ListByUser(ctx context.Context, email string) ([]json.RawMessage, error)
}
