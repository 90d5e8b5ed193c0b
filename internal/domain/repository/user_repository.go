package repository

import (
	"context"
	"encoding/json"

	"github.com/haitrvn/gutcare/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	// UpdateProfile overwrites the stored profile document and returns the
	// persisted value; ErrNotFound when no row matches.
	UpdateProfile(ctx context.Context, email string, profile json.RawMessage) (json.RawMessage, error)
	// UpdateEncryptedKey overwrites the encrypted Gemini key blob.
	UpdateEncryptedKey(ctx context.Context, email string, blob string) error
}
