package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haitrvn/gutcare/internal/domain/entity"
	"github.com/haitrvn/gutcare/internal/domain/repository"
)

type SymptomRepository struct {
	pool *pgxpool.Pool
}

func NewSymptomRepository(pool *pgxpool.Pool) *SymptomRepository {
	return &SymptomRepository{pool: pool}
}

func (r *SymptomRepository) Add(ctx context.Context, s *entity.Symptom) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO symptoms (id, user_email, log_data)
		VALUES ($1, $2, $3)
	`, s.ID, s.UserEmail, s.LogData)
	return err
}

func (r *SymptomRepository) ListByUser(ctx context.Context, email string) ([]json.RawMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT log_data FROM symptoms
		WHERE user_email = $1
		ORDER BY created_at ASC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]json.RawMessage, 0)
	for rows.Next() {
		var doc json.RawMessage
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		logs = append(logs, doc)
	}
	return logs, rows.Err()
}

var _ repository.SymptomRepository = (*SymptomRepository)(nil)
