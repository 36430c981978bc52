package repositories

import (
	"context"
	"errors"

	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/pipeline"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskRepo reads tasks written by the conversational flow.
type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CompletedTask, error) {
	var (
		task models.CompletedTask
		raw  []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, status, recommendations, completed_at
		FROM ai_tasks WHERE id = $1
	`, id).Scan(&task.ID, &task.UserID, &task.Status, &raw, &task.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	task.Recommendations, err = pipeline.DecodeRecommendations(raw)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, type, content, is_selected
		FROM ai_task_creatives WHERE task_id = $1
		ORDER BY position, created_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.GeneratedCreative
		if err := rows.Scan(&c.ID, &c.Type, &c.Content, &c.IsSelected); err != nil {
			return nil, err
		}
		task.Creatives = append(task.Creatives, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &task, nil
}
