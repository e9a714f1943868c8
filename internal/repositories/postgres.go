package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/creativecanvas/backend/internal/db"
	"github.com/creativecanvas/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Ensure inserts the user on first sight and returns the stored record. An existing
// record keeps its original email and creation time.
func (r *PostgresUserRepository) Ensure(ctx context.Context, user models.User) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        INSERT INTO users (id, email, created_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO NOTHING
    `, user.ID, user.Email, user.CreatedAt); err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	var stored models.User
	if err := conn.QueryRow(ctx, `
        SELECT id, email, created_at
        FROM users
        WHERE id = $1
    `, user.ID).Scan(&stored.ID, &stored.Email, &stored.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()

	return stored, nil
}

// PostgresCreationRepository provides PostgreSQL-backed persistence for creations.
type PostgresCreationRepository struct {
	pool db.Pool
}

// NewPostgresCreationRepository constructs a creation repository backed by PostgreSQL.
func NewPostgresCreationRepository(pool db.Pool) *PostgresCreationRepository {
	return &PostgresCreationRepository{pool: pool}
}

// Save writes the creation record. A record with the same id under the same user
// is overwritten.
func (r *PostgresCreationRepository) Save(ctx context.Context, creation models.Creation) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO creations (user_id, id, drawing_ref, image_ref, video_ref, image_prompt, video_prompt, description, style, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (user_id, id) DO UPDATE SET
            drawing_ref = EXCLUDED.drawing_ref,
            image_ref = EXCLUDED.image_ref,
            video_ref = EXCLUDED.video_ref,
            image_prompt = EXCLUDED.image_prompt,
            video_prompt = EXCLUDED.video_prompt,
            description = EXCLUDED.description,
            style = EXCLUDED.style,
            created_at = EXCLUDED.created_at
    `, creation.UserID, creation.ID, creation.DrawingRef, creation.ImageRef, creation.VideoRef,
		creation.ImagePrompt, creation.VideoPrompt, creation.Description, creation.Style, creation.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert creation: %w", err)
	}

	return nil
}

// AttachVideo merges the video reference and prompt into an existing record.
func (r *PostgresCreationRepository) AttachVideo(ctx context.Context, userID, creationID, videoRef, videoPrompt string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE creations
        SET video_ref = $3, video_prompt = $4
        WHERE user_id = $1 AND id = $2
    `, userID, creationID, videoRef, videoPrompt)
	if err != nil {
		return fmt.Errorf("attach video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByUser returns the user's creations, newest first.
func (r *PostgresCreationRepository) ListByUser(ctx context.Context, userID string) ([]models.Creation, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT user_id, id, drawing_ref, image_ref, video_ref, image_prompt, video_prompt, description, style, created_at
        FROM creations
        WHERE user_id = $1
        ORDER BY created_at DESC, id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query creations: %w", err)
	}
	defer rows.Close()

	var creations []models.Creation
	for rows.Next() {
		var (
			c         models.Creation
			createdAt time.Time
		)
		if err := rows.Scan(&c.UserID, &c.ID, &c.DrawingRef, &c.ImageRef, &c.VideoRef,
			&c.ImagePrompt, &c.VideoPrompt, &c.Description, &c.Style, &createdAt); err != nil {
			return nil, fmt.Errorf("scan creation: %w", err)
		}
		c.CreatedAt = createdAt.UTC()
		creations = append(creations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate creations: %w", err)
	}

	return creations, nil
}

// Delete removes the creation record.
func (r *PostgresCreationRepository) Delete(ctx context.Context, userID, creationID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM creations
        WHERE user_id = $1 AND id = $2
    `, userID, creationID)
	if err != nil {
		return fmt.Errorf("delete creation: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
