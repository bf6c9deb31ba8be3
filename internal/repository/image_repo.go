package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/visionaihq/visionai-api/internal/models"
)

// SQLiteImageRepository implements ImageRepository for SQLite.
type SQLiteImageRepository struct {
	db *sql.DB
}

// NewSQLiteImageRepository creates a new SQLite image repository.
func NewSQLiteImageRepository(db *sql.DB) *SQLiteImageRepository {
	return &SQLiteImageRepository{db: db}
}

const imageColumns = `id, user_id, url, prompt, negative_prompt, style, width, height, seed, model,
	shared, likes_count, comments_count, storage_key, created_at`

func (r *SQLiteImageRepository) Create(ctx context.Context, image *models.Image) error {
	query := `INSERT INTO images (id, user_id, url, prompt, negative_prompt, style, width, height, seed, model,
		shared, storage_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		image.ID, image.UserID, image.URL, image.Prompt, image.NegativePrompt, image.Style,
		image.Width, image.Height, image.Seed, image.Model,
		image.Shared, image.StorageKey, image.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteImageRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id)
	var img models.Image
	var createdAt string
	err := row.Scan(&img.ID, &img.UserID, &img.URL, &img.Prompt, &img.NegativePrompt, &img.Style,
		&img.Width, &img.Height, &img.Seed, &img.Model,
		&img.Shared, &img.LikesCount, &img.CommentsCount, &img.StorageKey, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	img.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &img, nil
}

func (r *SQLiteImageRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.queryImages(ctx, query, userID, limit, offset)
}

func (r *SQLiteImageRepository) SetShared(ctx context.Context, id string, shared bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE images SET shared = ? WHERE id = ?`, shared, id)
	return err
}

func (r *SQLiteImageRepository) SetStorageKey(ctx context.Context, id, key string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE images SET storage_key = ? WHERE id = ?`, key, id)
	return err
}

func (r *SQLiteImageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	return err
}

func (r *SQLiteImageRepository) Feed(ctx context.Context, sort models.FeedSort, limit, offset int) ([]*models.Image, error) {
	order := "created_at DESC"
	if sort == models.FeedSortPopular {
		order = "likes_count DESC, created_at DESC"
	}
	query := `SELECT ` + imageColumns + ` FROM images WHERE shared = 1 ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	return r.queryImages(ctx, query, limit, offset)
}

func (r *SQLiteImageRepository) queryImages(ctx context.Context, query string, args ...any) ([]*models.Image, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var images []*models.Image
	for rows.Next() {
		var img models.Image
		var createdAt string
		if err := rows.Scan(&img.ID, &img.UserID, &img.URL, &img.Prompt, &img.NegativePrompt, &img.Style,
			&img.Width, &img.Height, &img.Seed, &img.Model,
			&img.Shared, &img.LikesCount, &img.CommentsCount, &img.StorageKey, &createdAt); err != nil {
			return nil, err
		}
		img.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		images = append(images, &img)
	}

	return images, rows.Err()
}
