package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/visionaihq/visionai-api/internal/models"
)

// SQLiteCommunityRepository implements CommunityRepository for SQLite.
type SQLiteCommunityRepository struct {
	db *sql.DB
}

// NewSQLiteCommunityRepository creates a new SQLite community repository.
func NewSQLiteCommunityRepository(db *sql.DB) *SQLiteCommunityRepository {
	return &SQLiteCommunityRepository{db: db}
}

func (r *SQLiteCommunityRepository) Like(ctx context.Context, imageID, userID string) (bool, error) {
	return r.inTx(ctx, func(tx *sql.Tx) (bool, error) {
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO likes (image_id, user_id, created_at) VALUES (?, ?, ?)`,
			imageID, userID, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return false, err
		}
		rows, err := result.RowsAffected()
		if err != nil || rows == 0 {
			return false, err
		}
		_, err = tx.ExecContext(ctx, `UPDATE images SET likes_count = likes_count + 1 WHERE id = ?`, imageID)
		return true, err
	})
}

func (r *SQLiteCommunityRepository) Unlike(ctx context.Context, imageID, userID string) (bool, error) {
	return r.inTx(ctx, func(tx *sql.Tx) (bool, error) {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE image_id = ? AND user_id = ?`, imageID, userID)
		if err != nil {
			return false, err
		}
		rows, err := result.RowsAffected()
		if err != nil || rows == 0 {
			return false, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE images SET likes_count = likes_count - 1 WHERE id = ? AND likes_count > 0`, imageID)
		return true, err
	})
}

func (r *SQLiteCommunityRepository) HasLiked(ctx context.Context, imageID, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE image_id = ? AND user_id = ?`, imageID, userID).Scan(&n)
	return n > 0, err
}

func (r *SQLiteCommunityRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	_, err := r.inTx(ctx, func(tx *sql.Tx) (bool, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO comments (id, image_id, user_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
			comment.ID, comment.ImageID, comment.UserID, comment.Body, comment.CreatedAt.Format(time.RFC3339))
		if err != nil {
			return false, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE images SET comments_count = comments_count + 1 WHERE id = ?`, comment.ImageID)
		return true, err
	})
	return err
}

func (r *SQLiteCommunityRepository) GetComments(ctx context.Context, imageID string, limit, offset int) ([]*models.Comment, error) {
	query := `SELECT c.id, c.image_id, c.user_id, u.name, c.body, c.created_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.image_id = ?
		ORDER BY c.created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, imageID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.ImageID, &c.UserID, &c.UserName, &c.Body, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		comments = append(comments, &c)
	}

	return comments, rows.Err()
}

func (r *SQLiteCommunityRepository) DeleteComment(ctx context.Context, id, userID string) (bool, error) {
	return r.inTx(ctx, func(tx *sql.Tx) (bool, error) {
		var imageID string
		err := tx.QueryRowContext(ctx,
			`SELECT image_id FROM comments WHERE id = ? AND user_id = ?`, id, userID).Scan(&imageID)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
			return false, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE images SET comments_count = comments_count - 1 WHERE id = ? AND comments_count > 0`, imageID)
		return true, err
	})
}

func (r *SQLiteCommunityRepository) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	return r.inTx(ctx, func(tx *sql.Tx) (bool, error) {
		result, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`,
			followerID, followeeID, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return false, err
		}
		rows, err := result.RowsAffected()
		if err != nil || rows == 0 {
			return false, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET following_count = following_count + 1 WHERE id = ?`, followerID); err != nil {
			return false, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET followers_count = followers_count + 1 WHERE id = ?`, followeeID)
		return true, err
	})
}

func (r *SQLiteCommunityRepository) Unfollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	return r.inTx(ctx, func(tx *sql.Tx) (bool, error) {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`, followerID, followeeID)
		if err != nil {
			return false, err
		}
		rows, err := result.RowsAffected()
		if err != nil || rows == 0 {
			return false, err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET following_count = following_count - 1 WHERE id = ? AND following_count > 0`, followerID); err != nil {
			return false, err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET followers_count = followers_count - 1 WHERE id = ? AND followers_count > 0`, followeeID)
		return true, err
	})
}

func (r *SQLiteCommunityRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followee_id = ?`, followerID, followeeID).Scan(&n)
	return n > 0, err
}

// inTx runs fn in a transaction, committing only on success.
func (r *SQLiteCommunityRepository) inTx(ctx context.Context, fn func(*sql.Tx) (bool, error)) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	ok, err := fn(tx)
	if err != nil {
		return false, err
	}
	return ok, tx.Commit()
}
