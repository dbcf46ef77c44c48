package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/studynote/internal/pkg/dbutil"
	appErr "github.com/xxxsen/studynote/internal/pkg/errors"
)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Upsert writes the full serialized history for a content id; sessions are
// small enough that replacing the document beats incremental appends.
func (r *SessionRepo) Upsert(ctx context.Context, contentID, history string, mtime int64) error {
	const query = `
		INSERT INTO chat_sessions (content_id, history, mtime)
		VALUES ($1, $2, $3)
		ON CONFLICT (content_id) DO UPDATE SET
			history = EXCLUDED.history,
			mtime = EXCLUDED.mtime
	`
	_, err := r.db.ExecContext(ctx, query, contentID, history, mtime)
	return err
}

func (r *SessionRepo) GetByContentID(ctx context.Context, contentID string) (string, error) {
	where := map[string]interface{}{
		"content_id": contentID,
	}
	sqlStr, args, err := builder.BuildSelect("chat_sessions", where, []string{"history"})
	if err != nil {
		return "", err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var history string
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&history); err != nil {
		if err == sql.ErrNoRows {
			return "", appErr.ErrNotFound
		}
		return "", err
	}
	return history, nil
}

func (r *SessionRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	where := map[string]interface{}{
		"mtime <": cutoff,
	}
	sqlStr, args, err := builder.BuildDelete("chat_sessions", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
