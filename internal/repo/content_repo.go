package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/dbutil"
	appErr "github.com/xxxsen/studynote/internal/pkg/errors"
)

type ContentRepo struct {
	db *sql.DB
}

func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

func (r *ContentRepo) Create(ctx context.Context, record *model.ContentRecord) error {
	data := map[string]interface{}{
		"id":            record.ID,
		"title":         record.Title,
		"notes":         record.Notes,
		"original_text": record.OriginalText,
		"file_names":    record.FileNames,
		"ctime":         record.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("contents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ContentRepo) GetByID(ctx context.Context, id string) (*model.ContentRecord, error) {
	where := map[string]interface{}{
		"id": id,
	}
	sqlStr, args, err := builder.BuildSelect("contents", where,
		[]string{"id", "title", "notes", "original_text", "file_names", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	record := &model.ContentRecord{}
	if err := row.Scan(&record.ID, &record.Title, &record.Notes,
		&record.OriginalText, &record.FileNames, &record.Ctime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}
