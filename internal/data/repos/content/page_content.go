package content

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/dberr"
	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type PageContentRepo interface {
	GetByPage(dbc dbctx.Context, page string) (*types.PageContent, error)
	// MergeFields overwrites the given fields of the page and keeps the rest.
	MergeFields(dbc dbctx.Context, page string, fields map[string]string) (*types.PageContent, error)
}

type pageContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPageContentRepo(db *gorm.DB, baseLog *logger.Logger) PageContentRepo {
	repoLog := baseLog.With("repo", "PageContentRepo")
	return &pageContentRepo{db: db, log: repoLog}
}

func (r *pageContentRepo) GetByPage(dbc dbctx.Context, page string) (*types.PageContent, error) {
	var pc types.PageContent
	err := dbc.DB(r.db).Where("page = ?", page).Limit(1).Take(&pc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *pageContentRepo) MergeFields(dbc dbctx.Context, page string, fields map[string]string) (*types.PageContent, error) {
	var out *types.PageContent
	err := dberr.RetryOnConflict(dbc.Ctx, func() error {
		return dberr.InLockingTx(dbc.DB(r.db), func(tx *gorm.DB) error {
			current, err := r.lockPage(tx, page)
			if err != nil {
				return err
			}
			if current == nil {
				current = &types.PageContent{Page: page}
				current.Merge(fields)
				if err := tx.Create(current).Error; err != nil {
					if dberr.IsUniqueViolation(err) {
						return fmt.Errorf("create content for %q: %w", page, dberr.ErrVersionConflict)
					}
					return err
				}
				out = current
				return nil
			}

			prevVersion := current.Version
			current.Merge(fields)
			now := time.Now().UTC()
			res := tx.
				Model(&types.PageContent{}).
				Where("id = ? AND version = ?", current.ID, prevVersion).
				Updates(map[string]any{
					"fields":     current.Fields,
					"version":    prevVersion + 1,
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("update content for %q: %w", page, dberr.ErrVersionConflict)
			}
			current.Version = prevVersion + 1
			current.UpdatedAt = now
			out = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lockPage reads the page record inside tx, holding its row lock where the
// dialect has one. A missing record reads as nil.
func (r *pageContentRepo) lockPage(tx *gorm.DB, page string) (*types.PageContent, error) {
	var rec types.PageContent
	err := dberr.ForUpdate(tx).Where("page = ?", page).Limit(1).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
