package assets

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

// ImageMutation edits a page's image record in place and reports whether
// anything changed.
type ImageMutation func(asset *types.ImageAsset) (bool, error)

type ImageAssetRepo interface {
	GetByPage(dbc dbctx.Context, page string) (*types.ImageAsset, error)
	Mutate(dbc dbctx.Context, page string, fn ImageMutation) (*types.ImageAsset, error)
}

type imageAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImageAssetRepo(db *gorm.DB, baseLog *logger.Logger) ImageAssetRepo {
	repoLog := baseLog.With("repo", "ImageAssetRepo")
	return &imageAssetRepo{db: db, log: repoLog}
}

// GetByPage returns nil when the page has no record.
func (r *imageAssetRepo) GetByPage(dbc dbctx.Context, page string) (*types.ImageAsset, error) {
	var asset types.ImageAsset
	err := dbc.DB(r.db).Where("page = ?", page).Limit(1).Take(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// Mutate runs fn against a fresh copy of the page record and persists the
// result with a version check, re-running on conflict. A missing record is
// created only if fn changes it.
func (r *imageAssetRepo) Mutate(dbc dbctx.Context, page string, fn ImageMutation) (*types.ImageAsset, error) {
	var out *types.ImageAsset
	err := dberr.RetryOnConflict(dbc.Ctx, func() error {
		return dberr.InLockingTx(dbc.DB(r.db), func(tx *gorm.DB) error {
			current, err := r.lockPage(tx, page)
			if err != nil {
				return err
			}
			isNew := current == nil
			if isNew {
				current = &types.ImageAsset{Page: page}
			}
			prevVersion := current.Version

			changed, err := fn(current)
			if err != nil {
				return err
			}
			if !changed {
				out = current
				return nil
			}

			if isNew {
				if err := tx.Create(current).Error; err != nil {
					if dberr.IsUniqueViolation(err) {
						return fmt.Errorf("create image record for %q: %w", page, dberr.ErrVersionConflict)
					}
					return err
				}
				out = current
				return nil
			}

			now := time.Now().UTC()
			res := tx.
				Model(&types.ImageAsset{}).
				Where("id = ? AND version = ?", current.ID, prevVersion).
				Updates(map[string]any{
					"url":        current.URL,
					"urls":       current.URLs,
					"version":    prevVersion + 1,
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				r.log.Debug("image record version moved, retrying", "page", page, "version", prevVersion)
				return fmt.Errorf("update image record for %q: %w", page, dberr.ErrVersionConflict)
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
func (r *imageAssetRepo) lockPage(tx *gorm.DB, page string) (*types.ImageAsset, error) {
	var rec types.ImageAsset
	err := dberr.ForUpdate(tx).Where("page = ?", page).Limit(1).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
