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

type PdfMutation func(asset *types.PdfAsset) (bool, error)

type PdfAssetRepo interface {
	GetByPage(dbc dbctx.Context, page string) (*types.PdfAsset, error)
	Mutate(dbc dbctx.Context, page string, fn PdfMutation) (*types.PdfAsset, error)
}

type pdfAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPdfAssetRepo(db *gorm.DB, baseLog *logger.Logger) PdfAssetRepo {
	repoLog := baseLog.With("repo", "PdfAssetRepo")
	return &pdfAssetRepo{db: db, log: repoLog}
}

func (r *pdfAssetRepo) GetByPage(dbc dbctx.Context, page string) (*types.PdfAsset, error) {
	var asset types.PdfAsset
	err := dbc.DB(r.db).Where("page = ?", page).Limit(1).Take(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *pdfAssetRepo) Mutate(dbc dbctx.Context, page string, fn PdfMutation) (*types.PdfAsset, error) {
	var out *types.PdfAsset
	err := dberr.RetryOnConflict(dbc.Ctx, func() error {
		return dberr.InLockingTx(dbc.DB(r.db), func(tx *gorm.DB) error {
			current, err := r.lockPage(tx, page)
			if err != nil {
				return err
			}
			isNew := current == nil
			if isNew {
				current = &types.PdfAsset{Page: page}
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
						return fmt.Errorf("create pdf record for %q: %w", page, dberr.ErrVersionConflict)
					}
					return err
				}
				out = current
				return nil
			}

			now := time.Now().UTC()
			res := tx.
				Model(&types.PdfAsset{}).
				Where("id = ? AND version = ?", current.ID, prevVersion).
				Updates(map[string]any{
					"pdfs":       current.Pdfs,
					"version":    prevVersion + 1,
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				r.log.Debug("pdf record version moved, retrying", "page", page, "version", prevVersion)
				return fmt.Errorf("update pdf record for %q: %w", page, dberr.ErrVersionConflict)
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
func (r *pdfAssetRepo) lockPage(tx *gorm.DB, page string) (*types.PdfAsset, error) {
	var rec types.PdfAsset
	err := dberr.ForUpdate(tx).Where("page = ?", page).Limit(1).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
