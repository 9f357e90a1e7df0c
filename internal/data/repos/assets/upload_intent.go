package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type UploadIntentRepo interface {
	Create(dbc dbctx.Context, intent *types.UploadIntent) (*types.UploadIntent, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	ListOlderThan(dbc dbctx.Context, cutoff time.Time, limit int) ([]*types.UploadIntent, error)
}

type uploadIntentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUploadIntentRepo(db *gorm.DB, baseLog *logger.Logger) UploadIntentRepo {
	repoLog := baseLog.With("repo", "UploadIntentRepo")
	return &uploadIntentRepo{db: db, log: repoLog}
}

func (r *uploadIntentRepo) Create(dbc dbctx.Context, intent *types.UploadIntent) (*types.UploadIntent, error) {
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}
	if err := dbc.DB(r.db).Create(intent).Error; err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *uploadIntentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.UploadIntent{}).Error
}

func (r *uploadIntentRepo) ListOlderThan(dbc dbctx.Context, cutoff time.Time, limit int) ([]*types.UploadIntent, error) {
	var results []*types.UploadIntent
	q := dbc.DB(r.db).Where("created_at < ?", cutoff).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
