package instructors

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type InstructorRepo interface {
	Create(dbc dbctx.Context, inst *types.Instructor) (*types.Instructor, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Instructor, error)
	ListByPage(dbc dbctx.Context, page string) ([]*types.Instructor, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) (*types.Instructor, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type instructorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInstructorRepo(db *gorm.DB, baseLog *logger.Logger) InstructorRepo {
	repoLog := baseLog.With("repo", "InstructorRepo")
	return &instructorRepo{db: db, log: repoLog}
}

func (r *instructorRepo) Create(dbc dbctx.Context, inst *types.Instructor) (*types.Instructor, error) {
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now
	if err := dbc.DB(r.db).Create(inst).Error; err != nil {
		return nil, err
	}
	return inst, nil
}

// GetByID returns nil when the instructor does not exist.
func (r *instructorRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Instructor, error) {
	var inst types.Instructor
	err := dbc.DB(r.db).Where("id = ?", id).Take(&inst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// ListByPage returns the page's instructors in creation order.
func (r *instructorRepo) ListByPage(dbc dbctx.Context, page string) ([]*types.Instructor, error) {
	results := []*types.Instructor{}
	if err := dbc.DB(r.db).
		Where("page = ?", page).
		Order("created_at ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *instructorRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) (*types.Instructor, error) {
	if len(updates) > 0 {
		if _, ok := updates["updated_at"]; !ok {
			updates["updated_at"] = time.Now().UTC()
		}
		res := dbc.DB(r.db).Model(&types.Instructor{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	inst, err := r.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return inst, nil
}

// Delete reports whether a row was removed.
func (r *instructorRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Instructor{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
