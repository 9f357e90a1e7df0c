package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/dberr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos"
	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain/instructors"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

type CreateInstructorInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

// UpdateInstructorInput changes whichever fields are set.
type UpdateInstructorInput struct {
	Status *string `json:"status,omitempty"`
	Name   *string `json:"name,omitempty" validate:"omitempty,max=120"`
}

type InstructorService interface {
	List(ctx context.Context, page string) ([]*types.Instructor, error)
	Create(ctx context.Context, page string, in CreateInstructorInput) (*types.Instructor, error)
	Update(ctx context.Context, page, id string, in UpdateInstructorInput) (*types.Instructor, error)
	SetStatus(ctx context.Context, page, id, status string) (*types.Instructor, error)
	Toggle(ctx context.Context, page, id string) (*types.Instructor, error)
	Remove(ctx context.Context, page, id string) error
}

type instructorService struct {
	log  *logger.Logger
	repo repos.InstructorRepo
}

func NewInstructorService(log *logger.Logger, repo repos.InstructorRepo) InstructorService {
	return &instructorService{log: log.With("service", "InstructorService"), repo: repo}
}

// List returns every Available instructor before every Full one, each group
// in creation order.
func (s *instructorService) List(ctx context.Context, page string) ([]*types.Instructor, error) {
	page, err := requirePage(page)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByPage(dbctx.Of(ctx), page)
	if err != nil {
		return nil, dberr.Map("list instructors", err)
	}
	SortInstructors(list)
	return list, nil
}

func (s *instructorService) Create(ctx context.Context, page string, in CreateInstructorInput) (*types.Instructor, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	page, err := requirePage(page)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	inst, err := s.repo.Create(dbctx.Of(ctx), &types.Instructor{
		Page:   page,
		Name:   in.Name,
		Status: types.InstructorStatusAvailable,
	})
	if err != nil {
		return nil, dberr.Map("create instructor", err)
	}
	s.log.Info("Instructor created", "page", page, "instructor_id", inst.ID)
	return inst, nil
}

func (s *instructorService) Update(ctx context.Context, page, id string, in UpdateInstructorInput) (*types.Instructor, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	current, err := s.lookup(ctx, page, id)
	if err != nil {
		return nil, err
	}
	if current.Page != strings.TrimSpace(page) {
		return nil, apierr.BadRequest("instructor does not belong to page %q", strings.TrimSpace(page))
	}
	if in.Status == nil && in.Name == nil {
		return nil, apierr.BadRequest("status or name is required")
	}

	updates := map[string]any{}
	if in.Status != nil {
		status := strings.TrimSpace(*in.Status)
		if !instructors.ValidStatus(status) {
			return nil, apierr.BadRequest("status must be %q or %q", types.InstructorStatusAvailable, types.InstructorStatusFull)
		}
		if status != current.Status {
			updates["status"] = status
		}
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateInput(CreateInstructorInput{Name: name}); err != nil {
			return nil, err
		}
		if name != current.Name {
			updates["name"] = name
		}
	}
	if len(updates) == 0 {
		return current, nil
	}

	updated, err := s.repo.UpdateFields(dbctx.Of(ctx), current.ID, updates)
	if err != nil {
		return nil, dberr.Map("update instructor", err)
	}
	s.log.Info("Instructor updated", "page", updated.Page, "instructor_id", updated.ID, "status", updated.Status)
	return updated, nil
}

func (s *instructorService) SetStatus(ctx context.Context, page, id, status string) (*types.Instructor, error) {
	return s.Update(ctx, page, id, UpdateInstructorInput{Status: &status})
}

func (s *instructorService) Toggle(ctx context.Context, page, id string) (*types.Instructor, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	current, err := s.lookup(ctx, page, id)
	if err != nil {
		return nil, err
	}
	next := instructors.Flip(current.Status)
	return s.Update(ctx, page, id, UpdateInstructorInput{Status: &next})
}

func (s *instructorService) Remove(ctx context.Context, page, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	current, err := s.lookup(ctx, page, id)
	if err != nil {
		return err
	}
	if current.Page != strings.TrimSpace(page) {
		return apierr.NotFound("instructor not found")
	}
	deleted, err := s.repo.Delete(dbctx.Of(ctx), current.ID)
	if err != nil {
		return dberr.Map("delete instructor", err)
	}
	if !deleted {
		return apierr.NotFound("instructor not found")
	}
	s.log.Info("Instructor removed", "page", current.Page, "instructor_id", current.ID)
	return nil
}

// lookup treats malformed ids like unknown ones.
func (s *instructorService) lookup(ctx context.Context, page, id string) (*types.Instructor, error) {
	if _, err := requirePage(page); err != nil {
		return nil, err
	}
	instID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apierr.NotFound("instructor not found")
	}
	inst, err := s.repo.GetByID(dbctx.Of(ctx), instID)
	if err != nil {
		return nil, dberr.Map("get instructor", err)
	}
	if inst == nil {
		return nil, apierr.NotFound("instructor not found")
	}
	return inst, nil
}

// SortInstructors orders Available before Full, stable within each group.
func SortInstructors(list []*types.Instructor) {
	instructors.SortByAvailability(list)
}
