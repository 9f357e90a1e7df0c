package services

import (
	"context"
	"strings"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/dberr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/data/repos"
	types "github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/domain"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/dbctx"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/logger"
)

const maxFieldNameLen = 64

type ContentService interface {
	GetContent(ctx context.Context, page string) (map[string]string, error)
	GetField(ctx context.Context, page, field string) (string, error)
	// SaveContent accepts a plain string (stored as the main field) or an
	// object of field -> text. Fields not in the payload are kept.
	SaveContent(ctx context.Context, page string, content any) (map[string]string, error)
	SaveField(ctx context.Context, page, field, text string) (map[string]string, error)
}

type contentService struct {
	log  *logger.Logger
	repo repos.PageContentRepo
}

func NewContentService(log *logger.Logger, repo repos.PageContentRepo) ContentService {
	return &contentService{log: log.With("service", "ContentService"), repo: repo}
}

func (s *contentService) GetContent(ctx context.Context, page string) (map[string]string, error) {
	page, err := requirePage(page)
	if err != nil {
		return nil, err
	}
	pc, err := s.repo.GetByPage(dbctx.Of(ctx), page)
	if err != nil {
		return nil, dberr.Map("get content", err)
	}
	return pc.FieldMap(), nil
}

func (s *contentService) GetField(ctx context.Context, page, field string) (string, error) {
	field, err := normalizeField(field)
	if err != nil {
		return "", err
	}
	fields, err := s.GetContent(ctx, page)
	if err != nil {
		return "", err
	}
	return fields[field], nil
}

func (s *contentService) SaveContent(ctx context.Context, page string, content any) (map[string]string, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	page, err := requirePage(page)
	if err != nil {
		return nil, err
	}
	fields, err := NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, page, fields)
}

func (s *contentService) SaveField(ctx context.Context, page, field, text string) (map[string]string, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	page, err := requirePage(page)
	if err != nil {
		return nil, err
	}
	field, err = normalizeField(field)
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, page, map[string]string{field: text})
}

func (s *contentService) merge(ctx context.Context, page string, fields map[string]string) (map[string]string, error) {
	pc, err := s.repo.MergeFields(dbctx.Of(ctx), page, fields)
	if err != nil {
		return nil, dberr.Map("save content", err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	s.log.Info("Content saved", "page", page, "fields", keys, "version", pc.Version)
	return pc.FieldMap(), nil
}

// NormalizeContent maps both accepted payload shapes onto the field map.
func NormalizeContent(content any) (map[string]string, error) {
	switch v := content.(type) {
	case nil:
		return nil, apierr.BadRequest("content is required")
	case string:
		return map[string]string{types.ContentMainField: v}, nil
	case map[string]string:
		return normalizeFieldMap(v)
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, raw := range v {
			text, ok := raw.(string)
			if !ok {
				return nil, apierr.BadRequest("content field %q must be a string", k)
			}
			out[k] = text
		}
		return normalizeFieldMap(out)
	default:
		return nil, apierr.BadRequest("content must be a string or an object of strings")
	}
}

func normalizeFieldMap(in map[string]string) (map[string]string, error) {
	if len(in) == 0 {
		return nil, apierr.BadRequest("content must contain at least one field")
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		field, err := normalizeField(k)
		if err != nil {
			return nil, err
		}
		out[field] = v
	}
	return out, nil
}

func normalizeField(field string) (string, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", apierr.BadRequest("field is required")
	}
	if len(field) > maxFieldNameLen {
		return "", apierr.BadRequest("field name must be at most %d characters", maxFieldNameLen)
	}
	return field, nil
}
