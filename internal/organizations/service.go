package organizations

import (
	"context"
	"strings"

	"github.com/loredrop/campus-backend/pkg/db"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
)

// Service serves the read-only organization directory.
type Service interface {
	List(ctx context.Context) ([]OrganizationDTO, error)
	GetBySlug(ctx context.Context, slug string) (*OrganizationDTO, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "organizations repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]OrganizationDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organizations")
	}
	out := make([]OrganizationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*OrganizationDTO, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	org, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	dto := FromModel(org)
	return &dto, nil
}
