package principals

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/db"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
)

// Service exposes profile reads and edits for the authenticated principal.
type Service interface {
	Me(ctx context.Context, principalID uuid.UUID) (*PrincipalDTO, error)
	UpdateProfile(ctx context.Context, principalID uuid.UUID, input ProfileUpdate) (*PrincipalDTO, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "principals repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Me(ctx context.Context, principalID uuid.UUID) (*PrincipalDTO, error) {
	p, err := s.repo.FindByID(ctx, principalID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "principal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load principal")
	}
	dto := FromModel(p)
	return &dto, nil
}

// UpdateProfile edits display fields only. Email and role are never writable here.
func (s *service) UpdateProfile(ctx context.Context, principalID uuid.UUID, input ProfileUpdate) (*PrincipalDTO, error) {
	updates := map[string]any{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name cannot be empty")
		}
		updates["display_name"] = name
	}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.RollNo != nil {
		updates["roll_no"] = optionalString(*input.RollNo)
	}
	if input.Branch != nil {
		updates["branch"] = optionalString(*input.Branch)
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}

	if err := s.repo.UpdateProfile(ctx, principalID, updates); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "principal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.Me(ctx, principalID)
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
