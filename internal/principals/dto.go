package principals

import (
	"time"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
)

// PrincipalDTO is the public view of a principal.
type PrincipalDTO struct {
	ID          uuid.UUID           `json:"id"`
	Email       string              `json:"email"`
	DisplayName string              `json:"displayName"`
	Name        string              `json:"name,omitempty"`
	RollNo      *string             `json:"rollNo,omitempty"`
	Branch      *string             `json:"branch,omitempty"`
	AvatarURL   string              `json:"avatar,omitempty"`
	Role        enums.PrincipalRole `json:"role"`
	HasPassword bool                `json:"hasPassword"`
	LastLoginAt *time.Time          `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// FromModel maps the stored row to its public view.
func FromModel(p *models.Principal) PrincipalDTO {
	return PrincipalDTO{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Name:        p.Name,
		RollNo:      p.RollNo,
		Branch:      p.Branch,
		AvatarURL:   p.AvatarURL,
		Role:        p.Role,
		HasPassword: p.HasPassword(),
		LastLoginAt: p.LastLoginAt,
		CreatedAt:   p.CreatedAt,
	}
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName" validate:"omitempty,min=1,max=80"`
	Name        *string `json:"name" validate:"omitempty,max=120"`
	RollNo      *string `json:"rollNo" validate:"omitempty,max=32"`
	Branch      *string `json:"branch" validate:"omitempty,max=80"`
	AvatarURL   *string `json:"avatar" validate:"omitempty,url,max=2048"`
}
