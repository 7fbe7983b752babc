package organizations

import (
	"time"

	"github.com/google/uuid"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
)

type OrganizationDTO struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Slug        string                 `json:"slug"`
	Description string                 `json:"description"`
	Type        enums.OrganizationType `json:"type"`
	LogoURL     *string                `json:"logo,omitempty"`
	IsVerified  bool                   `json:"isVerified"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func FromModel(o *models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:          o.ID,
		Name:        o.Name,
		Slug:        o.Slug,
		Description: o.Description,
		Type:        o.Type,
		LogoURL:     o.LogoURL,
		IsVerified:  o.IsVerified,
		CreatedAt:   o.CreatedAt,
	}
}
