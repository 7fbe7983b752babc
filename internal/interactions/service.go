package interactions

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loredrop/campus-backend/pkg/db/models"
	"github.com/loredrop/campus-backend/pkg/enums"
	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/sanitize"
)

const (
	maxCommentLength    = 2000
	eventNotFoundMsg    = "event not found"
	emptyCommentMsg     = "comment text required"
	concurrentToggleMsg = "concurrent toggle, retry"

	maxToggleAttempts = 3
)

// Service maintains toggle interactions and comments on events.
type Service interface {
	// Toggle flips the principal's interaction of the given kind and reports
	// whether it is active afterwards.
	Toggle(ctx context.Context, kind enums.InteractionKind, eventID, principalID uuid.UUID) (bool, error)
	IsActive(ctx context.Context, kind enums.InteractionKind, eventID, principalID uuid.UUID) (bool, error)
	ActiveKinds(ctx context.Context, principalID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]map[enums.InteractionKind]bool, error)
	ListSaved(ctx context.Context, principalID uuid.UUID) ([]CalendarSave, error)
	AddComment(ctx context.Context, eventID, principalID uuid.UUID, text string) (*CommentDTO, error)
	ListComments(ctx context.Context, eventID uuid.UUID) ([]CommentDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type toggleMetrics interface {
	IncToggle(kind string, active bool)
}

type ServiceParams struct {
	DB      txRunner
	Repo    Repository
	Metrics toggleMetrics
	Logger  *logger.Logger
}

type service struct {
	db      txRunner
	repo    Repository
	metrics toggleMetrics
	logg    *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "db client required")
	}
	if p.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "interactions repository required")
	}
	return &service{db: p.DB, repo: p.Repo, metrics: p.Metrics, logg: p.Logger}, nil
}

func (s *service) Toggle(ctx context.Context, kind enums.InteractionKind, eventID, principalID uuid.UUID) (bool, error) {
	if !kind.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unknown interaction kind")
	}

	var active bool
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.EventExists(ctx, eventID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, eventNotFoundMsg)
		}

		// Each losing race means another toggle committed in between; look again.
		for attempt := 0; attempt < maxToggleAttempts; attempt++ {
			removed, err := repo.Delete(ctx, eventID, principalID, kind)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove interaction")
			}
			if removed {
				active = false
				return s.adjust(ctx, repo, kind, eventID, -1)
			}

			inserted, err := repo.Insert(ctx, eventID, principalID, kind)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record interaction")
			}
			if inserted {
				active = true
				return s.adjust(ctx, repo, kind, eventID, 1)
			}
		}
		return pkgerrors.New(pkgerrors.CodeConflict, concurrentToggleMsg)
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle interaction")
		}
		return false, err
	}

	if s.metrics != nil {
		s.metrics.IncToggle(string(kind), active)
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id": eventID.String(),
			"kind":     kind,
			"active":   active,
		})
		s.logg.Debug(logCtx, "interaction toggled")
	}
	return active, nil
}

func (s *service) adjust(ctx context.Context, repo Repository, kind enums.InteractionKind, eventID uuid.UUID, delta int) error {
	column := kind.CounterColumn()
	if column == "" {
		return nil
	}
	if err := repo.AdjustCounter(ctx, eventID, column, delta); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust event counter")
	}
	return nil
}

func (s *service) IsActive(ctx context.Context, kind enums.InteractionKind, eventID, principalID uuid.UUID) (bool, error) {
	if !kind.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unknown interaction kind")
	}
	ok, err := s.repo.Exists(ctx, eventID, principalID, kind)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check interaction")
	}
	return ok, nil
}

func (s *service) ActiveKinds(ctx context.Context, principalID uuid.UUID, eventIDs []uuid.UUID) (map[uuid.UUID]map[enums.InteractionKind]bool, error) {
	out, err := s.repo.ActiveKinds(ctx, principalID, eventIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load interactions")
	}
	return out, nil
}

func (s *service) ListSaved(ctx context.Context, principalID uuid.UUID) ([]CalendarSave, error) {
	rows, err := s.repo.ListSaved(ctx, principalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list calendar saves")
	}
	out := make([]CalendarSave, 0, len(rows))
	for i := range rows {
		out = append(out, savedFromRecord(&rows[i]))
	}
	return out, nil
}

func (s *service) AddComment(ctx context.Context, eventID, principalID uuid.UUID, text string) (*CommentDTO, error) {
	clean := sanitize.PlainText(text)
	if strings.TrimSpace(clean) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, emptyCommentMsg)
	}
	if utf8.RuneCountInString(clean) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment is too long")
	}

	comment := models.EventComment{EventID: eventID, PrincipalID: principalID, Text: clean}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.EventExists(ctx, eventID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, eventNotFoundMsg)
		}
		if err := repo.CreateComment(ctx, &comment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
		}
		if err := repo.AdjustCounter(ctx, eventID, "comment_count", 1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust comment count")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.GetComment(ctx, comment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload comment")
	}
	dto := commentFromModel(stored)
	return &dto, nil
}

func (s *service) ListComments(ctx context.Context, eventID uuid.UUID) ([]CommentDTO, error) {
	rows, err := s.repo.ListComments(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}
	out := make([]CommentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, commentFromModel(&rows[i]))
	}
	return out, nil
}
