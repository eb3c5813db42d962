package reviews

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/servicehub-backend/internal/gamification"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/db/models"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

const (
	minRating        = 1
	maxRating        = 5
	maxCommentLength = 2000
	defaultListLimit = 20
	maxListLimit     = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventAwarder interface {
	AwardPointsForEvent(ctx context.Context, tx *gorm.DB, userID uuid.UUID, event enums.GamificationEvent, sourceID *uuid.UUID) (*gamification.EventResult, error)
}

// SubmitInput is a customer's rating of one booking.
type SubmitInput struct {
	BookingID  uuid.UUID
	CustomerID uuid.UUID
	Rating     int
	Comment    *string
}

// ReviewDTO is the public shape of a review.
type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	BookingID    uuid.UUID `json:"booking_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	TechnicianID uuid.UUID `json:"technician_id"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service accepts reviews for completed bookings.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*ReviewDTO, error)
	ListForTechnician(ctx context.Context, technicianID uuid.UUID, limit int) ([]ReviewDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	events eventAwarder
	logg   *logger.Logger
}

func NewService(repo Repository, tx txRunner, events eventAwarder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event awarder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, events: events, logg: logg}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*ReviewDTO, error) {
	if input.BookingID == uuid.Nil || input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id and customer id required")
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("rating must be between %d and %d", minRating, maxRating))
	}
	comment := input.Comment
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if len(trimmed) > maxCommentLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment too long")
		}
		if trimmed == "" {
			comment = nil
		} else {
			comment = &trimmed
		}
	}

	var review *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.LockBooking(ctx, input.BookingID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the booking customer can review it")
		}
		if booking.Status != enums.BookingStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeValidation, "only completed bookings can be reviewed")
		}

		technician, err := repo.LockTechnician(ctx, booking.TechnicianID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock technician profile")
		}

		review = &models.Review{
			BookingID:    booking.ID,
			CustomerID:   booking.CustomerID,
			TechnicianID: booking.TechnicianID,
			Rating:       input.Rating,
			Comment:      comment,
		}
		if err := repo.Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "booking already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}

		stats, err := repo.RatingStats(ctx, technician.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate ratings")
		}
		stats.Average = math.Round(stats.Average*100) / 100
		if err := repo.UpdateRating(ctx, technician.ID, stats); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update technician rating")
		}

		if _, err := s.events.AwardPointsForEvent(ctx, tx, input.CustomerID, enums.EventReviewSubmitted, &review.ID); err != nil {
			return err
		}
		if input.Rating == maxRating {
			if _, err := s.events.AwardPointsForEvent(ctx, tx, technician.UserID, enums.EventFiveStarReview, &review.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"booking_id": input.BookingID.String(),
		"rating":     input.Rating,
	})
	s.logg.Info(logCtx, "review submitted")
	dto := toDTO(*review)
	return &dto, nil
}

func (s *service) ListForTechnician(ctx context.Context, technicianID uuid.UUID, limit int) ([]ReviewDTO, error) {
	if technicianID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "technician id required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := s.repo.ListByTechnician(ctx, technicianID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func toDTO(r models.Review) ReviewDTO {
	return ReviewDTO{
		ID:           r.ID,
		BookingID:    r.BookingID,
		CustomerID:   r.CustomerID,
		TechnicianID: r.TechnicianID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		CreatedAt:    r.CreatedAt,
	}
}
