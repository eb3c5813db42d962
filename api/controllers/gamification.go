package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/servicehub-backend/api/responses"
	"github.com/angelmondragon/servicehub-backend/api/validators"
	"github.com/angelmondragon/servicehub-backend/internal/achievements"
	"github.com/angelmondragon/servicehub-backend/internal/gamification"
	"github.com/angelmondragon/servicehub-backend/internal/leaderboard"
	"github.com/angelmondragon/servicehub-backend/internal/points"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/pagination"
)

const manualCheckTrigger = "MANUAL_CHECK"

// PointsSummary returns the caller's balance, level and progress.
func PointsSummary(svc points.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// PointsTransactions pages through the caller's ledger, newest first.
func PointsTransactions(svc points.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Transactions(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// Achievements returns the catalog annotated with the caller's unlocks.
func Achievements(svc achievements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CheckAchievements evaluates every locked achievement for the caller.
func CheckAchievements(svc achievements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := callerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unlocked, err := svc.CheckAndUnlock(r.Context(), nil, userID, manualCheckTrigger)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if unlocked == nil {
			unlocked = []achievements.Unlocked{}
		}
		responses.WriteSuccess(w, map[string]any{"unlocked": unlocked})
	}
}

// Leaderboard ranks users for a period.
func Leaderboard(svc leaderboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		period := enums.LeaderboardAllTime
		if raw := strings.TrimSpace(r.URL.Query().Get("period")); raw != "" {
			parsed, err := enums.ParseLeaderboardPeriod(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period"))
				return
			}
			period = parsed
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.Get(r.Context(), period, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"period":  period,
			"entries": entries,
		})
	}
}

type awardEventRequest struct {
	UserID   string  `json:"user_id" validate:"required,uuid"`
	Event    string  `json:"event" validate:"required"`
	SourceID *string `json:"source_id,omitempty" validate:"omitempty,uuid"`
}

// AdminAwardEvent applies any point-bearing event to a user.
func AdminAwardEvent(svc gamification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body awardEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := parseUUID(body.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := enums.ParseGamificationEvent(strings.ToUpper(strings.TrimSpace(body.Event)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event"))
			return
		}
		if _, ok := points.AwardFor(event); !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event carries no points"))
			return
		}
		sourceID, err := optionalUUID(body.SourceID, "source_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AwardPointsForEvent(r.Context(), nil, userID, event, sourceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
