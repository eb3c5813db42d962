package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/servicehub-backend/pkg/calendar"
	"github.com/angelmondragon/servicehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/servicehub-backend/pkg/errors"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/redis"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Entry is one leaderboard line.
type Entry struct {
	Rank          int            `json:"rank"`
	UserID        uuid.UUID      `json:"user_id"`
	Name          string         `json:"name"`
	Points        int            `json:"points"`
	Level         int            `json:"level"`
	JobsCompleted int            `json:"jobs_completed"`
	AverageRating float64        `json:"average_rating"`
	Role          enums.UserRole `json:"role"`
}

// Options configures caching and period boundaries.
type Options struct {
	Location     *time.Location
	CacheTTL     time.Duration
	DefaultLimit int
}

type Service interface {
	Get(ctx context.Context, period enums.LeaderboardPeriod, limit int) ([]Entry, error)
	// Refresh recomputes every period at the default limit and rewrites the cache.
	Refresh(ctx context.Context) error
}

type service struct {
	repo  Repository
	cache cache
	logg  *logger.Logger
	opts  Options
	now   func() time.Time
}

// NewService wires the leaderboard. cache may be nil to always hit the store.
func NewService(repo Repository, cache cache, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("leaderboard repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultLimit
	}
	return &service{repo: repo, cache: cache, logg: logg, opts: opts, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, period enums.LeaderboardPeriod, limit int) ([]Entry, error) {
	if !period.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid period %q", period))
	}
	limit = s.normalizeLimit(limit)

	key := s.cacheKey(period, limit)
	if entries, ok := s.cached(ctx, key); ok {
		return entries, nil
	}
	entries, err := s.compute(ctx, period, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, entries)
	return entries, nil
}

func (s *service) Refresh(ctx context.Context) error {
	var errs error
	for _, period := range enums.LeaderboardPeriods {
		entries, err := s.compute(ctx, period, s.opts.DefaultLimit)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", period, err))
			continue
		}
		s.store(ctx, s.cacheKey(period, s.opts.DefaultLimit), entries)
	}
	return errs
}

func (s *service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func (s *service) compute(ctx context.Context, period enums.LeaderboardPeriod, limit int) ([]Entry, error) {
	var (
		rows []Row
		err  error
	)
	switch period {
	case enums.LeaderboardWeekly:
		rows, err = s.repo.Since(ctx, calendar.StartOfWeek(s.now(), s.opts.Location), limit)
	case enums.LeaderboardMonthly:
		rows, err = s.repo.Since(ctx, calendar.StartOfMonth(s.now(), s.opts.Location), limit)
	default:
		rows, err = s.repo.AllTime(ctx, limit)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load leaderboard")
	}

	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, Entry{
			Rank:          i + 1,
			UserID:        row.UserID,
			Name:          strings.TrimSpace(row.FirstName + " " + row.LastName),
			Points:        row.Points,
			Level:         row.Level,
			JobsCompleted: row.JobsCompleted,
			AverageRating: row.AverageRating,
			Role:          row.Role,
		})
	}
	return entries, nil
}

func (s *service) cacheKey(period enums.LeaderboardPeriod, limit int) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey("leaderboard", strings.ToLower(string(period)), strconv.Itoa(limit))
}

func (s *service) cached(ctx context.Context, key string) ([]Entry, bool) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrNil) {
			s.logg.Warn(s.logg.WithField(ctx, "key", key), "leaderboard cache read failed")
		}
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "key", key), "leaderboard cache entry unreadable")
		return nil, false
	}
	return entries, true
}

func (s *service) store(ctx context.Context, key string, entries []Entry) {
	if s.cache == nil || s.opts.CacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		s.logg.Error(ctx, "encode leaderboard", err)
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.opts.CacheTTL); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "key", key), "leaderboard cache write failed", err)
	}
}
