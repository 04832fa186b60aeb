package engagement

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/focusquest/focusquest/internal/domain"
	"github.com/focusquest/focusquest/internal/infra/sqlite"
)

// DefaultLeaderboardSize is how many rows a leaderboard returns.
const DefaultLeaderboardSize = 10

// Service runs engagement operations against storage. Every mutating call is
// one transaction: profile, item, streak and metrics writes commit or roll
// back together.
type Service struct {
	db     *sqlite.DB
	cache  domain.LeaderboardCache
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
	size   int

	boards singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock. Tests pin it to a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone calendar days are cut in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithCache puts a leaderboard cache in front of the database.
func WithCache(c domain.LeaderboardCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLeaderboardSize caps leaderboard rows.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.size = n
		}
	}
}

// NewService creates an engagement service.
func NewService(db *sqlite.DB, opts ...Option) *Service {
	s := &Service{
		db:     db,
		cache:  noCache{},
		logger: zap.NewNop(),
		now:    time.Now,
		loc:    time.UTC,
		size:   DefaultLeaderboardSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today is the current calendar day in the service timezone.
func (s *Service) today() time.Time {
	return domain.DateOf(s.now(), s.loc)
}
