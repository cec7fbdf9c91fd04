// Package review decides, previews and redistributes when a learner next
// reviews each item: preview of every grade's outcome, backlog analysis,
// recovery spreading, manual rescheduling and study-pattern checks.
package review

import (
	"context"
	"sync"
	"time"

	"github.com/example/studyplan/internal/logger"
	"github.com/example/studyplan/internal/spaced_repetition"
	"github.com/example/studyplan/pkg/models"
)

// ItemStore is the subset of the ReviewableItem repository the service uses
type ItemStore interface {
	GetByContent(ctx context.Context, userID int64, contentType models.ContentType, contentID int64) (*models.ReviewableItem, error)
	ListByUser(ctx context.Context, userID int64) ([]models.ReviewableItem, error)
	ListByIDs(ctx context.Context, userID int64, ids []int64) ([]models.ReviewableItem, error)
	UpdateDue(ctx context.Context, userID, id int64, due time.Time) error
}

// PreferenceStore provides a user's study preferences
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID int64) (models.StudyPreferences, error)
}

// SessionStore provides study-session history
type SessionStore interface {
	ListByUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.StudySession, error)
}

const (
	defaultPreviewTimeout   = 5 * time.Second
	defaultBatchConcurrency = 8
)

// Service implements the review scheduling operations
type Service struct {
	items    ItemStore
	prefs    PreferenceStore
	sessions SessionStore
	engine   spaced_repetition.Engine
	log      *logger.Logger

	now              func() time.Time
	previewTimeout   time.Duration
	batchConcurrency int

	locks userLocks
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for batch and engine reports
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithPreviewTimeout bounds a preview when the caller set no deadline
func WithPreviewTimeout(d time.Duration) Option {
	return func(s *Service) { s.previewTimeout = d }
}

// WithBatchConcurrency limits concurrent due-date writes
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// New creates a review service
func New(items ItemStore, prefs PreferenceStore, sessions SessionStore, engine spaced_repetition.Engine, opts ...Option) *Service {
	s := &Service{
		items:            items,
		prefs:            prefs,
		sessions:         sessions,
		engine:           engine,
		log:              logger.Nop(),
		now:              time.Now,
		previewTimeout:   defaultPreviewTimeout,
		batchConcurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) preferences(ctx context.Context, userID int64) (models.StudyPreferences, *time.Location, error) {
	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return prefs, nil, err
	}
	loc := prefs.Location
	if loc == nil {
		loc = time.UTC
	}
	return prefs, loc, nil
}

// userLocks serializes reschedule and recovery per user. An entry lives only
// while someone holds or waits for it.
type userLocks struct {
	mu    sync.Mutex
	users map[int64]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	if l.users == nil {
		l.users = make(map[int64]*userLock)
	}
	m, ok := l.users[userID]
	if !ok {
		m = &userLock{}
		l.users[userID] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.users, userID)
		}
		l.mu.Unlock()
	}
}
