package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/cache"
	"github.com/saturnino-fabrica-de-software/selfielens/internal/domain"
)

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserReader) List(ctx context.Context, limit, offset int) ([]*domain.UserSummary, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UserSummary), args.Error(1)
}

type MockAnalysisReader struct {
	mock.Mock
}

func (m *MockAnalysisReader) GetByID(ctx context.Context, id uuid.UUID) (*domain.SelfieAnalysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SelfieAnalysis), args.Error(1)
}

func (m *MockAnalysisReader) ListByUID(ctx context.Context, uid string, limit int) ([]*domain.SelfieAnalysis, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SelfieAnalysis), args.Error(1)
}

func (m *MockAnalysisReader) Analytics(ctx context.Context, filter domain.AnalyticsFilter) (*domain.Analytics, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analytics), args.Error(1)
}

func (m *MockAnalysisReader) FindSimilar(ctx context.Context, reference *domain.SelfieAnalysis, limit int) ([]domain.SimilarAnalysis, error) {
	args := m.Called(ctx, reference, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SimilarAnalysis), args.Error(1)
}

type MockEventReader struct {
	mock.Mock
}

func (m *MockEventReader) ListByUID(ctx context.Context, uid string, limit int) ([]*domain.Event, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

type MockAnalyticsCache struct {
	mock.Mock
}

func (m *MockAnalyticsCache) GetJSON(ctx context.Context, key string, dest any) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *MockAnalyticsCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockAnalyticsCache) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

type fixture struct {
	users    *MockUserReader
	analyses *MockAnalysisReader
	events   *MockEventReader
	cache    *MockAnalyticsCache
	service  *Service
}

func newFixture(ttl time.Duration) *fixture {
	f := &fixture{
		users:    new(MockUserReader),
		analyses: new(MockAnalysisReader),
		events:   new(MockEventReader),
		cache:    new(MockAnalyticsCache),
	}
	f.service = NewService(f.users, f.analyses, f.events, f.cache, ttl, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func TestListParams_Normalize(t *testing.T) {
	assert.Equal(t, ListParams{Limit: DefaultUserLimit}, ListParams{}.Normalize())
	assert.Equal(t, ListParams{Limit: MaxUserLimit, Offset: 0}, ListParams{Limit: 10000, Offset: -3}.Normalize())
	assert.Equal(t, ListParams{Limit: 20, Offset: 40}, ListParams{Limit: 20, Offset: 40}.Normalize())
}

func TestService_ListUsers(t *testing.T) {
	f := newFixture(time.Minute)
	want := []*domain.UserSummary{{User: domain.User{UID: "u-1"}}}
	f.users.On("List", mock.Anything, DefaultUserLimit, 0).Return(want, nil)

	got, err := f.service.ListUsers(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	f.users.AssertExpectations(t)
}

func TestService_GetUserDetail(t *testing.T) {
	t.Run("aggregates user data", func(t *testing.T) {
		f := newFixture(time.Minute)
		user := &domain.User{UID: "u-1", SelfieCount: 1}
		analyses := []*domain.SelfieAnalysis{{UID: "u-1"}}
		events := []*domain.Event{{UID: "u-1", Type: "click"}}

		f.users.On("GetByUID", mock.Anything, "u-1").Return(user, nil)
		f.analyses.On("ListByUID", mock.Anything, "u-1", DetailAnalysesLimit).Return(analyses, nil)
		f.events.On("ListByUID", mock.Anything, "u-1", DetailEventsLimit).Return(events, nil)

		detail, err := f.service.GetUserDetail(context.Background(), "u-1")
		require.NoError(t, err)
		assert.Equal(t, user, detail.User)
		assert.Equal(t, analyses, detail.Analyses)
		assert.Equal(t, events, detail.Events)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(time.Minute)
		f.users.On("GetByUID", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

		_, err := f.service.GetUserDetail(context.Background(), "ghost")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		f.analyses.AssertNotCalled(t, "ListByUID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Analytics(t *testing.T) {
	filter := domain.AnalyticsFilter{Days: 7}
	key := filter.CacheKey()
	computed := &domain.Analytics{TotalAnalyses: 4, EmotionBreakdown: map[string]int64{"happy": 4}, GenderBreakdown: map[string]int64{}}

	t.Run("cache hit skips the database", func(t *testing.T) {
		f := newFixture(time.Minute)
		f.cache.On("GetJSON", mock.Anything, key, mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*domain.Analytics) = *computed
			}).
			Return(nil)

		got, err := f.service.Analytics(context.Background(), filter, false)
		require.NoError(t, err)
		assert.Equal(t, computed, got)
		f.analyses.AssertNotCalled(t, "Analytics", mock.Anything, mock.Anything)
	})

	t.Run("cache miss computes and stores", func(t *testing.T) {
		f := newFixture(time.Minute)
		f.cache.On("GetJSON", mock.Anything, key, mock.Anything).Return(cache.ErrCacheMiss)
		f.analyses.On("Analytics", mock.Anything, filter).Return(computed, nil)
		f.cache.On("SetJSON", mock.Anything, key, computed, time.Minute).Return(nil)

		got, err := f.service.Analytics(context.Background(), filter, false)
		require.NoError(t, err)
		assert.Equal(t, computed, got)
		f.cache.AssertExpectations(t)
	})

	t.Run("cache failures do not fail the request", func(t *testing.T) {
		f := newFixture(time.Minute)
		f.cache.On("GetJSON", mock.Anything, key, mock.Anything).Return(errors.New("db down"))
		f.analyses.On("Analytics", mock.Anything, filter).Return(computed, nil)
		f.cache.On("SetJSON", mock.Anything, key, computed, time.Minute).Return(errors.New("db down"))

		got, err := f.service.Analytics(context.Background(), filter, false)
		require.NoError(t, err)
		assert.Equal(t, computed, got)
	})

	t.Run("fresh invalidates first", func(t *testing.T) {
		f := newFixture(time.Minute)
		f.cache.On("DeletePrefix", mock.Anything, "analytics:").Return(int64(3), nil)
		f.analyses.On("Analytics", mock.Anything, filter).Return(computed, nil)
		f.cache.On("SetJSON", mock.Anything, key, computed, time.Minute).Return(nil)

		_, err := f.service.Analytics(context.Background(), filter, true)
		require.NoError(t, err)
		f.cache.AssertNotCalled(t, "GetJSON", mock.Anything, mock.Anything, mock.Anything)
		f.cache.AssertExpectations(t)
	})

	t.Run("zero ttl disables caching", func(t *testing.T) {
		f := newFixture(0)
		f.analyses.On("Analytics", mock.Anything, filter).Return(computed, nil)

		_, err := f.service.Analytics(context.Background(), filter, false)
		require.NoError(t, err)
		f.cache.AssertNotCalled(t, "GetJSON", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_SimilarAnalyses(t *testing.T) {
	id := uuid.New()
	ref := &domain.SelfieAnalysis{ID: id, Expressions: map[string]float64{"sad": 1}}

	t.Run("clamps limit", func(t *testing.T) {
		f := newFixture(time.Minute)
		f.analyses.On("GetByID", mock.Anything, id).Return(ref, nil)
		f.analyses.On("FindSimilar", mock.Anything, ref, MaxSimilarLimit).Return([]domain.SimilarAnalysis{}, nil)

		got, err := f.service.SimilarAnalyses(context.Background(), id, 1000)
		require.NoError(t, err)
		assert.Empty(t, got)
		f.analyses.AssertExpectations(t)
	})

	t.Run("unknown reference", func(t *testing.T) {
		f := newFixture(time.Minute)
		f.analyses.On("GetByID", mock.Anything, id).Return(nil, domain.ErrAnalysisNotFound)

		_, err := f.service.SimilarAnalyses(context.Background(), id, 0)
		assert.ErrorIs(t, err, domain.ErrAnalysisNotFound)
	})
}
