package settings

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hongfa/admin-api/internal/types"
)

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Load(ctx context.Context) (types.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, settings types.Settings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockSettingsRepository) DatabaseStats(ctx context.Context) (*types.DatabaseStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.DatabaseStats), args.Error(1)
}

type recordingTracker struct {
	events []string
}

func (t *recordingTracker) TrackActivity(_ context.Context, _ *uuid.UUID, params types.TrackActivityParams) error {
	t.events = append(t.events, params.EventType)
	return nil
}

func setupSettingsServiceTest() (*ServiceImpl, *MockSettingsRepository, *recordingTracker) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockSettingsRepository)
	tracker := &recordingTracker{}
	service := NewService(mockRepo, tracker, "test", logger)
	return service, mockRepo, tracker
}

func TestSettingsService_Get(t *testing.T) {
	service, mockRepo, _ := setupSettingsServiceTest()
	ctx := context.Background()

	stored := types.DefaultSettings()
	stored.General.SiteName = "Cached Shop"
	mockRepo.On("Load", ctx).Return(stored, nil).Once()

	first, err := service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Cached Shop", first.General.SiteName)

	// Second read is served from the cache without another repository call.
	second, err := service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	mockRepo.AssertExpectations(t)
}

func TestSettingsService_Update(t *testing.T) {
	service, mockRepo, tracker := setupSettingsServiceTest()
	ctx := context.Background()
	actor := &types.Identity{ID: uuid.New(), Role: types.RoleAdmin}

	stored := types.DefaultSettings()
	newGeneral := types.GeneralSettings{
		SiteName:        "Renamed Shop",
		SiteDescription: "Updated",
		ContactEmail:    "ops@hongfagmbh.de",
		Timezone:        "Europe/Berlin",
		Language:        "de",
	}
	want := stored
	want.General = newGeneral

	mockRepo.On("Load", ctx).Return(stored, nil).Once()
	mockRepo.On("Save", ctx, want).Return(nil).Once()

	updated, err := service.Update(ctx, actor, UpdateSettingsParams{General: &newGeneral})
	require.NoError(t, err)
	assert.Equal(t, newGeneral, updated.General)
	// Sections not in the update keep their stored values.
	assert.Equal(t, stored.Security, updated.Security)
	assert.Contains(t, tracker.events, "settings_updated")
	mockRepo.AssertExpectations(t)

	// The update invalidated the cache, so the next read loads again.
	mockRepo.On("Load", ctx).Return(want, nil).Once()
	reloaded, err := service.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Shop", reloaded.General.SiteName)
	mockRepo.AssertExpectations(t)
}

func TestSettingsService_SystemInfo(t *testing.T) {
	service, _, _ := setupSettingsServiceTest()

	info := service.SystemInfo(context.Background())
	assert.Equal(t, appVersion, info.Version)
	assert.Equal(t, "test", info.Environment)
	assert.NotEmpty(t, info.GoVersion)
	assert.GreaterOrEqual(t, info.UptimeSecs, int64(0))
}

func TestSettingsService_ClearCache(t *testing.T) {
	service, mockRepo, tracker := setupSettingsServiceTest()
	ctx := context.Background()

	stored := types.DefaultSettings()
	mockRepo.On("Load", ctx).Return(stored, nil).Twice()

	_, err := service.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, service.ClearCache(ctx, nil))
	assert.Contains(t, tracker.events, "cache_cleared")

	// Cache was flushed, so the repository is hit again.
	_, err = service.Get(ctx)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
