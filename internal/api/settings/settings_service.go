package settings

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/hongfa/admin-api/internal/types"
)

type activityTracker interface {
	TrackActivity(ctx context.Context, userID *uuid.UUID, params types.TrackActivityParams) error
}

const (
	appVersion       = "1.0.0"
	settingsCacheKey = "settings"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for application settings and
// system administration.
type Service interface {
	Get(ctx context.Context) (types.Settings, error)
	Update(ctx context.Context, actor *types.Identity, params UpdateSettingsParams) (types.Settings, error)
	SystemInfo(ctx context.Context) types.SystemInfo
	DatabaseStats(ctx context.Context) (*types.DatabaseStats, error)
	ClearCache(ctx context.Context, actor *types.Identity) error
	Backup(ctx context.Context, actor *types.Identity) error
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	tracker   activityTracker
	cache     *cache.Cache
	mode      string
	startedAt time.Time
}

func NewService(repo Repository, tracker activityTracker, mode string, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		tracker:   tracker,
		cache:     cache.New(5*time.Minute, 10*time.Minute),
		mode:      mode,
		startedAt: time.Now(),
	}
}

func (s *ServiceImpl) Get(ctx context.Context) (types.Settings, error) {
	if cached, found := s.cache.Get(settingsCacheKey); found {
		return cached.(types.Settings), nil
	}

	settings, err := s.repo.Load(ctx)
	if err != nil {
		return types.Settings{}, fmt.Errorf("error loading settings: %w", err)
	}
	s.cache.Set(settingsCacheKey, settings, cache.DefaultExpiration)
	return settings, nil
}

// Update merges the provided sections over the stored settings and persists
// the result. The settings cache is invalidated on success.
func (s *ServiceImpl) Update(ctx context.Context, actor *types.Identity, params UpdateSettingsParams) (types.Settings, error) {
	l := s.logger.With(slog.String("method", "Update"))

	settings, err := s.repo.Load(ctx)
	if err != nil {
		return types.Settings{}, fmt.Errorf("error loading settings: %w", err)
	}

	if params.General != nil {
		settings.General = *params.General
	}
	if params.Security != nil {
		settings.Security = *params.Security
	}
	if params.Notifications != nil {
		settings.Notifications = *params.Notifications
	}
	if params.Inventory != nil {
		settings.Inventory = *params.Inventory
	}
	if params.Orders != nil {
		settings.Orders = *params.Orders
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		l.ErrorContext(ctx, "Failed to save settings", slog.Any("error", err))
		return types.Settings{}, fmt.Errorf("error saving settings: %w", err)
	}
	s.cache.Delete(settingsCacheKey)

	s.track(ctx, actor, "settings_updated", nil)
	l.InfoContext(ctx, "Settings updated")
	return settings, nil
}

func (s *ServiceImpl) SystemInfo(_ context.Context) types.SystemInfo {
	return types.SystemInfo{
		Version:      appVersion,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS,
		Architecture: runtime.GOARCH,
		UptimeSecs:   int64(time.Since(s.startedAt).Seconds()),
		NumGoroutine: runtime.NumGoroutine(),
		Environment:  s.mode,
	}
}

func (s *ServiceImpl) DatabaseStats(ctx context.Context) (*types.DatabaseStats, error) {
	return s.repo.DatabaseStats(ctx)
}

func (s *ServiceImpl) ClearCache(ctx context.Context, actor *types.Identity) error {
	s.cache.Flush()
	s.track(ctx, actor, "cache_cleared", nil)
	s.logger.InfoContext(ctx, "Cache cleared")
	return nil
}

// Backup records a backup request. The actual dump runs out-of-band via the
// operations tooling.
func (s *ServiceImpl) Backup(ctx context.Context, actor *types.Identity) error {
	s.track(ctx, actor, "backup_created", nil)
	s.logger.InfoContext(ctx, "Database backup requested")
	return nil
}

func (s *ServiceImpl) track(ctx context.Context, actor *types.Identity, event string, data map[string]any) {
	if s.tracker == nil {
		return
	}
	var actorID *uuid.UUID
	if actor != nil {
		actorID = &actor.ID
		if data == nil {
			data = map[string]any{"by": actor.ID.String()}
		}
	}
	if err := s.tracker.TrackActivity(ctx, actorID, types.TrackActivityParams{
		EventType: event,
		EventData: data,
	}); err != nil {
		s.logger.WarnContext(ctx, "Failed to record activity event",
			slog.String("event", event), slog.Any("error", err))
	}
}
