package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/prayer-companion/internal/application"
	"github.com/example/prayer-companion/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// SettingsServiceDeps captures dependencies for constructing a settings service.
type SettingsServiceDeps struct {
	Repo     persistence.SettingsRepository
	Defaults application.Settings
	Now      func() time.Time
	Logger   *slog.Logger
	OnChange func()
}

// NewSettingsService builds a settings service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewSettingsService(deps SettingsServiceDeps) *application.SettingsService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewSettingsService(deps.Repo, deps.Defaults, now, deps.Logger, deps.OnChange)
}

// SourceServiceDeps captures dependencies for constructing a source service.
type SourceServiceDeps struct {
	Repo        persistence.SourceRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
	OnChange    func()
}

// NewSourceService builds a source service using the supplied dependencies.
func (f *ServiceFactory) NewSourceService(deps SourceServiceDeps) *application.SourceService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewSourceService(deps.Repo, idGen, now, deps.Logger, deps.OnChange)
}

// ResolutionServiceDeps captures dependencies for constructing a resolution service.
type ResolutionServiceDeps struct {
	Repo        persistence.ResolutionRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewResolutionService builds a resolution service using the supplied dependencies.
func (f *ServiceFactory) NewResolutionService(deps ResolutionServiceDeps) *application.ResolutionService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewResolutionService(deps.Repo, idGen, now, deps.Logger)
}

// PlanServiceDeps captures dependencies for constructing a plan service.
type PlanServiceDeps struct {
	Settings    application.SettingsProvider
	Feeds       application.FeedProvider
	Fetcher     application.FeedFetcher
	Resolutions persistence.ResolutionRepository
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewPlanService builds a plan service using the supplied dependencies.
func (f *ServiceFactory) NewPlanService(deps PlanServiceDeps) *application.PlanService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewPlanService(deps.Settings, deps.Feeds, deps.Fetcher, deps.Resolutions, now, deps.Logger)
}
