package fx

import (
	"context"
	"database/sql"

	"guild-tracker/internal/api"
	"guild-tracker/internal/auth"
	"guild-tracker/internal/blob"
	"guild-tracker/internal/config"
	"guild-tracker/internal/database"
	"guild-tracker/internal/db"
	"guild-tracker/internal/logger"
	"guild-tracker/internal/notify"
	"guild-tracker/internal/repository"
	"guild-tracker/internal/server"
	"guild-tracker/internal/service"
	"guild-tracker/internal/worker"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideConfig loads configuration with the bootstrap logger; the process
// logger is built from the loaded level.
func ProvideConfig() (*config.Config, error) {
	return config.Load(logger.Bootstrap())
}

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideObservationStore(store *repository.MirroredStore) repository.ObservationStore {
	return store
}

func ProvideNotifier(cfg *config.Config, webhook *api.WebhookClient, logger zerolog.Logger) (*notify.Notifier, error) {
	return notify.NewNotifier(cfg, webhook, logger)
}

func ProvideSubmissionService(
	vision *api.VisionClient,
	images blob.ImageStore,
	store repository.ObservationStore,
	leaderboard *service.LeaderboardService,
	notifier *notify.Notifier,
	logger zerolog.Logger,
) *service.SubmissionService {
	return service.NewSubmissionService(vision, images, store, leaderboard, notifier, logger)
}

func ProvideIdentityService(discord *api.DiscordClient, logger zerolog.Logger) *service.IdentityService {
	return service.NewIdentityService(discord, logger)
}

func ProvideSettingsService(cfg *config.Config, discord *api.DiscordClient) *service.SettingsService {
	return service.NewSettingsService(cfg, discord)
}

func ProvideScheduler(cfg *config.Config, store *repository.MirroredStore, logger zerolog.Logger) (*worker.Scheduler, error) {
	return worker.NewScheduler(cfg, store, logger)
}

// RegisterBackground ties the notification router and the mirror sync
// scheduler to the app lifecycle.
func RegisterBackground(lc fx.Lifecycle, notifier *notify.Notifier, scheduler *worker.Scheduler, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := notifier.Run(context.Background()); err != nil {
					logger.Error().Err(err).Msg("notification router stopped")
				}
			}()
			select {
			case <-notifier.Running():
			case <-ctx.Done():
				return ctx.Err()
			}
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			if err := scheduler.Stop(); err != nil {
				logger.Warn().Err(err).Msg("error stopping scheduler")
			}
			return notifier.Close()
		},
	})
}

var Module = fx.Options(
	fx.Provide(ProvideConfig),
	logger.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// api clients
	fx.Provide(api.NewSupabaseClient),
	fx.Provide(api.NewVisionClient),
	fx.Provide(api.NewDiscordClient),
	fx.Provide(api.NewWebhookClient),
	// stores
	fx.Provide(repository.NewLocalStore),
	fx.Provide(repository.NewRemoteStore),
	fx.Provide(repository.NewMirroredStore),
	fx.Provide(ProvideObservationStore),
	fx.Provide(blob.New),
	// notifications
	fx.Provide(ProvideNotifier),
	// svc
	fx.Provide(auth.NewService),
	fx.Provide(service.NewLeaderboardService),
	fx.Provide(ProvideSubmissionService),
	fx.Provide(ProvideIdentityService),
	fx.Provide(ProvideSettingsService),
	fx.Provide(service.NewAdminService),
	// background
	fx.Provide(ProvideScheduler),
	fx.Invoke(RegisterBackground),
	// server
	fx.Provide(server.NewTrackerServer),
)
