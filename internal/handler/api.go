package handler

import (
	"github.com/gymtrack/internal/repository"
	"github.com/gymtrack/internal/service"
	"github.com/gymtrack/internal/session"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	store       *repository.Store
	users       *service.UserService
	preferences *service.PreferencesService
	exercises   *service.ExerciseService
	routines    *service.RoutineService
	workouts    *service.WorkoutService
	exports     *service.ExportService
	media       *service.MediaService
	sessions    *session.Orchestrator
}

// NewAPI constructs a handler set with shared services.
func NewAPI(store *repository.Store, orchestrator *session.Orchestrator, media *service.MediaService) *API {
	return &API{
		store:       store,
		users:       service.NewUserService(store),
		preferences: service.NewPreferencesService(store),
		exercises:   service.NewExerciseService(store),
		routines:    service.NewRoutineService(store),
		workouts:    service.NewWorkoutService(store),
		exports:     service.NewExportService(store),
		media:       media,
		sessions:    orchestrator,
	}
}

// Media exposes the upload service so the router can serve stored files.
func (a *API) Media() *service.MediaService {
	return a.media
}
