package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/config"
	"github.com/gymtrack/internal/handler"
	"github.com/gymtrack/internal/observability"
)

const sessionName = "gymtrack_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, api *handler.API, metrics *observability.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger())
	if metrics != nil {
		r.Use(metrics.Middleware())
	}

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	// 上传的动作配图
	if media := api.Media(); media != nil && media.Dir() != "" {
		r.Static(uploadRoute(cfg.UploadURLPath, media.URLPath()), media.Dir())
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth/register", api.Register)
		apiGroup.POST("/auth/login", api.Login)
		apiGroup.POST("/auth/logout", api.Logout)

		apiGroup.GET("/muscle-groups", api.ListMuscleGroups)
		apiGroup.GET("/muscle-groups/:id/exercises", api.ListMuscleGroupExercises)
		apiGroup.GET("/exercises", api.ListExercises)
		apiGroup.GET("/exercises/popular", api.PopularExercises)
		apiGroup.GET("/exercises/:id", api.GetExercise)

		// 需要登录的接口
		auth := apiGroup.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/me", api.Me)
			auth.PUT("/me", api.UpdateMe)
			auth.DELETE("/me", api.DeleteMe)
			auth.GET("/preferences", api.GetPreferences)
			auth.PUT("/preferences", api.UpdatePreferences)

			auth.POST("/exercises", api.CreateExercise)
			auth.PUT("/exercises/:id", api.UpdateExercise)
			auth.DELETE("/exercises/:id", api.DeleteExercise)
			auth.POST("/exercises/:id/media", api.UploadExerciseImage)

			auth.GET("/routines", api.ListRoutines)
			auth.POST("/routines", api.CreateRoutine)
			auth.GET("/routines/:id", api.GetRoutine)
			auth.PUT("/routines/:id", api.UpdateRoutine)
			auth.POST("/routines/:id/active", api.SetRoutineActive)
			auth.DELETE("/routines/:id", api.DeleteRoutine)
			auth.GET("/routines/:id/exercises", api.ListRoutineExercises)
			auth.POST("/routines/:id/exercises", api.AddRoutineExercise)
			auth.GET("/routines/:id/available-exercises", api.AvailableExercises)
			auth.PUT("/routines/:id/exercises/:itemID", api.UpdateRoutineExercise)
			auth.DELETE("/routines/:id/exercises/:itemID", api.RemoveRoutineExercise)
			auth.PUT("/routines/:id/order", api.ReorderRoutineExercises)
			auth.POST("/routines/:id/workouts", api.StartWorkoutFromRoutine)

			auth.GET("/workouts", api.ListWorkouts)
			auth.POST("/workouts", api.CreateWorkout)
			auth.GET("/workouts/active", api.GetActiveWorkout)
			auth.GET("/workouts/stats", api.WorkoutStats)
			auth.GET("/workouts/export", api.ExportWorkouts)
			auth.GET("/workouts/:id", api.GetWorkout)
			auth.DELETE("/workouts/:id", api.DeleteWorkout)
			auth.POST("/workouts/:id/exercises", api.AddWorkoutExercise)

			auth.GET("/workouts/:id/session", api.GetSession)
			auth.POST("/workouts/:id/start", api.StartWorkout)
			auth.POST("/workouts/:id/pause", api.PauseWorkout)
			auth.POST("/workouts/:id/resume", api.ResumeWorkout)
			auth.POST("/workouts/:id/finish", api.FinishWorkout)
			auth.POST("/workouts/:id/cancel", api.CancelWorkout)
			auth.POST("/workouts/:id/next", api.NextExercise)
			auth.POST("/workouts/:id/previous", api.PreviousExercise)
			auth.POST("/workouts/:id/select/:index", api.SelectExercise)
			auth.POST("/workouts/:id/exercises/:index/start", api.StartWorkoutExercise)
			auth.POST("/workouts/:id/exercises/:index/complete", api.CompleteWorkoutExercise)
			auth.POST("/workouts/:id/exercises/:index/skip", api.SkipWorkoutExercise)
			auth.POST("/workouts/:id/exercises/:index/sets", api.CompleteSet)

			auth.GET("/workout-exercises/:id/sets", api.ListSets)
			auth.PUT("/sets/:id", api.UpdateSet)
			auth.DELETE("/sets/:id", api.DeleteSet)
		}
	}

	return r
}

func uploadRoute(configured, fallback string) string {
	route := strings.TrimSpace(configured)
	if route == "" {
		route = fallback
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return strings.TrimRight(route, "/")
}
