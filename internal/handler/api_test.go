package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
	"github.com/gymtrack/internal/service"
	"github.com/gymtrack/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apiDBSeq atomic.Int64

const testPassword = "Squat#2025"

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Kind    string            `json:"kind"`
	Fields  map[string]string `json:"fields"`
	Data    json.RawMessage   `json:"data"`
}

type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newTestRouter(t *testing.T) (*gin.Engine, *repository.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), apiDBSeq.Add(1))
	gdb, err := db.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })
	_, err = db.SeedCatalog(gdb)
	require.NoError(t, err)

	store := repository.NewStore(gdb)
	api := NewAPI(store, session.New(store), service.NewMediaService(t.TempDir(), "/uploads"))

	r := gin.New()
	r.Use(RequestLogger())
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))

	r.POST("/api/auth/register", api.Register)
	r.POST("/api/auth/login", api.Login)

	auth := r.Group("/api")
	auth.Use(AuthRequired())
	auth.GET("/me", api.Me)
	auth.POST("/routines", api.CreateRoutine)
	auth.POST("/workouts", api.CreateWorkout)
	auth.GET("/workouts/active", api.GetActiveWorkout)
	auth.GET("/workouts/export", api.ExportWorkouts)
	auth.POST("/workouts/:id/exercises", api.AddWorkoutExercise)
	auth.POST("/workouts/:id/start", api.StartWorkout)
	auth.POST("/workouts/:id/finish", api.FinishWorkout)
	auth.POST("/workouts/:id/exercises/:index/sets", api.CompleteSet)
	auth.GET("/workout-exercises/:id/sets", api.ListSets)

	return r, store
}

func (tc *testClient) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	tc.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(tc.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	tc.router.ServeHTTP(rr, req)
	if cookies := rr.Result().Cookies(); len(cookies) > 0 {
		tc.cookies = cookies
	}

	var env envelope
	if rr.Header().Get("Content-Type") != xlsxContentType && rr.Body.Len() > 0 {
		require.NoError(tc.t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func registerPayload(email string) map[string]any {
	return map[string]any{
		"first_name":       "Alex",
		"last_name":        "Lifter",
		"email":            email,
		"password":         testPassword,
		"confirm_password": testPassword,
	}
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	r, _ := newTestRouter(t)
	client := &testClient{t: t, router: r}

	rr, env := client.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, msgLoginRequired, env.Message)
}

func TestRegisterLoginAndRoutineValidation(t *testing.T) {
	r, store := newTestRouter(t)
	client := &testClient{t: t, router: r}

	rr, env := client.do(http.MethodPost, "/api/auth/register", map[string]any{
		"first_name":       "Alex",
		"email":            "not-an-email",
		"password":         "short1",
		"confirm_password": "short1",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "validation", env.Kind)
	assert.Contains(t, env.Fields, "email")
	assert.Contains(t, env.Fields, "password")

	var users int64
	require.NoError(t, store.DB().Model(&db.User{}).Count(&users).Error)
	assert.Zero(t, users)

	rr, env = client.do(http.MethodPost, "/api/auth/register", registerPayload("alex@example.com"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "success", env.Status)

	rr, _ = client.do(http.MethodPost, "/api/auth/register", registerPayload("alex@example.com"))
	assert.Equal(t, http.StatusConflict, rr.Code)

	// 新客户端：错误密码与正确密码
	fresh := &testClient{t: t, router: r}
	rr, env = fresh.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "alex@example.com", "password": "Wrong#Pass1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "error", env.Status)

	rr, _ = fresh.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "alex@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, rr.Code)

	rr, env = fresh.do(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decodeData[db.User](t, env)
	assert.Equal(t, "alex@example.com", me.Email)

	rr, env = fresh.do(http.MethodPost, "/api/routines", map[string]any{
		"name":               "",
		"estimated_duration": 45,
		"difficulty":         db.DifficultyBeginner,
		"target_muscles":     "Legs",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "validation", env.Kind)
	assert.Contains(t, env.Fields, "name")

	var routines int64
	require.NoError(t, store.DB().Model(&db.Routine{}).Count(&routines).Error)
	assert.Zero(t, routines)
}

func TestWorkoutLifecycleOverHTTP(t *testing.T) {
	r, store := newTestRouter(t)
	client := &testClient{t: t, router: r}

	rr, _ := client.do(http.MethodPost, "/api/auth/register", registerPayload("sam@example.com"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr, env := client.do(http.MethodGet, "/api/workouts/active", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null", string(env.Data))

	rr, env = client.do(http.MethodPost, "/api/workouts", map[string]any{"name": "Leg Day"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	workout := decodeData[db.Workout](t, env)
	assert.Equal(t, db.WorkoutNotStarted, workout.Status)

	exercises, err := store.Exercises.List(context.Background(), repository.ExerciseFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, exercises)

	base := fmt.Sprintf("/api/workouts/%d", workout.ID)
	rr, env = client.do(http.MethodPost, base+"/exercises", map[string]any{
		"exercise_id":  exercises[0].ID,
		"planned_sets": 2,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	entry := decodeData[db.WorkoutExercise](t, env)

	// 未开始的训练不能记录组
	rr, env = client.do(http.MethodPost, base+"/exercises/0/sets", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "conflict", env.Kind)

	rr, env = client.do(http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap := decodeData[session.Snapshot](t, env)
	assert.Equal(t, db.WorkoutInProgress, snap.Workout.Status)

	rr, env = client.do(http.MethodGet, "/api/workouts/active", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	active := decodeData[db.Workout](t, env)
	assert.Equal(t, workout.ID, active.ID)

	rr, env = client.do(http.MethodPost, base+"/exercises/0/sets", map[string]any{
		"reps":       10,
		"weight":     60.0,
		"difficulty": 7,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap = decodeData[session.Snapshot](t, env)
	assert.Equal(t, 1, snap.Exercises[0].CompletedSets)
	assert.Equal(t, db.ExerciseInProgress, snap.Exercises[0].Status)

	rr, env = client.do(http.MethodPost, base+"/exercises/0/sets", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap = decodeData[session.Snapshot](t, env)
	assert.Equal(t, 2, snap.Exercises[0].CompletedSets)

	rr, env = client.do(http.MethodPost, base+"/exercises/0/sets", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr, env = client.do(http.MethodGet, fmt.Sprintf("/api/workout-exercises/%d/sets", entry.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sets := decodeData[[]db.ExerciseSet](t, env)
	require.Len(t, sets, 1)
	assert.Equal(t, 10, sets[0].Reps)

	rr, env = client.do(http.MethodPost, base+"/finish", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	snap = decodeData[session.Snapshot](t, env)
	assert.Equal(t, db.WorkoutCompleted, snap.Workout.Status)
	require.NotNil(t, snap.Workout.EndTime)
	assert.GreaterOrEqual(t, snap.Workout.TotalDuration, int64(0))

	rr, env = client.do(http.MethodGet, "/api/workouts/active", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null", string(env.Data))
}

func TestCompleteSetRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)
	client := &testClient{t: t, router: r}

	rr, _ := client.do(http.MethodPost, "/api/auth/register", registerPayload("kim@example.com"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/workouts/1/exercises/0/sets", bytes.NewBufferString("{broken"))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range client.cookies {
		req.AddCookie(c)
	}
	out := httptest.NewRecorder()
	r.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestExportWorkoutsReturnsSpreadsheet(t *testing.T) {
	r, _ := newTestRouter(t)
	client := &testClient{t: t, router: r}

	rr, _ := client.do(http.MethodPost, "/api/auth/register", registerPayload("lee@example.com"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr, _ = client.do(http.MethodGet, "/api/workouts/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")), "xlsx should be a zip archive")

	rr, env := client.do(http.MethodGet, "/api/workouts/export?from=2025-13-01", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, env.Fields, "from")
}
