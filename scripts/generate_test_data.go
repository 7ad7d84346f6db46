package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/config"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
	"github.com/gymtrack/internal/service"
	"github.com/gymtrack/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	demoEmail    = "demo@gymtrack.local"
	demoPassword = "Demo#2025"
	historyWeeks = 6
)

type routineSeed struct {
	input     service.RoutineInput
	exercises []string
}

var demoRoutines = []routineSeed{
	{
		input: service.RoutineInput{
			Name:              "Leg Day",
			Description:       "Squat focused lower body session",
			EstimatedDuration: 60,
			Difficulty:        db.DifficultyIntermediate,
			TargetMuscles:     "Legs, Core",
		},
		exercises: []string{"Back Squat", "Walking Lunge", "Leg Press", "Plank"},
	},
	{
		input: service.RoutineInput{
			Name:              "Upper Push",
			Description:       "Chest, shoulders and triceps",
			EstimatedDuration: 50,
			Difficulty:        db.DifficultyIntermediate,
			TargetMuscles:     "Chest, Shoulders, Arms",
		},
		exercises: []string{"Bench Press", "Overhead Press", "Lateral Raise", "Triceps Dip"},
	},
}

// 测试数据生成器：动作目录、演示用户、训练计划以及最近几周的训练记录
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("加载配置失败")
	}

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logrus.WithError(err).Fatal("数据库初始化失败")
	}
	defer db.Close(gdb)

	fmt.Println("开始生成测试数据...")

	seeded, err := db.SeedCatalog(gdb)
	if err != nil {
		logrus.WithError(err).Fatal("写入动作目录失败")
	}

	store := repository.NewStore(gdb)
	workouts, err := generate(context.Background(), store, time.Now().UTC(), 42)
	if err != nil {
		logrus.WithError(err).Fatal("生成测试数据失败")
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s (密码: %s)\n", demoEmail, demoPassword)
	fmt.Printf("动作目录: 新增 %d 个动作\n", seeded)
	fmt.Printf("训练记录: %d 次\n", workouts)
}

// generate 写入演示数据并返回生成的训练次数；演示用户已存在时跳过
func generate(ctx context.Context, store *repository.Store, now time.Time, seed int64) (int, error) {
	faker := gofakeit.New(seed)

	users := service.NewUserService(store)
	user, err := users.Register(ctx, service.RegistrationInput{
		FirstName:       "Demo",
		LastName:        faker.LastName(),
		Email:           demoEmail,
		Password:        demoPassword,
		ConfirmPassword: demoPassword,
		Gender:          "OTHER",
	})
	if apperr.KindOf(err) == apperr.KindConflict {
		fmt.Println("演示用户已存在，跳过创建")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("register demo user: %w", err)
	}

	catalog, err := store.Exercises.List(ctx, repository.ExerciseFilter{})
	if err != nil {
		return 0, err
	}
	byName := make(map[string]uint, len(catalog))
	for _, exercise := range catalog {
		byName[exercise.Name] = exercise.ID
	}

	routines := service.NewRoutineService(store)
	routineIDs := make([]uint, 0, len(demoRoutines))
	for _, item := range demoRoutines {
		routine, err := routines.Create(ctx, user.ID, item.input)
		if err != nil {
			return 0, fmt.Errorf("create routine %q: %w", item.input.Name, err)
		}
		for _, name := range item.exercises {
			exerciseID, ok := byName[name]
			if !ok {
				return 0, fmt.Errorf("exercise %q missing from catalog", name)
			}
			weight := float64(faker.Number(20, 100))
			if _, err := routines.AddExercise(ctx, user.ID, service.RoutineExerciseInput{
				RoutineID:  routine.ID,
				ExerciseID: exerciseID,
				Sets:       faker.Number(3, 4),
				Reps:       "8-12",
				Weight:     &weight,
				RestTime:   90,
			}); err != nil {
				return 0, fmt.Errorf("add %q to routine: %w", name, err)
			}
		}
		routineIDs = append(routineIDs, routine.ID)
	}
	fmt.Println("✅ 训练计划创建完成")

	// 每周两次，时间从最早的一周开始推进
	clock := now.Add(-historyWeeks * 7 * 24 * time.Hour)
	nowFn := func() time.Time { return clock }

	workoutService := service.NewWorkoutService(store)
	workoutService.SetClock(nowFn)
	orchestrator := session.New(store, session.WithClock(nowFn))

	count := 0
	for week := 0; week < historyWeeks; week++ {
		for i, routineID := range routineIDs {
			clock = now.Add(-time.Duration(historyWeeks-week)*7*24*time.Hour + time.Duration(i*3*24)*time.Hour)
			if err := playWorkout(ctx, faker, workoutService, orchestrator, user.ID, routineID, &clock); err != nil {
				return count, err
			}
			count++
		}
	}
	fmt.Println("✅ 训练记录创建完成")
	return count, nil
}

// playWorkout 按计划完成一次训练，每完成一组推进 clock
func playWorkout(ctx context.Context, faker *gofakeit.Faker, workouts *service.WorkoutService,
	orchestrator *session.Orchestrator, userID, routineID uint, clock *time.Time) error {
	workout, err := workouts.StartFromRoutine(ctx, userID, routineID)
	if err != nil {
		return fmt.Errorf("start workout: %w", err)
	}

	snap, err := orchestrator.Open(ctx, userID, workout.ID)
	if err != nil {
		return err
	}
	for index, entry := range snap.Exercises {
		// 偶尔跳过最后一个动作
		if index == len(snap.Exercises)-1 && faker.Number(1, 5) == 1 {
			if _, err := orchestrator.SkipExercise(ctx, userID, workout.ID, index); err != nil {
				return err
			}
			continue
		}
		for set := 0; set < entry.PlannedSets; set++ {
			weight := float64(faker.Number(20, 100))
			rest := faker.Number(60, 120)
			_, err := orchestrator.CompleteSet(ctx, userID, workout.ID, index, &session.SetLog{
				Reps:       faker.Number(6, 12),
				Weight:     &weight,
				RestTime:   &rest,
				Difficulty: faker.Number(5, 9),
			})
			if err != nil {
				return err
			}
			*clock = clock.Add(time.Duration(90+rest) * time.Second)
		}
		if _, err := orchestrator.CompleteExercise(ctx, userID, workout.ID, index); err != nil {
			return err
		}
	}

	if _, err := orchestrator.Finish(ctx, userID, workout.ID); err != nil {
		return fmt.Errorf("finish workout %d: %w", workout.ID, err)
	}
	return nil
}
