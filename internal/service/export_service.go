package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
	"github.com/xuri/excelize/v2"
)

// 导出表名
const (
	SheetWorkouts = "训练记录"
	SheetSets     = "组记录"
)

const exportTimeLayout = "2006-01-02 15:04"

var (
	workoutHeaders = []string{"ID", "名称", "状态", "开始时间", "结束时间", "时长(分钟)", "备注"}
	setHeaders     = []string{"训练ID", "训练", "顺序", "动作", "组号", "次数", "重量", "难度", "完成"}
)

// ExportService 把训练历史导出为 Excel 工作簿
type ExportService struct {
	store *repository.Store
}

// NewExportService 构造 ExportService
func NewExportService(store *repository.Store) *ExportService {
	return &ExportService{store: store}
}

// ExportHistory 导出 [from, to] 内开始的训练；from/to 为零值时导出全部训练
func (s *ExportService) ExportHistory(ctx context.Context, userID uint, from, to time.Time) (*excelize.File, error) {
	var (
		workouts []db.Workout
		err      error
	)
	if from.IsZero() || to.IsZero() {
		workouts, err = s.store.Workouts.ListByUser(ctx, userID, 0)
	} else {
		workouts, err = s.store.Workouts.ListBetween(ctx, userID, from, to)
	}
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetWorkouts)
	if _, err := f.NewSheet(SheetSets); err != nil {
		return nil, fmt.Errorf("export history: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2E75B6"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("export history: %w", err)
	}
	if err := writeHeader(f, SheetWorkouts, workoutHeaders, headerStyle); err != nil {
		return nil, err
	}
	if err := writeHeader(f, SheetSets, setHeaders, headerStyle); err != nil {
		return nil, err
	}

	exerciseNames, err := s.exerciseNames(ctx)
	if err != nil {
		return nil, err
	}

	setRow := 2
	for idx, workout := range workouts {
		row := []any{
			workout.ID,
			workout.Name,
			workout.Status,
			formatExportTime(workout.StartTime),
			formatExportTime(workout.EndTime),
			float64(workout.TotalDuration) / 60,
			workout.Notes,
		}
		if err := writeRow(f, SheetWorkouts, idx+2, row); err != nil {
			return nil, err
		}

		entries, err := s.store.WorkoutExercises.ListByWorkout(ctx, workout.ID)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			sets, err := s.store.Sets.ListByWorkoutExercise(ctx, entry.ID)
			if err != nil {
				return nil, err
			}
			for _, set := range sets {
				var weight any = ""
				if set.Weight != nil {
					weight = *set.Weight
				}
				row := []any{
					workout.ID,
					workout.Name,
					entry.Order,
					exerciseNames[entry.ExerciseID],
					set.SetNumber,
					set.Reps,
					weight,
					set.Difficulty,
					set.IsCompleted,
				}
				if err := writeRow(f, SheetSets, setRow, row); err != nil {
					return nil, err
				}
				setRow++
			}
		}
	}

	_ = f.SetColWidth(SheetWorkouts, "B", "B", 24)
	_ = f.SetColWidth(SheetWorkouts, "D", "E", 18)
	_ = f.SetColWidth(SheetSets, "B", "B", 24)
	_ = f.SetColWidth(SheetSets, "D", "D", 24)
	f.SetActiveSheet(0)
	return f, nil
}

func (s *ExportService) exerciseNames(ctx context.Context) (map[uint]string, error) {
	exercises, err := s.store.Exercises.List(ctx, repository.ExerciseFilter{})
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(exercises))
	for _, exercise := range exercises {
		names[exercise.ID] = exercise.Name
	}
	return names, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	values := make([]any, len(headers))
	for i, header := range headers {
		values[i] = header
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("export header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("export header: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("export row %d: %w", row, err)
	}
	return nil
}

func formatExportTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Local().Format(exportTimeLayout)
}
