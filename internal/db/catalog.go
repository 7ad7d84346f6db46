package db

import (
	"errors"

	"gorm.io/gorm"
)

type seedExercise struct {
	Name         string
	MuscleGroup  string
	Difficulty   string
	Description  string
	Instructions string
}

var predefinedMuscleGroups = []MuscleGroup{
	{Name: "Chest", Description: "Pectoral muscles"},
	{Name: "Back", Description: "Lats, traps and spinal erectors"},
	{Name: "Legs", Description: "Quadriceps, hamstrings, glutes and calves"},
	{Name: "Shoulders", Description: "Deltoids"},
	{Name: "Arms", Description: "Biceps, triceps and forearms"},
	{Name: "Core", Description: "Abdominals and obliques"},
}

var predefinedExercises = []seedExercise{
	{Name: "Bench Press", MuscleGroup: "Chest", Difficulty: DifficultyIntermediate,
		Description:  "Barbell press on a flat bench.",
		Instructions: "1. Lie on the bench with eyes under the bar.\n2. Lower the bar to mid chest.\n3. Press back to lockout."},
	{Name: "Push-Up", MuscleGroup: "Chest", Difficulty: DifficultyBeginner,
		Description:  "Bodyweight horizontal press.",
		Instructions: "1. Hands slightly wider than shoulders.\n2. Keep the body in a straight line.\n3. Lower until the chest nearly touches the floor."},
	{Name: "Incline Dumbbell Press", MuscleGroup: "Chest", Difficulty: DifficultyIntermediate,
		Description:  "Dumbbell press on a 30-45 degree bench.",
		Instructions: "1. Set the bench to 30-45 degrees.\n2. Press the dumbbells over the upper chest.\n3. Lower under control."},
	{Name: "Pull-Up", MuscleGroup: "Back", Difficulty: DifficultyIntermediate,
		Description:  "Vertical pull on a bar.",
		Instructions: "1. Hang with an overhand grip.\n2. Pull until the chin clears the bar.\n3. Lower to a full hang."},
	{Name: "Barbell Row", MuscleGroup: "Back", Difficulty: DifficultyIntermediate,
		Description:  "Bent-over barbell row.",
		Instructions: "1. Hinge to roughly 45 degrees.\n2. Row the bar to the lower ribs.\n3. Keep the back flat."},
	{Name: "Deadlift", MuscleGroup: "Back", Difficulty: DifficultyAdvanced,
		Description:  "Conventional barbell deadlift.",
		Instructions: "1. Bar over mid foot.\n2. Brace and push the floor away.\n3. Lock out hips and knees together."},
	{Name: "Back Squat", MuscleGroup: "Legs", Difficulty: DifficultyIntermediate,
		Description:  "Barbell squat with the bar on the upper back.",
		Instructions: "1. Unrack with the bar on the traps.\n2. Sit down between the hips.\n3. Drive up through the mid foot."},
	{Name: "Walking Lunge", MuscleGroup: "Legs", Difficulty: DifficultyBeginner,
		Description:  "Alternating forward lunges.",
		Instructions: "1. Step forward.\n2. Lower the back knee toward the floor.\n3. Push off and step through."},
	{Name: "Leg Press", MuscleGroup: "Legs", Difficulty: DifficultyBeginner,
		Description:  "Machine leg press.",
		Instructions: "1. Feet shoulder width on the platform.\n2. Lower until knees reach 90 degrees.\n3. Press without locking the knees."},
	{Name: "Overhead Press", MuscleGroup: "Shoulders", Difficulty: DifficultyIntermediate,
		Description:  "Standing barbell press.",
		Instructions: "1. Bar at the collarbone.\n2. Press overhead, moving the head back.\n3. Finish with the bar over mid foot."},
	{Name: "Lateral Raise", MuscleGroup: "Shoulders", Difficulty: DifficultyBeginner,
		Description:  "Dumbbell lateral raise.",
		Instructions: "1. Slight bend in the elbows.\n2. Raise to shoulder height.\n3. Lower slowly."},
	{Name: "Barbell Curl", MuscleGroup: "Arms", Difficulty: DifficultyBeginner,
		Description:  "Standing barbell biceps curl.",
		Instructions: "1. Elbows pinned to the sides.\n2. Curl to the shoulders.\n3. Lower under control."},
	{Name: "Triceps Dip", MuscleGroup: "Arms", Difficulty: DifficultyIntermediate,
		Description:  "Bodyweight dip on parallel bars.",
		Instructions: "1. Support on straight arms.\n2. Lower until the upper arm is parallel.\n3. Press back up."},
	{Name: "Plank", MuscleGroup: "Core", Difficulty: DifficultyBeginner,
		Description:  "Isometric front plank.",
		Instructions: "1. Forearms under the shoulders.\n2. Squeeze glutes and abs.\n3. Hold a straight line."},
	{Name: "Hanging Leg Raise", MuscleGroup: "Core", Difficulty: DifficultyAdvanced,
		Description:  "Leg raise hanging from a bar.",
		Instructions: "1. Hang from the bar.\n2. Raise straight legs to hip height or higher.\n3. Lower without swinging."},
}

// SeedCatalog 幂等地写入预置肌群与动作，已存在的同名条目保持不变。
// 返回本次新写入的动作数量。
func SeedCatalog(gdb *gorm.DB) (int, error) {
	if gdb == nil {
		return 0, errors.New("database not initialized")
	}

	created := 0
	err := gdb.Transaction(func(tx *gorm.DB) error {
		groupIDs := make(map[string]uint, len(predefinedMuscleGroups))
		for _, group := range predefinedMuscleGroups {
			record := group
			if err := tx.Where("name = ?", group.Name).FirstOrCreate(&record).Error; err != nil {
				return err
			}
			groupIDs[group.Name] = record.ID
		}

		for _, item := range predefinedExercises {
			var existing Exercise
			err := tx.Where("name = ? AND is_custom = ?", item.Name, false).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			exercise := Exercise{
				Name:          item.Name,
				Description:   item.Description,
				Instructions:  item.Instructions,
				MuscleGroupID: groupIDs[item.MuscleGroup],
				Difficulty:    item.Difficulty,
			}
			if err := tx.Create(&exercise).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

// PredefinedExerciseCount 返回预置动作数量。
func PredefinedExerciseCount() int {
	return len(predefinedExercises)
}
