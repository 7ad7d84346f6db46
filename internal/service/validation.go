package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"go.uber.org/multierr"
)

const (
	minPasswordLength  = 8
	minRegistrationAge = 16
	minRoutineNameLen  = 3
	maxRoutineDuration = 300
	maxRestTimeSeconds = 600
	maxSetDifficulty   = 10
	daysPerYear        = 365.25
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// 校验提示
const (
	msgFirstNameRequired    = "请输入名字"
	msgEmailInvalid         = "邮箱格式不正确"
	msgPasswordTooShort     = "密码至少需要 8 个字符"
	msgPasswordWeak         = "密码需同时包含大写字母、小写字母、数字和特殊字符"
	msgPasswordMismatch     = "两次输入的密码不一致"
	msgTooYoung             = "注册用户需年满 16 周岁"
	msgRoutineNameRequired  = "计划名称不能为空"
	msgRoutineNameTooShort  = "计划名称至少需要 3 个字符"
	msgRoutineDuration      = "预计时长需在 1 到 300 分钟之间"
	msgTargetMusclesMissing = "请填写目标肌群"
	msgExerciseName         = "动作名称不能为空"
	msgExerciseDescription  = "动作描述不能为空"
	msgExerciseInstructions = "动作要领不能为空"
	msgMuscleGroupRequired  = "请选择肌群"
	msgDifficultyRequired   = "请选择难度"
	msgRoutineRequired      = "缺少所属计划"
	msgExerciseRequired     = "请选择动作"
	msgSetsPositive         = "组数必须大于 0"
	msgRepsRequired         = "次数不能为空"
	msgRepsPositive         = "次数必须大于 0"
	msgWorkoutExerciseID    = "缺少所属训练动作"
	msgSetDifficulty        = "难度评分需在 1 到 10 之间"
	msgWeightNegative       = "重量不能为负数"
	msgRestTimeRange        = "休息时间需在 0 到 600 秒之间"
	msgWeightUnit           = "重量单位仅支持 kg 或 lb"
	msgCredentialsRequired  = "请输入邮箱和密码"
)

// RegistrationInput 是注册表单
type RegistrationInput struct {
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirm_password"`
	BirthDate       *time.Time `json:"birth_date"`
	Gender          string     `json:"gender"`
}

// ValidateRegistration 校验注册表单，返回合并后的全部字段错误。
func ValidateRegistration(input RegistrationInput, now time.Time) error {
	var errs error

	if strings.TrimSpace(input.FirstName) == "" {
		errs = multierr.Append(errs, apperr.Invalid("first_name", msgFirstNameRequired))
	}
	if !emailPattern.MatchString(strings.TrimSpace(input.Email)) {
		errs = multierr.Append(errs, apperr.Invalid("email", msgEmailInvalid))
	}
	if err := validatePassword(input.Password); err != nil {
		errs = multierr.Append(errs, err)
	}
	if input.Password != input.ConfirmPassword {
		errs = multierr.Append(errs, apperr.Invalid("confirm_password", msgPasswordMismatch))
	}
	if input.BirthDate != nil && ageInYears(*input.BirthDate, now) < minRegistrationAge {
		errs = multierr.Append(errs, apperr.Invalid("birth_date", msgTooYoung))
	}

	return errs
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperr.Invalid("password", msgPasswordTooShort)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return apperr.Invalid("password", msgPasswordWeak)
	}
	return nil
}

// ageInYears 以 365.25 天为一年近似计算年龄
func ageInYears(birth, now time.Time) float64 {
	days := now.Sub(birth).Hours() / 24
	return days / daysPerYear
}

// RoutineInput 是创建/更新训练计划的表单
type RoutineInput struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	EstimatedDuration int    `json:"estimated_duration"`
	Difficulty        string `json:"difficulty"`
	TargetMuscles     string `json:"target_muscles"`
	IsActive          *bool  `json:"is_active"`
}

// ValidateRoutine 校验训练计划表单
func ValidateRoutine(input RoutineInput) error {
	var errs error

	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		errs = multierr.Append(errs, apperr.Invalid("name", msgRoutineNameRequired))
	case utf8.RuneCountInString(name) < minRoutineNameLen:
		errs = multierr.Append(errs, apperr.Invalid("name", msgRoutineNameTooShort))
	}
	if input.EstimatedDuration <= 0 || input.EstimatedDuration > maxRoutineDuration {
		errs = multierr.Append(errs, apperr.Invalid("estimated_duration", msgRoutineDuration))
	}
	if strings.TrimSpace(input.TargetMuscles) == "" {
		errs = multierr.Append(errs, apperr.Invalid("target_muscles", msgTargetMusclesMissing))
	}

	return errs
}

// ExerciseInput 是自定义动作表单
type ExerciseInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Instructions  string `json:"instructions"`
	MuscleGroupID uint   `json:"muscle_group_id"`
	Difficulty    string `json:"difficulty"`
	ImageURL      string `json:"image_url"`
	VideoURL      string `json:"video_url"`
}

// ValidateExercise 校验动作表单
func ValidateExercise(input ExerciseInput) error {
	var errs error

	if strings.TrimSpace(input.Name) == "" {
		errs = multierr.Append(errs, apperr.Invalid("name", msgExerciseName))
	}
	if strings.TrimSpace(input.Description) == "" {
		errs = multierr.Append(errs, apperr.Invalid("description", msgExerciseDescription))
	}
	if strings.TrimSpace(input.Instructions) == "" {
		errs = multierr.Append(errs, apperr.Invalid("instructions", msgExerciseInstructions))
	}
	if input.MuscleGroupID == 0 {
		errs = multierr.Append(errs, apperr.Invalid("muscle_group_id", msgMuscleGroupRequired))
	}
	if strings.TrimSpace(input.Difficulty) == "" {
		errs = multierr.Append(errs, apperr.Invalid("difficulty", msgDifficultyRequired))
	}

	return errs
}

// RoutineExerciseInput 描述计划内的一个动作配置
type RoutineExerciseInput struct {
	RoutineID  uint     `json:"routine_id"`
	ExerciseID uint     `json:"exercise_id"`
	Sets       int      `json:"sets"`
	Reps       string   `json:"reps"`
	Weight     *float64 `json:"weight"`
	RestTime   int      `json:"rest_time"`
	Notes      string   `json:"notes"`
}

// ValidateRoutineExercise 校验计划动作。Reps 允许 "8-12" 这类文本，纯数字时需为正数。
func ValidateRoutineExercise(input RoutineExerciseInput) error {
	var errs error

	if input.RoutineID == 0 {
		errs = multierr.Append(errs, apperr.Invalid("routine_id", msgRoutineRequired))
	}
	if input.ExerciseID == 0 {
		errs = multierr.Append(errs, apperr.Invalid("exercise_id", msgExerciseRequired))
	}
	if input.Sets <= 0 {
		errs = multierr.Append(errs, apperr.Invalid("sets", msgSetsPositive))
	}

	reps := strings.TrimSpace(input.Reps)
	if reps == "" {
		errs = multierr.Append(errs, apperr.Invalid("reps", msgRepsRequired))
	} else if n, err := strconv.Atoi(reps); err == nil && n <= 0 {
		errs = multierr.Append(errs, apperr.Invalid("reps", msgRepsPositive))
	}

	if input.Weight != nil && *input.Weight < 0 {
		errs = multierr.Append(errs, apperr.Invalid("weight", msgWeightNegative))
	}
	if input.RestTime < 0 || input.RestTime > maxRestTimeSeconds {
		errs = multierr.Append(errs, apperr.Invalid("rest_time", msgRestTimeRange))
	}

	return errs
}

// SetInput 描述一组的实际表现
type SetInput struct {
	WorkoutExerciseID uint     `json:"workout_exercise_id"`
	Reps              int      `json:"reps"`
	Weight            *float64 `json:"weight"`
	RestTime          *int     `json:"rest_time"`
	IsCompleted       *bool    `json:"is_completed"`
	Difficulty        int      `json:"difficulty"`
}

// ValidateSet 校验组记录；Difficulty 为 0 表示未评分
func ValidateSet(input SetInput) error {
	var errs error

	if input.WorkoutExerciseID == 0 {
		errs = multierr.Append(errs, apperr.Invalid("workout_exercise_id", msgWorkoutExerciseID))
	}
	if input.Reps <= 0 {
		errs = multierr.Append(errs, apperr.Invalid("reps", msgRepsPositive))
	}
	if input.Weight != nil && *input.Weight < 0 {
		errs = multierr.Append(errs, apperr.Invalid("weight", msgWeightNegative))
	}
	if input.RestTime != nil && (*input.RestTime < 0 || *input.RestTime > maxRestTimeSeconds) {
		errs = multierr.Append(errs, apperr.Invalid("rest_time", msgRestTimeRange))
	}
	if input.Difficulty < 0 || input.Difficulty > maxSetDifficulty {
		errs = multierr.Append(errs, apperr.Invalid("difficulty", msgSetDifficulty))
	}

	return errs
}

// PreferencesInput 是偏好设置表单，nil 字段保持原值
type PreferencesInput struct {
	RestTimeSeconds      *int    `json:"rest_time_seconds"`
	WeightUnit           *string `json:"weight_unit"`
	ShowVideos           *bool   `json:"show_videos"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	DarkTheme            *bool   `json:"dark_theme"`
}

// ValidatePreferences 校验偏好设置
func ValidatePreferences(input PreferencesInput) error {
	var errs error

	if input.RestTimeSeconds != nil && (*input.RestTimeSeconds < 0 || *input.RestTimeSeconds > maxRestTimeSeconds) {
		errs = multierr.Append(errs, apperr.Invalid("rest_time_seconds", msgRestTimeRange))
	}
	if input.WeightUnit != nil {
		switch strings.ToLower(strings.TrimSpace(*input.WeightUnit)) {
		case db.WeightUnitKilogram, db.WeightUnitPound:
		default:
			errs = multierr.Append(errs, apperr.Invalid("weight_unit", msgWeightUnit))
		}
	}

	return errs
}

func normalizeDifficulty(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
