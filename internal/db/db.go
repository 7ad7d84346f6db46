package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultDatabasePath = "gymtrack.db"

// Models 返回需要自动迁移的全部模型，测试与脚本共用。
func Models() []any {
	return []any{
		&User{},
		&UserPreferences{},
		&MuscleGroup{},
		&Exercise{},
		&Routine{},
		&RoutineExercise{},
		&Workout{},
		&WorkoutExercise{},
		&ExerciseSet{},
	}
}

// Open 打开 SQLite 数据库并执行自动迁移。
// databasePath 为空时将回退到默认值 gymtrack.db。
func Open(databasePath string) (*gorm.DB, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = defaultDatabasePath
	}

	if !strings.HasPrefix(path, "file:") {
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// 自动迁移模式，为核心模型创建表
	if err := gdb.AutoMigrate(Models()...); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Close 关闭底层连接池。
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
