package repository

import (
	"context"
	"strings"

	"github.com/gymtrack/internal/db"
	"gorm.io/gorm"
)

// UserRepository 是 users 表的存储网关
type UserRepository struct {
	db *gorm.DB
}

// Insert 写入用户并返回主键
func (r *UserRepository) Insert(ctx context.Context, user *db.User) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert user", user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Update 覆盖用户全部字段
func (r *UserRepository) Update(ctx context.Context, user *db.User) error {
	return updateRecord(ctx, r.db, "update user", user)
}

// Delete 删除用户
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.User](ctx, r.db, "delete user", id)
}

// GetByID 根据主键获取用户
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*db.User, error) {
	return getRecord[db.User](ctx, r.db, "get user", id)
}

// GetByEmail 按邮箱（不区分大小写）获取用户
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", normalized).First(&user).Error; err != nil {
		return nil, translate("get user by email", err)
	}
	return &user, nil
}

// PreferencesRepository 是 user_preferences 表的存储网关
type PreferencesRepository struct {
	db *gorm.DB
}

// Insert 写入偏好设置
func (r *PreferencesRepository) Insert(ctx context.Context, prefs *db.UserPreferences) (uint, error) {
	if err := insertRecord(ctx, r.db, "insert preferences", prefs); err != nil {
		return 0, err
	}
	return prefs.ID, nil
}

// Update 覆盖偏好设置
func (r *PreferencesRepository) Update(ctx context.Context, prefs *db.UserPreferences) error {
	return updateRecord(ctx, r.db, "update preferences", prefs)
}

// Delete 删除偏好设置
func (r *PreferencesRepository) Delete(ctx context.Context, id uint) error {
	return deleteRecord[db.UserPreferences](ctx, r.db, "delete preferences", id)
}

// GetByID 根据主键获取偏好设置
func (r *PreferencesRepository) GetByID(ctx context.Context, id uint) (*db.UserPreferences, error) {
	return getRecord[db.UserPreferences](ctx, r.db, "get preferences", id)
}

// GetByUser 获取用户的偏好设置
func (r *PreferencesRepository) GetByUser(ctx context.Context, userID uint) (*db.UserPreferences, error) {
	var prefs db.UserPreferences
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		return nil, translate("get preferences by user", err)
	}
	return &prefs, nil
}
