package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
)

// PreferencesService 读写用户偏好；尚未保存过偏好的用户返回默认值
type PreferencesService struct {
	store *repository.Store
}

// NewPreferencesService 构造 PreferencesService
func NewPreferencesService(store *repository.Store) *PreferencesService {
	return &PreferencesService{store: store}
}

// Get 返回用户偏好，不存在时返回默认偏好（ID 为 0，未落库）
func (s *PreferencesService) Get(ctx context.Context, userID uint) (*db.UserPreferences, error) {
	prefs, err := s.store.Preferences.GetByUser(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		defaults := db.DefaultPreferences(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// Update 合并表单中的非空字段并保存
func (s *PreferencesService) Update(ctx context.Context, userID uint, input PreferencesInput) (*db.UserPreferences, error) {
	if err := ValidatePreferences(input); err != nil {
		return nil, err
	}

	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.RestTimeSeconds != nil {
		prefs.RestTimeSeconds = *input.RestTimeSeconds
	}
	if input.WeightUnit != nil {
		prefs.WeightUnit = strings.ToLower(strings.TrimSpace(*input.WeightUnit))
	}
	if input.ShowVideos != nil {
		prefs.ShowVideos = *input.ShowVideos
	}
	if input.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *input.NotificationsEnabled
	}
	if input.DarkTheme != nil {
		prefs.DarkTheme = *input.DarkTheme
	}

	if prefs.ID == 0 {
		if _, err := s.store.Preferences.Insert(ctx, prefs); err != nil {
			return nil, err
		}
		return prefs, nil
	}
	if err := s.store.Preferences.Update(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}
