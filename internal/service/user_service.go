package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gymtrack/internal/apperr"
	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials 在邮箱或密码不匹配时返回
	ErrInvalidCredentials = apperr.Invalid("credentials", "邮箱或密码错误")
	// ErrEmailTaken 在邮箱已被注册时返回
	ErrEmailTaken = apperr.Conflict("该邮箱已注册")
)

// UserService 负责注册、登录与个人资料维护
type UserService struct {
	store *repository.Store
	now   func() time.Time
}

// ProfileInput 定义可修改的个人资料字段
type ProfileInput struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date"`
	Gender    string     `json:"gender"`
}

// NewUserService 构造 UserService
func NewUserService(store *repository.Store) *UserService {
	return &UserService{store: store, now: time.Now}
}

// SetClock 替换时间来源，主要用于测试
func (s *UserService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register 校验表单并创建用户及其默认偏好。校验失败时不会访问存储层。
func (s *UserService) Register(ctx context.Context, input RegistrationInput) (*db.User, error) {
	if err := ValidateRegistration(input, s.now()); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		PasswordHash: string(hash),
		BirthDate:    input.BirthDate,
		Gender:       strings.TrimSpace(input.Gender),
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Users.Insert(ctx, &user); err != nil {
			return err
		}
		prefs := db.DefaultPreferences(user.ID)
		_, err := tx.Preferences.Insert(ctx, &prefs)
		return err
	})
	if errors.Is(err, apperr.ErrConflict) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate 校验邮箱与密码，返回对应用户
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*db.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.Invalid("credentials", msgCredentialsRequired)
	}

	user, err := s.store.Users.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(ctx context.Context, id uint) (*db.User, error) {
	return s.store.Users.GetByID(ctx, id)
}

// UpdateProfile 更新个人资料，邮箱与密码不在此修改
func (s *UserService) UpdateProfile(ctx context.Context, id uint, input ProfileInput) (*db.User, error) {
	if strings.TrimSpace(input.FirstName) == "" {
		return nil, apperr.Invalid("first_name", msgFirstNameRequired)
	}
	if input.BirthDate != nil && ageInYears(*input.BirthDate, s.now()) < minRegistrationAge {
		return nil, apperr.Invalid("birth_date", msgTooYoung)
	}

	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)
	user.BirthDate = input.BirthDate
	user.Gender = strings.TrimSpace(input.Gender)

	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete 删除用户及其偏好设置
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		prefs, err := tx.Preferences.GetByUser(ctx, id)
		switch {
		case err == nil:
			if err := tx.Preferences.Delete(ctx, prefs.ID); err != nil {
				return err
			}
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
		return tx.Users.Delete(ctx, id)
	})
}
