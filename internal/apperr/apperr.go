// Package apperr 定义跨层共享的错误分类。
package apperr

import (
	"errors"

	"go.uber.org/multierr"
)

// Kind 标记错误类别，调用方据此决定重试、提示或中止。
type Kind string

const (
	KindNone       Kind = ""
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindIO         Kind = "io_failure"
	KindValidation Kind = "validation"
)

var (
	// ErrNotFound 在目标记录不存在时返回
	ErrNotFound = errors.New("not found")
	// ErrConflict 在唯一约束冲突或状态不允许时返回
	ErrConflict = errors.New("conflict")
	// ErrIO 包装存储层的其他失败
	ErrIO = errors.New("storage failure")
)

// ValidationError 描述单个字段的校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Invalid 构造字段校验错误。
func Invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// KindOf 返回错误所属类别。
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindIO
	}
}

// Fields 展开 multierr 合并的校验错误，返回 字段 -> 提示 的映射。
// 同一字段仅保留第一条提示。
func Fields(err error) map[string]string {
	fields := make(map[string]string)
	for _, item := range multierr.Errors(err) {
		var verr ValidationError
		if !errors.As(item, &verr) {
			continue
		}
		if _, exists := fields[verr.Field]; !exists {
			fields[verr.Field] = verr.Message
		}
	}
	return fields
}

// Message 返回面向用户的提示：校验错误使用自身提示，其余使用调用处提供的兜底文案。
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	for _, item := range multierr.Errors(err) {
		var verr ValidationError
		if errors.As(item, &verr) {
			return verr.Message
		}
	}
	if conflictMessage := conflictMessageOf(err); conflictMessage != "" {
		return conflictMessage
	}
	return fallback
}

// UserFacing 标记可以直接展示给用户的冲突原因。
type UserFacing struct {
	Message string
	Err     error
}

func (e UserFacing) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e UserFacing) Unwrap() error {
	return e.Err
}

// Conflict 构造带有用户提示的冲突错误。
func Conflict(message string) error {
	return UserFacing{Message: message, Err: ErrConflict}
}

func conflictMessageOf(err error) string {
	var uf UserFacing
	if errors.As(err, &uf) {
		return uf.Message
	}
	return ""
}
