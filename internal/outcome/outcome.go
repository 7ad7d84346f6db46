// Package outcome 提供统一的三态结果（加载中 / 成功 / 失败），
// 以单次发射的 channel 形式向调用方报告异步存储操作的结果。
package outcome

import (
	"context"

	"github.com/gymtrack/internal/apperr"
)

// Status 表示结果所处阶段
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Outcome 是一次操作在某一时刻的结果
type Outcome[T any] struct {
	Status  Status            `json:"status"`
	Value   T                 `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Kind    apperr.Kind       `json:"kind,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Pending 构造加载中状态。
func Pending[T any]() Outcome[T] {
	return Outcome[T]{Status: StatusPending}
}

// Success 构造成功结果。
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{Status: StatusSuccess, Value: value}
}

// Failure 构造失败结果，fallback 为调用处提供的本地化兜底提示。
func Failure[T any](err error, fallback string) Outcome[T] {
	o := Outcome[T]{
		Status:  StatusError,
		Message: apperr.Message(err, fallback),
		Kind:    apperr.KindOf(err),
		Err:     err,
	}
	if o.Kind == apperr.KindValidation {
		o.Fields = apperr.Fields(err)
	}
	return o
}

// From 根据 (value, err) 构造终态结果。
func From[T any](value T, err error, fallback string) Outcome[T] {
	if err != nil {
		return Failure[T](err, fallback)
	}
	return Success(value)
}

// IsPending 表示仍在加载。
func (o Outcome[T]) IsPending() bool { return o.Status == StatusPending }

// IsSuccess 表示成功。
func (o Outcome[T]) IsSuccess() bool { return o.Status == StatusSuccess }

// IsError 表示失败。
func (o Outcome[T]) IsError() bool { return o.Status == StatusError }

// Run 在后台 goroutine 中执行 fn，返回的 channel 先发出 Pending，
// 再发出唯一的终态结果，随后关闭。
// ctx 在 fn 返回前被取消时，终态为失败。
func Run[T any](ctx context.Context, fallback string, fn func(context.Context) (T, error)) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 2)
	ch <- Pending[T]()

	go func() {
		defer close(ch)

		if err := ctx.Err(); err != nil {
			ch <- Failure[T](err, fallback)
			return
		}

		value, err := fn(ctx)
		if err == nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
		}
		ch <- From(value, err, fallback)
	}()

	return ch
}

// Await 读取 channel 直到终态，并返回终态结果。
func Await[T any](ch <-chan Outcome[T]) Outcome[T] {
	var last Outcome[T]
	for o := range ch {
		last = o
	}
	return last
}

// Collect 依次把每个阶段交给 observe，返回终态结果。
func Collect[T any](ch <-chan Outcome[T], observe func(Outcome[T])) Outcome[T] {
	var last Outcome[T]
	for o := range ch {
		if observe != nil {
			observe(o)
		}
		last = o
	}
	return last
}

// Do 是 Await(Run(...)) 的简写。
func Do[T any](ctx context.Context, fallback string, fn func(context.Context) (T, error)) Outcome[T] {
	return Await(Run(ctx, fallback, fn))
}
