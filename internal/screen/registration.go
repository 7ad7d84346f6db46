// Package screen 为每个页面维护一份状态快照，并以 reducer 的方式处理用户意图：
// 意图进入，校验后调用存储网关，网关结果以 outcome 的形式写回新的状态。
//
// 同一个状态持有者内的意图按调用顺序依次处理。
package screen

import (
	"context"
	"sync"
	"time"

	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/outcome"
	"github.com/gymtrack/internal/service"
)

const msgRegisterFailed = "注册失败，请稍后重试"

// Registrar 是注册页依赖的用户网关
type Registrar interface {
	Register(ctx context.Context, input service.RegistrationInput) (*db.User, error)
}

// RegistrationState 是注册页的快照
type RegistrationState struct {
	Form   service.RegistrationInput `json:"form"`
	Result outcome.Outcome[uint]     `json:"result"`
}

// RegistrationIntent 是注册页可处理的意图
type RegistrationIntent interface {
	registrationIntent()
}

// EditRegistration 用新的表单内容替换当前表单，并清空上一次结果
type EditRegistration struct {
	Form service.RegistrationInput
}

// SubmitRegistration 提交当前表单
type SubmitRegistration struct{}

func (EditRegistration) registrationIntent()   {}
func (SubmitRegistration) registrationIntent() {}

// Registration 是注册页的状态持有者
type Registration struct {
	mu      sync.Mutex
	users   Registrar
	now     func() time.Time
	state   RegistrationState
	observe func(RegistrationState)
}

// NewRegistration 构造注册页状态持有者
func NewRegistration(users Registrar) *Registration {
	return &Registration{users: users, now: time.Now}
}

// SetClock 替换计算年龄使用的时间来源
func (r *Registration) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Observe 注册每次状态变化的回调，包括加载中状态
func (r *Registration) Observe(fn func(RegistrationState)) {
	r.mu.Lock()
	r.observe = fn
	r.mu.Unlock()
}

// State 返回当前快照
func (r *Registration) State() RegistrationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Dispatch 处理一个意图并返回新的快照
func (r *Registration) Dispatch(ctx context.Context, intent RegistrationIntent) RegistrationState {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch in := intent.(type) {
	case EditRegistration:
		r.state = RegistrationState{Form: in.Form}
	case SubmitRegistration:
		r.submit(ctx)
	}
	return r.state
}

func (r *Registration) submit(ctx context.Context) {
	form := r.state.Form
	if err := service.ValidateRegistration(form, r.now()); err != nil {
		r.state.Result = outcome.Failure[uint](err, msgRegisterFailed)
		r.emit()
		return
	}

	ch := outcome.Run(ctx, msgRegisterFailed, func(ctx context.Context) (uint, error) {
		user, err := r.users.Register(ctx, form)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	})
	outcome.Collect(ch, func(o outcome.Outcome[uint]) {
		r.state.Result = o
		r.emit()
	})
}

func (r *Registration) emit() {
	if r.observe != nil {
		r.observe(r.state)
	}
}
