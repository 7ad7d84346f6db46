package screen

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/outcome"
	"github.com/gymtrack/internal/repository"
)

const msgCatalogLoadFailed = "加载动作目录失败"

// ExerciseCatalogState 是动作目录页的快照
type ExerciseCatalogState struct {
	MuscleGroups   []db.MuscleGroup     `json:"muscle_groups"`
	SelectedGroups []uint               `json:"selected_muscle_groups"`
	Search         string               `json:"search"`
	Exercises      []db.Exercise        `json:"exercises"`
	Result         outcome.Outcome[int] `json:"result"`

	all []db.Exercise
}

// ExerciseCatalogIntent 是动作目录页可处理的意图
type ExerciseCatalogIntent interface {
	exerciseCatalogIntent()
}

type (
	// LoadCatalog 重新加载肌群与全部动作
	LoadCatalog struct{}
	// ToggleMuscleGroup 在筛选集合中加入或移除一个肌群
	ToggleMuscleGroup struct{ ID uint }
	// SearchCatalog 设置搜索关键字
	SearchCatalog struct{ Query string }
	// ClearCatalogFilters 清空肌群筛选与搜索
	ClearCatalogFilters struct{}
)

func (LoadCatalog) exerciseCatalogIntent()         {}
func (ToggleMuscleGroup) exerciseCatalogIntent()   {}
func (SearchCatalog) exerciseCatalogIntent()       {}
func (ClearCatalogFilters) exerciseCatalogIntent() {}

// ExerciseCatalog 是动作目录页的状态持有者。筛选只作用于内存中的列表。
type ExerciseCatalog struct {
	mu      sync.Mutex
	catalog CatalogGateway
	state   ExerciseCatalogState
}

// NewExerciseCatalog 构造动作目录页状态持有者
func NewExerciseCatalog(catalog CatalogGateway) *ExerciseCatalog {
	return &ExerciseCatalog{catalog: catalog}
}

// State 返回当前快照
func (c *ExerciseCatalog) State() ExerciseCatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch 处理一个意图并返回新的快照
func (c *ExerciseCatalog) Dispatch(ctx context.Context, intent ExerciseCatalogIntent) ExerciseCatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch in := intent.(type) {
	case LoadCatalog:
		c.load(ctx)
	case ToggleMuscleGroup:
		c.toggle(in.ID)
	case SearchCatalog:
		c.state.Search = strings.TrimSpace(in.Query)
		c.refilter()
	case ClearCatalogFilters:
		c.state.SelectedGroups = nil
		c.state.Search = ""
		c.refilter()
	}
	return c.state
}

type catalogData struct {
	groups    []db.MuscleGroup
	exercises []db.Exercise
}

func (c *ExerciseCatalog) load(ctx context.Context) {
	result := outcome.Do(ctx, msgCatalogLoadFailed, func(ctx context.Context) (catalogData, error) {
		groups, err := c.catalog.ListMuscleGroups(ctx)
		if err != nil {
			return catalogData{}, err
		}
		exercises, err := c.catalog.List(ctx, repository.ExerciseFilter{})
		if err != nil {
			return catalogData{}, err
		}
		return catalogData{groups: groups, exercises: exercises}, nil
	})
	if result.IsError() {
		c.state.Result = outcome.Failure[int](result.Err, msgCatalogLoadFailed)
		return
	}

	c.state.MuscleGroups = result.Value.groups
	c.state.all = result.Value.exercises
	c.refilter()
}

func (c *ExerciseCatalog) toggle(id uint) {
	if idx := slices.Index(c.state.SelectedGroups, id); idx >= 0 {
		c.state.SelectedGroups = slices.Delete(slices.Clone(c.state.SelectedGroups), idx, idx+1)
	} else {
		selected := append(slices.Clone(c.state.SelectedGroups), id)
		slices.Sort(selected)
		c.state.SelectedGroups = selected
	}
	c.refilter()
}

func (c *ExerciseCatalog) refilter() {
	c.state.Exercises = FilterExercises(c.state.all, c.state.SelectedGroups, c.state.Search)
	c.state.Result = outcome.Success(len(c.state.Exercises))
}

// FilterExercises 返回肌群属于 groups 且名称或描述包含 query 的动作。
// groups 为空时不按肌群过滤，query 忽略大小写。
func FilterExercises(exercises []db.Exercise, groups []uint, query string) []db.Exercise {
	query = strings.ToLower(strings.TrimSpace(query))

	filtered := make([]db.Exercise, 0, len(exercises))
	for _, exercise := range exercises {
		if len(groups) > 0 && !slices.Contains(groups, exercise.MuscleGroupID) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(exercise.Name), query) &&
			!strings.Contains(strings.ToLower(exercise.Description), query) {
			continue
		}
		filtered = append(filtered, exercise)
	}
	return filtered
}
