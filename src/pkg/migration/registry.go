package migration

import (
	"fmt"
	"sync"

	"github.com/xplane2blender/x2b-updater/src/pkg/version"
)

// StepRegistry 迁移步骤链，步骤按版本阈值严格递增排列
type StepRegistry struct {
	mu    sync.RWMutex
	steps []*Step
}

// NewStepRegistry 按给定顺序创建步骤链
func NewStepRegistry(steps ...*Step) (*StepRegistry, error) {
	r := &StepRegistry{}
	for _, step := range steps {
		if err := r.Register(step); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// 默认步骤链
var defaultRegistry = mustNewStepRegistry(defaultSteps()...)

// DefaultRegistry 返回内置的迁移步骤链
func DefaultRegistry() *StepRegistry {
	return defaultRegistry
}

func mustNewStepRegistry(steps ...*Step) *StepRegistry {
	r, err := NewStepRegistry(steps...)
	if err != nil {
		panic(fmt.Sprintf("failed to build step registry: %v", err))
	}
	return r
}

// Register 在链尾追加步骤，阈值必须大于已有的最后一个阈值
func (r *StepRegistry) Register(step *Step) error {
	if step == nil {
		return fmt.Errorf("step cannot be nil")
	}
	if step.Name == "" {
		return fmt.Errorf("step name cannot be empty")
	}
	if step.Apply == nil {
		return fmt.Errorf("step %s has no apply function", step.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.steps); n > 0 {
		last := r.steps[n-1]
		if !last.Threshold.Less(step.Threshold) {
			return fmt.Errorf("step %s threshold %s must be greater than %s (%s)",
				step.Name, step.Threshold, last.Threshold, last.Name)
		}
	}
	r.steps = append(r.steps, step)
	return nil
}

// Steps 返回全部步骤，按阈值升序
func (r *StepRegistry) Steps() []*Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make([]*Step, len(r.steps))
	copy(steps, r.steps)
	return steps
}

// Pending 返回对版本 from 需要执行的步骤，按阈值升序
// 每个步骤只看文件记录的版本，不看其他步骤是否执行过
func (r *StepRegistry) Pending(from version.Version) []*Step {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*Step
	for _, step := range r.steps {
		if from.LessOrEqual(step.Threshold) {
			pending = append(pending, step)
		}
	}
	return pending
}
