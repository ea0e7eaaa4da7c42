// Package resolver computes the next executable step of a workflow from
// its declared step order, dependency sets, and task history.
package resolver

import (
	"sort"

	"github.com/growloop/growloop/pkg/models"
)

// Resolution describes the next candidate step of a workflow.
type Resolution struct {
	Step       *models.Step
	CanExecute bool

	// BlockedBy lists the unmet dependency step IDs when CanExecute is
	// false.
	BlockedBy []string

	// CompletedDependencies lists the satisfied predecessor step IDs in
	// dependency order. Dispatch chains the last one's output into the
	// candidate step.
	CompletedDependencies []string
}

// Resolve returns the first step, in ascending position order, that has
// no done task, together with its dependency-satisfaction state. It
// returns nil when every step is done; repeated calls on a complete
// workflow keep returning nil. A step appended after completion is found
// on the next call, so no reset operation exists or is needed.
func Resolve(workflow *models.Workflow, tasks []*models.Task) *Resolution {
	steps := make([]*models.Step, len(workflow.Steps))
	copy(steps, workflow.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Position < steps[j].Position
	})

	done := DoneSteps(steps, tasks)

	for idx, step := range steps {
		if done[step.ID] {
			continue
		}

		resolution := &Resolution{Step: step}

		deps := dependencies(step, steps, idx)
		for _, depID := range deps {
			if done[depID] {
				resolution.CompletedDependencies = append(resolution.CompletedDependencies, depID)
			} else {
				resolution.BlockedBy = append(resolution.BlockedBy, depID)
			}
		}

		resolution.CanExecute = len(resolution.BlockedBy) == 0

		return resolution
	}

	return nil
}

// dependencies returns the effective predecessor set for a step:
// explicit dependency IDs when declared, otherwise the immediate
// positional predecessor. The first step has none and is always
// executable.
func dependencies(step *models.Step, ordered []*models.Step, idx int) []string {
	if len(step.DependencyIDs) > 0 {
		return step.DependencyIDs
	}

	if idx == 0 {
		return nil
	}

	return []string{ordered[idx-1].ID}
}

// Dependencies returns the effective dependency set of a step within
// its workflow, using the same rules Resolve applies.
func Dependencies(workflow *models.Workflow, step *models.Step) []string {
	steps := make([]*models.Step, len(workflow.Steps))
	copy(steps, workflow.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Position < steps[j].Position
	})

	for idx, candidate := range steps {
		if candidate.ID == step.ID {
			return dependencies(candidate, steps, idx)
		}
	}

	return nil
}

// DoneSteps maps step ID to whether its current task reached a done
// status. Only the task referenced by the step's current-task pointer
// counts; historical rows from reruns do not.
func DoneSteps(steps []*models.Step, tasks []*models.Task) map[string]bool {
	byID := make(map[string]*models.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	done := make(map[string]bool, len(steps))

	for _, step := range steps {
		if step.CurrentTaskID == nil {
			continue
		}

		task, ok := byID[*step.CurrentTaskID]
		if !ok {
			continue
		}

		if task.Status.Done() {
			done[step.ID] = true
		}
	}

	return done
}
