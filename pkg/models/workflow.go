package models

import "time"

// Workflow is an ordered sequence of steps belonging to one project and
// one pillar. The runner operates one workflow at a time; ordering is
// never shared across workflows.
type Workflow struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id" validate:"required"`
	PillarID  string         `json:"pillar_id"  validate:"required"`
	Name      string         `json:"name"       validate:"required,min=3"`
	Config    map[string]any `json:"config,omitempty"`
	Steps     []*Step        `json:"steps"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// StepByID returns the step with the given ID, or nil.
func (w *Workflow) StepByID(stepID string) *Step {
	for _, step := range w.Steps {
		if step.ID == stepID {
			return step
		}
	}

	return nil
}
