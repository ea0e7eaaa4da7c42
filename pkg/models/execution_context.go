package models

// ExecutionContext carries everything a step handler may need: project
// metadata, the workflow's pillar, and the chained predecessor output.
type ExecutionContext struct {
	TaskID         string         `json:"task_id"`
	WorkflowID     string         `json:"workflow_id"`
	ProjectID      string         `json:"project_id"`
	Project        *Project       `json:"project,omitempty"`
	Pillar         *Pillar        `json:"pillar,omitempty"`
	WorkflowConfig map[string]any `json:"workflow_config,omitempty"`
	StepConfig     map[string]any `json:"step_config,omitempty"`

	// ChainedInput is the most recent completed predecessor's output
	// data, or nil for the first step.
	ChainedInput map[string]any `json:"chained_input,omitempty"`
}
