package models

// StepType identifies the handler responsible for executing a step.
type StepType string

// The closed set of step types. Unknown types are rejected at dispatch
// time with ErrUnsupportedStepType.
const (
	StepGenerateDraft   StepType = "generate_draft"
	StepGenerateOutline StepType = "generate_outline"
	StepScanFeed        StepType = "scan_feed"
	StepSelectTargets   StepType = "select_targets"
	StepGenerateReplies StepType = "generate_replies"
	StepReviewContent   StepType = "review_content"
	StepWaitApproval    StepType = "wait_approval"
	StepPostAPI         StepType = "post_api"
	StepPostReply       StepType = "post_reply"
	StepPostExtension   StepType = "post_extension"
)

// Step is one declared unit of work in a workflow. Steps are immutable
// once created; only CurrentTaskID moves as tasks are created for the
// step.
type Step struct {
	ID         string   `json:"id"`
	WorkflowID string   `json:"workflow_id" validate:"required"`
	Type       StepType `json:"type"        validate:"required"`
	Position   int      `json:"position"    validate:"min=1"`

	// DependencyIDs lists explicit predecessor steps. When empty, the
	// immediate positional predecessor is the implicit dependency.
	DependencyIDs []string       `json:"dependency_ids,omitempty"`
	Config        map[string]any `json:"config,omitempty"`

	// CurrentTaskID points at the task currently representing this
	// step's execution state. Historical tasks stay in the task log.
	CurrentTaskID *string `json:"current_task_id,omitempty"`
}
