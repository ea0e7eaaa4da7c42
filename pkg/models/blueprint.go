package models

// Blueprint is the AI-proposed set of pillars and workflows for a
// project. Applying one replaces the project's existing pillars and
// workflows wholesale.
type Blueprint struct {
	ActivePillars []*Pillar   `json:"active_pillars"`
	Workflows     []*Workflow `json:"workflows"`
}
