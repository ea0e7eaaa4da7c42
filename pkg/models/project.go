// Package models defines the core domain models for blueprint-driven
// marketing workflows.
package models

import "time"

// Project is a marketing blueprint: the tenant-scoped root that owns
// pillars and workflows. Deleting a project cascades through both.
type Project struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Settings    map[string]any `json:"settings,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Pillar is a content channel or theme grouping workflows within a
// project. Pillars are wiped and replaced when a blueprint is
// regenerated.
type Pillar struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id" validate:"required"`
	Name        string    `json:"name"       validate:"required"`
	Platform    string    `json:"platform"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
