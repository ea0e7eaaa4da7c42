package postgresql

// migrations returns the ordered schema migrations. Tasks and engagement
// jobs carry no foreign keys into the workflow graph on purpose: both
// survive blueprint regeneration as a project-scoped history log.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				settings JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS pillars (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				platform TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_pillars_project_id ON pillars(project_id);

			CREATE TABLE IF NOT EXISTS workflows (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				pillar_id TEXT NOT NULL DEFAULT '',
				name TEXT NOT NULL,
				config JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_project_id ON workflows(project_id);

			CREATE TABLE IF NOT EXISTS steps (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
				type TEXT NOT NULL,
				position INTEGER NOT NULL,
				dependency_ids JSONB NOT NULL DEFAULT '[]',
				config JSONB NOT NULL DEFAULT '{}',
				current_task_id TEXT
			);

			CREATE INDEX IF NOT EXISTS idx_steps_workflow_id ON steps(workflow_id);

			CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				step_id TEXT NOT NULL,
				workflow_id TEXT NOT NULL,
				project_id TEXT NOT NULL,
				status TEXT NOT NULL,
				output_data JSONB,
				error_message TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_tasks_workflow_id ON tasks(workflow_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_step_id ON tasks(step_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_status_created_at ON tasks(status, created_at);

			CREATE TABLE IF NOT EXISTS engagement_jobs (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL,
				target_url TEXT NOT NULL,
				source_task_id TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				metrics JSONB NOT NULL DEFAULT '{}',
				duration_days INTEGER NOT NULL,
				poll_schedule TEXT NOT NULL DEFAULT '',
				next_poll_at TIMESTAMP WITH TIME ZONE NOT NULL,
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_engagement_jobs_project_id ON engagement_jobs(project_id);
			CREATE INDEX IF NOT EXISTS idx_engagement_jobs_due ON engagement_jobs(status, next_poll_at);
		`,
	}
}
