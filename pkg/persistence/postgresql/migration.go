package postgresql

// migrations returns the numbered schema migrations for the marketing store.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				trigger JSONB NOT NULL,
				steps JSONB NOT NULL DEFAULT '[]',
				segment_id TEXT,
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				activated_at TIMESTAMP WITH TIME ZONE,
				last_scheduled_run_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS executions (
				id TEXT PRIMARY KEY,
				workflow_id TEXT NOT NULL REFERENCES workflows(id),
				customer_id TEXT NOT NULL,
				trigger_data JSONB,
				status TEXT NOT NULL,
				current_step INTEGER NOT NULL DEFAULT 0,
				step_results JSONB NOT NULL DEFAULT '[]',
				wait_until TIMESTAMP WITH TIME ZONE,
				error_message TEXT NOT NULL DEFAULT '',
				version BIGINT NOT NULL DEFAULT 1,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_executions_workflow ON executions(workflow_id);
			CREATE INDEX IF NOT EXISTS idx_executions_due
				ON executions(wait_until) WHERE status = 'RUNNING' AND wait_until IS NOT NULL;

			CREATE TABLE IF NOT EXISTS customers (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT '',
				email_verified BOOLEAN NOT NULL DEFAULT FALSE,
				marketing_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
				sms_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
				tags JSONB NOT NULL DEFAULT '[]',
				attributes JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS orders (
				id TEXT PRIMARY KEY,
				customer_id TEXT NOT NULL REFERENCES customers(id),
				total NUMERIC(12,2) NOT NULL DEFAULT 0,
				placed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);

			CREATE TABLE IF NOT EXISTS segments (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				customer_ids JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS sends (
				id TEXT PRIMARY KEY,
				channel TEXT NOT NULL,
				customer_id TEXT NOT NULL,
				address TEXT NOT NULL,
				subject TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL DEFAULT '',
				workflow_id TEXT NOT NULL,
				execution_id TEXT NOT NULL,
				step_id TEXT NOT NULL,
				status TEXT NOT NULL,
				sent_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_sends_execution ON sends(execution_id);
			CREATE INDEX IF NOT EXISTS idx_sends_customer ON sends(customer_id);
		`,
	}
}
