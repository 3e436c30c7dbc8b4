package archive

// Schema DDL. Statements are idempotent so Open can run them on every start.
const (
	createRuns = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    distinct_items INTEGER NOT NULL,
    total_items INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createRunItems = `CREATE TABLE IF NOT EXISTS run_items (
    run_id TEXT NOT NULL,
    name TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (run_id, name),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);`

	createRunsCreatedIndex = `CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`
)

// schemaStatements lists the DDL in execution order.
var schemaStatements = []string{
	createRuns,
	createRunItems,
	createRunsCreatedIndex,
}
