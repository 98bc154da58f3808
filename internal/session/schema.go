package session

// Schema DDL for the resolution journal.
const (
	createSessions = `CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL
);`

	createResolutions = `CREATE TABLE IF NOT EXISTS resolutions (
    session_id TEXT NOT NULL,
    record_id TEXT NOT NULL,
    state TEXT NOT NULL,
    key TEXT NOT NULL DEFAULT '',
    project_key TEXT NOT NULL DEFAULT '',
    decided_at TEXT NOT NULL,
    PRIMARY KEY (session_id, record_id),
    FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);`
)

// schemaStatements lists the DDL in dependency order.
var schemaStatements = []string{
	createSessions,
	createResolutions,
}
