// Package session persists per-record resolution decisions for one
// migration session in a SQLite database under the data directory.
// Decisions survive process restarts, so an interrupted session
// resumes with prior decisions intact and a re-run after partial
// failure plans the identical remainder.
package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/besa-qa/xmigrate/pkg/types"
)

const journalFile = "journal.db"

// Journal records resolution decisions for the current session.
type Journal struct {
	db        *sql.DB
	sessionID string
	logger    *zap.Logger
}

// Open opens (creating if needed) the journal database under dataDir
// and attaches to the most recent session, or starts a new one if the
// journal is empty. Pass fresh=true to always start a new session.
func Open(dataDir string, fresh bool, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, journalFile))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure journal schema: %w", err)
		}
	}

	j := &Journal{db: db, logger: logger}
	if err := j.attachSession(fresh); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("journal opened", zap.String("session", j.sessionID))
	return j, nil
}

// attachSession selects the current session row, creating one when
// needed.
func (j *Journal) attachSession(fresh bool) error {
	if !fresh {
		var id string
		err := j.db.QueryRow(
			"SELECT session_id FROM sessions ORDER BY created_at DESC, session_id DESC LIMIT 1",
		).Scan(&id)
		switch {
		case err == nil:
			j.sessionID = id
			return nil
		case err != sql.ErrNoRows:
			return fmt.Errorf("find current session: %w", err)
		}
	}

	id := uuid.NewString()
	_, err := j.db.Exec(
		"INSERT INTO sessions (session_id, created_at) VALUES (?, ?)",
		id, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	j.sessionID = id
	return nil
}

// SessionID returns the id of the attached session.
func (j *Journal) SessionID() string { return j.sessionID }

// Save upserts the record's current resolution into the journal.
func (j *Journal) Save(rec *types.TestRecord) error {
	res := rec.Resolution
	_, err := j.db.Exec(`INSERT INTO resolutions
    (session_id, record_id, state, key, project_key, decided_at)
    VALUES (?, ?, ?, ?, ?, ?)
    ON CONFLICT (session_id, record_id) DO UPDATE SET
    state = excluded.state, key = excluded.key,
    project_key = excluded.project_key, decided_at = excluded.decided_at`,
		j.sessionID, rec.ID, res.State, res.Key, res.ProjectKey,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save resolution for %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes the journaled resolution for a record, if any. Used
// when the caller explicitly resets a decision.
func (j *Journal) Delete(recordID string) error {
	_, err := j.db.Exec(
		"DELETE FROM resolutions WHERE session_id = ? AND record_id = ?",
		j.sessionID, recordID)
	if err != nil {
		return fmt.Errorf("delete resolution for %s: %w", recordID, err)
	}
	return nil
}

// Load returns all journaled resolutions for the session, keyed by
// record id.
func (j *Journal) Load() (map[string]types.Resolution, error) {
	rows, err := j.db.Query(
		"SELECT record_id, state, key, project_key FROM resolutions WHERE session_id = ?",
		j.sessionID)
	if err != nil {
		return nil, fmt.Errorf("load resolutions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]types.Resolution)
	for rows.Next() {
		var recordID string
		var res types.Resolution
		if err := rows.Scan(&recordID, &res.State, &res.Key, &res.ProjectKey); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		out[recordID] = res
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	return out, nil
}

// Replay applies journaled resolutions onto the loaded records.
// Records unknown to the store are skipped; the journal may be newer
// than the backup on disk. Returns the number of records restored.
func (j *Journal) Replay(byID func(string) (*types.TestRecord, error)) (int, error) {
	saved, err := j.Load()
	if err != nil {
		return 0, err
	}

	restored := 0
	for recordID, res := range saved {
		rec, err := byID(recordID)
		if err != nil {
			j.logger.Debug("journaled record not in store", zap.String("record", recordID))
			continue
		}
		if err := rec.RestoreResolution(res); err != nil {
			return restored, fmt.Errorf("restore %s: %w", recordID, err)
		}
		restored++
	}
	return restored, nil
}

// Close releases the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
