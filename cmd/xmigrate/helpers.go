// Shared helpers for xmigrate CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/besa-qa/xmigrate/internal/session"
	"github.com/besa-qa/xmigrate/internal/store"
	"github.com/besa-qa/xmigrate/pkg/types"
)

// loadStore loads the backup into the record store using the active
// configuration.
func loadStore() (*store.Store, error) {
	s, err := store.Load(appConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("load backup: %w", err)
	}
	return s, nil
}

// openJournal opens the resolution journal in the resolved data
// directory. The caller must defer Close.
func openJournal(fresh bool) (*session.Journal, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	j, err := session.Open(dataDir, fresh, logger)
	if err != nil {
		return nil, fmt.Errorf("open session journal: %w", err)
	}
	return j, nil
}

// restoreSession loads the store and replays the journal's decisions
// onto it. Every record-facing command goes through this so the user
// always sees the session's current state.
func restoreSession(fresh bool) (*store.Store, *session.Journal, error) {
	s, err := loadStore()
	if err != nil {
		return nil, nil, err
	}
	j, err := openJournal(fresh)
	if err != nil {
		return nil, nil, err
	}
	restored, err := j.Replay(s.ByID)
	if err != nil {
		j.Close()
		return nil, nil, fmt.Errorf("replay session: %w", err)
	}
	if restored > 0 {
		logger.Info("session resumed",
			zap.String("session", j.SessionID()),
			zap.Int("decisions", restored))
	}
	return s, j, nil
}

// targetIndexFile is the target-index snapshot envelope. A bare array
// of records is accepted too.
type targetIndexFile struct {
	Records []types.TargetRecord `json:"records"`
}

// loadTargetIndex reads the target-index snapshot following the
// precedence flag > config.yaml target_index > <backup_dir> default.
// A missing snapshot yields an empty index: automatic resolution then
// finds nothing, which is safe.
func loadTargetIndex() (*types.TargetIndex, error) {
	path := flagTargetIndex
	if path == "" {
		path = configTargetIndex
	}
	if path == "" {
		path = filepath.Join(appConfig.BackupDir, "target_index.json")
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Warn("no target index snapshot; automatic resolution will match nothing",
			zap.String("path", path))
		return types.NewTargetIndex(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read target index: %w", err)
	}

	var envelope targetIndexFile
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Records != nil {
		return types.NewTargetIndex(envelope.Records), nil
	}
	var records []types.TargetRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse target index %s: %w", path, types.ErrMalformedInput)
	}
	return types.NewTargetIndex(records), nil
}

// selectRecords picks records by explicit ids, keyword search, or all.
func selectRecords(s *store.Store, ids []string, all bool, keyword string) ([]*types.TestRecord, error) {
	switch {
	case len(ids) > 0:
		records := make([]*types.TestRecord, 0, len(ids))
		for _, id := range ids {
			rec, err := s.ByID(id)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", id, err)
			}
			records = append(records, rec)
		}
		return records, nil
	case keyword != "":
		return s.Search(keyword), nil
	case all:
		return s.All(), nil
	default:
		return nil, fmt.Errorf("select records by id, --keyword, or --all")
	}
}

// outputDir returns the configured output directory, created on
// demand.
func outputDir() (string, error) {
	dir := appConfig.OutputDir
	if dir == "" {
		dir = defaultOutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// printRecordTable prints records in a human-readable table format.
func printRecordTable(records []*types.TestRecord) {
	if len(records) == 0 {
		fmt.Println("No records found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tSOURCE KEY\tRESOLUTION\tTARGET KEY\tSTEPS\tSUMMARY")
	for _, rec := range records {
		key := rec.Resolution.Key
		if rec.Resolution.State == types.StateCreateNew {
			key = "(new in " + rec.Resolution.ProjectKey + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			rec.ID, rec.SourceKey, rec.Resolution.State, key, len(rec.Steps), truncate(rec.Summary, 60))
	}
	w.Flush()
	fmt.Print(sb.String())
}

// printProblems reports load problems to stderr.
func printProblems(problems []store.LoadProblem) {
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, "warning:", p.String())
	}
}

// truncate shortens s to at most n runes, appending an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
