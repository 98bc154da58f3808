// Package store implements the in-memory record store: it loads test,
// dataset, test-set, and attachment records from a backup directory
// and serves read-only queries over them. Loading is tolerant: a
// malformed file or record is recorded as a problem and skipped, and
// loading continues for everything else.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/besa-qa/xmigrate/pkg/types"
)

// Backup file name conventions from the source system's export.
const (
	testGlob         = "tests*.json"
	datasetGlob      = "datasets*.json"
	testSetGlob      = "testSets*.json"
	testPlanGlob     = "testPlans*.json"
	preconditionGlob = "preconditions*.json"
	attachmentGlob   = "metadata_*.json"
	issueMetaFile    = "issue_lookup_cache.json"

	// Older backups name the lookup cache after the tracker product.
	legacyIssueMetaFile = "jira_lookup_cache.json"
)

// LoadProblem describes one source file or record that could not be
// loaded, or that fails export requirements. Problems never abort a
// load.
type LoadProblem struct {
	File     string
	RecordID string
	Err      error
	Detail   string
}

func (p LoadProblem) String() string {
	switch {
	case p.RecordID != "":
		return fmt.Sprintf("%s (record %s): %s", p.File, p.RecordID, p.Detail)
	default:
		return fmt.Sprintf("%s: %s", p.File, p.Detail)
	}
}

// Store is the in-memory index over loaded records. All queries are
// read-only; the store is never mutated after Load returns, except for
// the per-record resolution field owned by the key resolver.
type Store struct {
	records       []*types.TestRecord
	byID          map[string]*types.TestRecord
	byVersionID   map[string]string
	datasets      map[string]*types.Dataset
	setsByRecord  map[string][]string
	plansByRecord map[string][]string
	issueKeys     map[string]string
	preSummaries  map[string]string
	problems      []LoadProblem
}

// Load reads all backup files under cfg.BackupDir (and attachment
// metadata under cfg.AttachmentsDir) and builds the record index.
// Record ids are stable across reloads within a session: they come
// from the source export, not from load order.
func Load(cfg types.Config, logger *zap.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		byID:          make(map[string]*types.TestRecord),
		byVersionID:   make(map[string]string),
		datasets:      make(map[string]*types.Dataset),
		setsByRecord:  make(map[string][]string),
		plansByRecord: make(map[string][]string),
		issueKeys:     make(map[string]string),
		preSummaries:  make(map[string]string),
	}

	meta := s.loadIssueMeta(cfg.BackupDir, logger)
	attDB := s.loadAttachmentMeta(cfg.AttachmentsDir, logger)

	// Keys from the lookup cache cover entities that are not test
	// records themselves (preconditions, test sets).
	for id, m := range meta {
		if m.Key != "" {
			s.issueKeys[id] = m.Key
		}
	}

	if err := s.loadTests(cfg, meta, attDB, logger); err != nil {
		return nil, err
	}
	s.loadDatasets(cfg.BackupDir, logger)
	s.loadTestSets(cfg.BackupDir, logger)
	s.loadTestPlans(cfg.BackupDir, logger)
	s.loadPreconditions(cfg.BackupDir, meta, logger)

	logger.Info("backup loaded",
		zap.Int("records", len(s.records)),
		zap.Int("datasets", len(s.datasets)),
		zap.Int("problems", len(s.problems)))
	return s, nil
}

// loadTests reads every tests*.json file into TestRecords.
func (s *Store) loadTests(cfg types.Config, meta map[string]issueMeta, attDB map[string]attachmentMeta, logger *zap.Logger) error {
	files, err := filepath.Glob(filepath.Join(cfg.BackupDir, testGlob))
	if err != nil {
		return fmt.Errorf("glob %s: %w", testGlob, err)
	}

	for _, file := range files {
		tests, err := readTestFile(file)
		if err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		for _, st := range tests {
			s.addTest(file, st, meta, attDB, cfg.AttachmentsDir, logger)
		}
	}
	return nil
}

// readTestFile parses a tests file, accepting either the
// {"tests": [...]} envelope or a single bare test object.
func readTestFile(path string) ([]sourceTest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var envelope sourceTestFile
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Tests != nil {
		return envelope.Tests, nil
	}

	var single sourceTest
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return []sourceTest{single}, nil
}

// addTest converts one source test into a TestRecord and indexes it.
func (s *Store) addTest(file string, st sourceTest, meta map[string]issueMeta, attDB map[string]attachmentMeta, attachmentsDir string, logger *zap.Logger) {
	id := string(st.ID)
	if id == "" {
		s.problem(file, "", types.ErrMalformedInput, "test entry has no id", logger)
		return
	}
	if _, dup := s.byID[id]; dup {
		s.problem(file, id, types.ErrMalformedInput, "duplicate record id", logger)
		return
	}

	m := meta[id]
	summary := m.Summary
	if summary == "" {
		summary = st.Summary
	}
	if summary == "" && len(st.Steps) > 0 {
		// Last resort carried over from older exports: the first step
		// action stands in for a missing summary.
		summary = st.Steps[0].Action
	}
	description := m.Description
	if description == "" {
		description = st.Description
	}

	rec := &types.TestRecord{
		ID:          id,
		Summary:     summary,
		Description: description,
		TestType:    testType(st),
		SourceKey:   m.Key,
		Resolution:  types.Resolution{State: types.StateUnresolved},
	}
	for _, step := range st.Steps {
		rec.Steps = append(rec.Steps, types.Step{
			Action:   step.Action,
			Data:     step.Data,
			Expected: step.Result,
		})
	}
	for _, pre := range st.PreconditionIDs {
		rec.PreconditionIDs = append(rec.PreconditionIDs, string(pre))
	}
	rec.Attachments = types.DedupeAttachments(resolveAttachments(id, st.Attachments, attDB, attachmentsDir))

	if err := rec.Validate(); err != nil {
		// Flagged, not dropped: the record stays queryable so the
		// caller can report it, but it is excluded from export.
		s.problem(file, id, err, "summary is required for export", logger)
	}

	s.byID[id] = rec
	s.records = append(s.records, rec)
	if vid := string(st.TestVersionID); vid != "" {
		// Datasets sometimes link by the versioned id instead of the
		// test's own id.
		s.byVersionID[vid] = id
	}
}

// resolveAttachments merges per-test attachment declarations with the
// attachment metadata database. Declarations missing a filename or
// size are completed from the database when possible.
func resolveAttachments(recordID string, atts []sourceAttachment, attDB map[string]attachmentMeta, attachmentsDir string) []types.AttachmentRef {
	refs := make([]types.AttachmentRef, 0, len(atts))
	for _, a := range atts {
		ref := types.AttachmentRef{
			RecordID: recordID,
			Filename: a.Filename,
			Size:     a.Size,
		}
		if m, ok := attDB[a.ID]; ok {
			if ref.Filename == "" {
				ref.Filename = m.Filename
			}
			if ref.Size == 0 {
				ref.Size = m.Size
			}
		}
		if a.ID != "" && attachmentsDir != "" {
			ref.Path = filepath.Join(attachmentsDir, a.ID)
		}
		if ref.Filename == "" {
			// Unnamed and unknown to the metadata database; nothing to
			// diff or upload.
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// testType derives the target test type from the source fields.
func testType(st sourceTest) string {
	switch {
	case st.Cucumber != "":
		return types.TestTypeCucumber
	case st.Generic != "":
		return types.TestTypeGeneric
	default:
		return types.TestTypeManual
	}
}

// loadIssueMeta reads the issue-metadata lookup file, if present.
func (s *Store) loadIssueMeta(backupDir string, logger *zap.Logger) map[string]issueMeta {
	for _, name := range []string{issueMetaFile, legacyIssueMetaFile} {
		path := filepath.Join(backupDir, name)
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			s.problem(path, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		meta := make(map[string]issueMeta)
		if err := json.Unmarshal(raw, &meta); err != nil {
			s.problem(path, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		return meta
	}
	return map[string]issueMeta{}
}

// loadAttachmentMeta reads every metadata_*.json attachment database
// file under the attachments directory.
func (s *Store) loadAttachmentMeta(attachmentsDir string, logger *zap.Logger) map[string]attachmentMeta {
	db := make(map[string]attachmentMeta)
	if attachmentsDir == "" {
		return db
	}
	files, _ := filepath.Glob(filepath.Join(attachmentsDir, attachmentGlob))
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		var envelope attachmentMetaFile
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		for id, m := range envelope.AttachmentMetadata {
			db[id] = m
		}
	}
	return db
}

// loadDatasets reads every datasets*.json file and indexes datasets by
// owning record id.
func (s *Store) loadDatasets(backupDir string, logger *zap.Logger) {
	files, _ := filepath.Glob(filepath.Join(backupDir, datasetGlob))
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		var envelope sourceDatasetFile
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		for _, ds := range envelope.Datasets {
			id := string(ds.TestIssueID)
			if id == "" {
				s.problem(file, "", types.ErrMalformedInput, "dataset entry has no testIssueId", logger)
				continue
			}
			// testIssueId may name the test itself or its versioned id.
			if _, ok := s.byID[id]; !ok {
				if rid, ok := s.byVersionID[id]; ok {
					id = rid
				}
			}
			columns := make([]string, len(ds.Parameters))
			rows := make([][]string, len(ds.Rows))
			for i, p := range ds.Parameters {
				columns[i] = p.columnTitle()
			}
			for i, row := range ds.Rows {
				projected := make([]string, len(ds.Parameters))
				for j, p := range ds.Parameters {
					projected[j] = string(row.Values[p.ID])
				}
				rows[i] = projected
			}
			s.datasets[id] = &types.Dataset{
				RecordID: id,
				Columns:  columns,
				Rows:     rows,
			}
		}
	}
}

// loadTestSets reads every testSets*.json file and records the
// record-to-set membership.
func (s *Store) loadTestSets(backupDir string, logger *zap.Logger) {
	files, _ := filepath.Glob(filepath.Join(backupDir, testSetGlob))
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		var envelope sourceTestSetFile
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		for _, set := range envelope.TestSets {
			setID := string(set.ID)
			if setID == "" {
				continue
			}
			for _, testID := range set.Tests {
				id := string(testID)
				s.setsByRecord[id] = append(s.setsByRecord[id], setID)
			}
		}
	}
}

// loadTestPlans reads every testPlans*.json file and records the
// record-to-plan membership.
func (s *Store) loadTestPlans(backupDir string, logger *zap.Logger) {
	files, _ := filepath.Glob(filepath.Join(backupDir, testPlanGlob))
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		var envelope sourceTestPlanFile
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		for _, plan := range envelope.TestPlans {
			planID := string(plan.ID)
			if planID == "" {
				continue
			}
			for _, testID := range plan.Tests {
				id := string(testID)
				s.plansByRecord[id] = append(s.plansByRecord[id], planID)
			}
		}
	}
}

// loadPreconditions reads every preconditions*.json file. Precondition
// summaries back the display of precondition links; the issue lookup
// cache wins when both know the entity.
func (s *Store) loadPreconditions(backupDir string, meta map[string]issueMeta, logger *zap.Logger) {
	files, _ := filepath.Glob(filepath.Join(backupDir, preconditionGlob))
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		var envelope sourcePreconditionFile
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.problem(file, "", types.ErrMalformedInput, err.Error(), logger)
			continue
		}
		for _, pre := range envelope.Preconditions {
			id := string(pre.ID)
			if id == "" {
				continue
			}
			summary := meta[id].Summary
			if summary == "" {
				summary = pre.Summary
			}
			if summary == "" {
				summary = pre.Definition
			}
			if summary != "" {
				s.preSummaries[id] = summary
			}
		}
	}
}

// problem records one load problem and logs it.
func (s *Store) problem(file, recordID string, err error, detail string, logger *zap.Logger) {
	p := LoadProblem{File: filepath.Base(file), RecordID: recordID, Err: err, Detail: detail}
	s.problems = append(s.problems, p)
	logger.Warn("load problem",
		zap.String("file", p.File),
		zap.String("record", recordID),
		zap.String("detail", detail),
		zap.Error(err))
}

// Len returns the number of loaded records.
func (s *Store) Len() int { return len(s.records) }

// All returns the loaded records in load order. The returned slice is
// a copy; the records themselves are shared.
func (s *Store) All() []*types.TestRecord {
	out := make([]*types.TestRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ByID returns the record with the given source id.
// Returns ErrRecordNotFound if no record has that id.
func (s *Store) ByID(id string) (*types.TestRecord, error) {
	rec, ok := s.byID[id]
	if !ok {
		return nil, types.ErrRecordNotFound
	}
	return rec, nil
}

// Range returns records by load-order index, inclusive of from and to.
// Bounds are clamped to the loaded range.
func (s *Store) Range(from, to int) []*types.TestRecord {
	if from < 0 {
		from = 0
	}
	if to >= len(s.records) {
		to = len(s.records) - 1
	}
	if from > to {
		return nil
	}
	out := make([]*types.TestRecord, to-from+1)
	copy(out, s.records[from:to+1])
	return out
}

// Search returns records whose summary or description contains the
// keyword, case-insensitively, in load order.
func (s *Store) Search(keyword string) []*types.TestRecord {
	needle := strings.ToLower(keyword)
	var out []*types.TestRecord
	for _, rec := range s.records {
		if strings.Contains(strings.ToLower(rec.Summary), needle) ||
			strings.Contains(strings.ToLower(rec.Description), needle) {
			out = append(out, rec)
		}
	}
	return out
}

// ByKey returns records matching an explicit issue key, either the key
// they carried on the source instance or the key they resolved to.
func (s *Store) ByKey(key string) []*types.TestRecord {
	var out []*types.TestRecord
	for _, rec := range s.records {
		if rec.SourceKey == key || rec.Resolution.Key == key {
			out = append(out, rec)
		}
	}
	return out
}

// Dataset returns the dataset owned by a record, if any.
func (s *Store) Dataset(recordID string) (*types.Dataset, bool) {
	ds, ok := s.datasets[recordID]
	return ds, ok
}

// Datasets returns the dataset index keyed by owning record id.
func (s *Store) Datasets() map[string]*types.Dataset {
	out := make(map[string]*types.Dataset, len(s.datasets))
	for id, ds := range s.datasets {
		out[id] = ds
	}
	return out
}

// TestSetIDsFor returns the ids of the test sets a record belongs to.
func (s *Store) TestSetIDsFor(recordID string) []string {
	return s.setsByRecord[recordID]
}

// TestPlanIDsFor returns the ids of the test plans a record belongs to.
func (s *Store) TestPlanIDsFor(recordID string) []string {
	return s.plansByRecord[recordID]
}

// KeyForID returns the best-known target key for a source internal id:
// the resolved key when a decision exists, otherwise the source key.
// Used to map precondition and test-set linkage to target keys.
func (s *Store) KeyForID(id string) (string, bool) {
	if rec, ok := s.byID[id]; ok && rec.Resolution.HasKey() {
		return rec.Resolution.Key, true
	}
	if key, ok := s.issueKeys[id]; ok {
		return key, true
	}
	return "", false
}

// PreconditionSummary returns the display summary for a precondition
// id, when the backup or lookup cache supplies one.
func (s *Store) PreconditionSummary(id string) (string, bool) {
	sum, ok := s.preSummaries[id]
	return sum, ok
}

// Problems returns everything that went wrong or was flagged during
// loading, in occurrence order.
func (s *Store) Problems() []LoadProblem {
	out := make([]LoadProblem, len(s.problems))
	copy(out, s.problems)
	return out
}
