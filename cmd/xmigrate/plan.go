// Plan command builds the export batch and its report.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/besa-qa/xmigrate/internal/plan"
	"github.com/besa-qa/xmigrate/internal/reconcile"
	"github.com/besa-qa/xmigrate/internal/store"
	"github.com/besa-qa/xmigrate/pkg/types"
)

const (
	exportPayloadFile = "export.json"
	planReportFile    = "plan_report.json"
)

var (
	planAll     bool
	planKeyword string
	planFresh   bool
)

// planReport is the sidecar written next to the export payload: what
// was skipped and why, which attachments still need uploading, and
// which attachment ids are referenced inline from step text.
type planReport struct {
	Summary             string                           `json:"summary"`
	Planned             int                              `json:"planned"`
	Creates             int                              `json:"creates"`
	Skipped             int                              `json:"skipped"`
	Skips               []types.Skip                     `json:"skips,omitempty"`
	MissingAttachments  map[string][]types.AttachmentRef `json:"missing_attachments,omitempty"`
	EmbeddedAttachments map[string][]string              `json:"embedded_attachments,omitempty"`
}

var planCmd = &cobra.Command{
	Use:   "plan [ids...]",
	Short: "Build the export payload and plan report",
	Long: `Plan assembles the selected records into a target-compatible bulk
import payload. Records without a terminal key decision are skipped
with a reason, never silently dropped. The same selection and the same
decisions always produce a byte-identical payload, so plan can be
re-run safely after a partial upload.

Plan writes two files to the output directory: export.json (the upload
payload) and plan_report.json (skips, missing attachments, and inline
attachment references).

Example:
  xmigrate plan --all
  xmigrate plan 12345 12346
  xmigrate plan --keyword login`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planAll, "all", false, "plan every record")
	planCmd.Flags().StringVar(&planKeyword, "keyword", "", "plan records matching keyword")
	planCmd.Flags().BoolVar(&planFresh, "fresh", false, "start a new session, ignoring journaled decisions")
}

func runPlan(cmd *cobra.Command, args []string) error {
	s, j, err := restoreSession(planFresh)
	if err != nil {
		return err
	}
	defer j.Close()

	records, err := selectRecords(s, args, planAll, planKeyword)
	if err != nil {
		return err
	}

	idx, err := loadTargetIndex()
	if err != nil {
		return err
	}

	missing := make(map[string][]types.AttachmentRef)
	embedded := make(map[string][]string)
	for _, rec := range records {
		if refs := reconcile.Missing(rec, idx); len(refs) > 0 {
			missing[rec.ID] = refs
		}
		if ids := reconcile.EmbeddedIDs(rec); len(ids) > 0 {
			embedded[rec.ID] = ids
		}
	}

	batch := plan.Build(records, missing, buildLookup(s))

	payload, err := batch.Payload()
	if err != nil {
		return fmt.Errorf("render payload: %w", err)
	}

	dir, err := outputDir()
	if err != nil {
		return err
	}
	payloadPath := filepath.Join(dir, exportPayloadFile)
	if err := os.WriteFile(payloadPath, payload, 0o644); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	report := planReport{
		Summary:             plan.Summary(batch),
		Planned:             batch.Planned(),
		Creates:             batch.Creates(),
		Skipped:             batch.Skipped(),
		Skips:               batch.Skips,
		MissingAttachments:  batch.Missing,
		EmbeddedAttachments: embedded,
	}
	reportPath := filepath.Join(dir, planReportFile)
	if err := writeReport(reportPath, report); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(report)
	}
	fmt.Println(report.Summary)
	for _, skip := range batch.Skips {
		fmt.Printf("  skipped %s: %s\n", skip.RecordID, skip.Reason)
	}
	fmt.Println("payload:", payloadPath)
	fmt.Println("report: ", reportPath)
	return nil
}

// buildLookup assembles the cross-record key mappings from everything
// the store knows: resolved records, source issue metadata, and
// test-set membership.
func buildLookup(s *store.Store) plan.Lookup {
	lk := plan.Lookup{
		KeyByID:      make(map[string]string),
		SetsByRecord: make(map[string][]string),
	}
	addKey := func(id string) {
		if _, done := lk.KeyByID[id]; done {
			return
		}
		if key, ok := s.KeyForID(id); ok {
			lk.KeyByID[id] = key
		}
	}

	for _, rec := range s.All() {
		addKey(rec.ID)
		for _, preID := range rec.PreconditionIDs {
			addKey(preID)
		}
		if sets := s.TestSetIDsFor(rec.ID); len(sets) > 0 {
			lk.SetsByRecord[rec.ID] = sets
			for _, setID := range sets {
				addKey(setID)
			}
		}
	}
	return lk
}

// writeReport persists the plan report as indented JSON.
func writeReport(path string, report planReport) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
