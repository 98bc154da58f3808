// Resolve command decides target keys for records.
package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/besa-qa/xmigrate/internal/resolve"
	"github.com/besa-qa/xmigrate/internal/session"
	"github.com/besa-qa/xmigrate/pkg/types"
)

var (
	resolveAuto      bool
	resolveAll       bool
	resolveKeyword   string
	resolveKey       string
	resolveCreateNew bool
	resolveProject   string
	resolvePending   bool
	resolveReset     bool
	resolveFresh     bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [ids...]",
	Short: "Decide target keys for records",
	Long: `Resolve decides, per record, which issue key the record maps to on
the target instance. Decisions are journaled and survive restarts; a
decided record keeps its decision until explicitly reset.

Automatic mode matches exact normalized summaries against the target
index snapshot and never guesses: zero or multiple matches leave the
record unresolved with a reason.

Example:
  xmigrate resolve --auto --all
  xmigrate resolve 12345 --key PROJ-42
  xmigrate resolve 12345 --create-new --project PROJ
  xmigrate resolve 12345 --pending
  xmigrate resolve 12345 --reset`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveAuto, "auto", false, "resolve automatically against the target index")
	resolveCmd.Flags().BoolVar(&resolveAll, "all", false, "operate on every record")
	resolveCmd.Flags().StringVar(&resolveKeyword, "keyword", "", "operate on records matching keyword")
	resolveCmd.Flags().StringVar(&resolveKey, "key", "", "manually supply the target key (single record)")
	resolveCmd.Flags().BoolVar(&resolveCreateNew, "create-new", false, "mark records for creation as new target issues")
	resolveCmd.Flags().StringVar(&resolveProject, "project", "", "target project for --create-new (default: source key prefix)")
	resolveCmd.Flags().BoolVar(&resolvePending, "pending", false, "park records as awaiting a manual decision")
	resolveCmd.Flags().BoolVar(&resolveReset, "reset", false, "discard prior decisions for the selected records")
	resolveCmd.Flags().BoolVar(&resolveFresh, "fresh", false, "start a new session, ignoring journaled decisions")
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, j, err := restoreSession(resolveFresh)
	if err != nil {
		return err
	}
	defer j.Close()

	records, err := selectRecords(s, args, resolveAll, resolveKeyword)
	if err != nil {
		return err
	}

	if resolveReset {
		return runReset(j, records)
	}

	r, err := resolve.New(appConfig.KeyPattern())
	if err != nil {
		return err
	}

	var results []resolve.Result
	switch {
	case resolveKey != "":
		if len(records) != 1 {
			return fmt.Errorf("--key applies to exactly one record, got %d", len(records))
		}
		results, err = resolveWithKey(r, j, records[0])
	case resolveCreateNew:
		results, err = resolveAsNew(r, j, records)
	case resolvePending:
		results, err = parkPending(j, records)
	case resolveAuto:
		results, err = resolveAutomatically(r, j, records)
	default:
		return fmt.Errorf("pick a mode: --auto, --key, --create-new, --pending, or --reset")
	}
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(results)
	}
	printResults(results)
	return nil
}

// runReset clears decisions in memory and in the journal.
func runReset(j *session.Journal, records []*types.TestRecord) error {
	for _, rec := range records {
		rec.ResetResolution()
		if err := j.Delete(rec.ID); err != nil {
			return err
		}
	}
	fmt.Printf("%d decision(s) reset\n", len(records))
	return nil
}

// resolveWithKey applies one manual key decision. An invalid key is a
// user error reported with the format reason.
func resolveWithKey(r *resolve.Resolver, j *session.Journal, rec *types.TestRecord) ([]resolve.Result, error) {
	result, err := r.Resolve(rec, nil, resolve.Manual, resolveKey)
	if errors.Is(err, types.ErrInvalidKeyFormat) {
		return nil, fmt.Errorf("%s: %w", result.Reason, err)
	}
	if err != nil {
		return nil, err
	}
	if err := j.Save(rec); err != nil {
		return nil, err
	}
	return []resolve.Result{result}, nil
}

// resolveAsNew marks each record for creation in the target project.
func resolveAsNew(r *resolve.Resolver, j *session.Journal, records []*types.TestRecord) ([]resolve.Result, error) {
	results := make([]resolve.Result, 0, len(records))
	for _, rec := range records {
		result, err := r.CreateNew(rec, resolveProject)
		if err != nil && !errors.Is(err, types.ErrInvalidKeyFormat) {
			return nil, err
		}
		if rec.Resolution.State == types.StateCreateNew {
			if err := j.Save(rec); err != nil {
				return nil, err
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// parkPending marks records as awaiting a later manual decision.
func parkPending(j *session.Journal, records []*types.TestRecord) ([]resolve.Result, error) {
	results := make([]resolve.Result, 0, len(records))
	for _, rec := range records {
		if err := rec.MarkPendingManual(); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if err := j.Save(rec); err != nil {
			return nil, err
		}
		results = append(results, resolve.Result{
			RecordID: rec.ID,
			Outcome:  types.StatePendingManual,
			Reason:   "parked for manual decision",
		})
	}
	return results, nil
}

// resolveAutomatically matches records against the target index and
// journals every decision made.
func resolveAutomatically(r *resolve.Resolver, j *session.Journal, records []*types.TestRecord) ([]resolve.Result, error) {
	idx, err := loadTargetIndex()
	if err != nil {
		return nil, err
	}

	results := make([]resolve.Result, 0, len(records))
	for _, rec := range records {
		result, err := r.Resolve(rec, idx, resolve.Automatic, "")
		if err != nil {
			return nil, err
		}
		if rec.Resolution.Decided() {
			if err := j.Save(rec); err != nil {
				return nil, err
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// printResults renders resolution outcomes as a table with a counter
// line.
func printResults(results []resolve.Result) {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOUTCOME\tKEY\tREASON")

	decided := 0
	for _, res := range results {
		if res.Outcome != resolve.OutcomeUnresolved {
			decided++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.RecordID, res.Outcome, res.Key, res.Reason)
	}
	w.Flush()
	fmt.Print(sb.String())
	fmt.Printf("%d of %d decided\n", decided, len(results))
}
