// Show command displays one record in full.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/besa-qa/xmigrate/internal/reconcile"
	"github.com/besa-qa/xmigrate/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one record with its steps, attachments, and resolution",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	s, j, err := restoreSession(false)
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := s.ByID(args[0])
	if err != nil {
		return fmt.Errorf("record %s: %w", args[0], err)
	}

	if flagJSON {
		return printJSON(rec)
	}

	fmt.Println("ID:         ", rec.ID)
	fmt.Println("Source key: ", valueOr(rec.SourceKey, "(none)"))
	fmt.Println("Summary:    ", valueOr(rec.Summary, "(missing)"))
	fmt.Println("Test type:  ", rec.TestType)
	fmt.Println("Resolution: ", formatResolution(rec.Resolution))
	if rec.Description != "" {
		fmt.Println("Description:")
		fmt.Println(indent(rec.Description, "  "))
	}

	if len(rec.Steps) > 0 {
		fmt.Printf("Steps (%d):\n", len(rec.Steps))
		for i, step := range rec.Steps {
			fmt.Printf("  %d. %s\n", i+1, step.Action)
			if step.Data != "" {
				fmt.Println("     data:    ", step.Data)
			}
			if step.Expected != "" {
				fmt.Println("     expected:", step.Expected)
			}
		}
	}

	if len(rec.PreconditionIDs) > 0 {
		fmt.Println("Preconditions:")
		for _, preID := range rec.PreconditionIDs {
			if sum, ok := s.PreconditionSummary(preID); ok {
				fmt.Printf("  %s  %s\n", preID, sum)
			} else {
				fmt.Println("  " + preID)
			}
		}
	}
	if sets := s.TestSetIDsFor(rec.ID); len(sets) > 0 {
		fmt.Println("Test sets:    ", strings.Join(sets, ", "))
	}
	if plans := s.TestPlanIDsFor(rec.ID); len(plans) > 0 {
		fmt.Println("Test plans:   ", strings.Join(plans, ", "))
	}

	if len(rec.Attachments) > 0 {
		fmt.Printf("Attachments (%d):\n", len(rec.Attachments))
		for _, ref := range rec.Attachments {
			fmt.Printf("  %s (%d bytes)\n", ref.Filename, ref.Size)
		}
	}
	if embedded := reconcile.EmbeddedIDs(rec); len(embedded) > 0 {
		fmt.Println("Embedded attachment refs:", strings.Join(embedded, ", "))
	}

	if ds, ok := s.Dataset(rec.ID); ok {
		fmt.Printf("Dataset: %d columns, %d rows\n", len(ds.Columns), len(ds.Rows))
	}
	return nil
}

// formatResolution renders the resolution state plus whatever target it
// carries.
func formatResolution(res types.Resolution) string {
	switch {
	case res.State == types.StateCreateNew:
		return fmt.Sprintf("%s (project %s)", res.State, res.ProjectKey)
	case res.Key != "":
		return fmt.Sprintf("%s (%s)", res.State, res.Key)
	default:
		return res.State
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
