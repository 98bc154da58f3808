// List command queries loaded records.
package main

import (
	"github.com/spf13/cobra"

	"github.com/besa-qa/xmigrate/pkg/types"
)

var (
	listFrom    int
	listTo      int
	listKeyword string
	listKey     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records loaded from the backup",
	Long: `List loads the backup and displays its records with their current
resolution state for this session.

Filters:
  --from/--to   index range over load order
  --keyword     substring match against summary and description
  --key         explicit issue key (source or resolved)

Example:
  xmigrate list
  xmigrate list --keyword login
  xmigrate list --from 0 --to 20
  xmigrate list --key PROJ-42 --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVar(&listFrom, "from", 0, "first load-order index to show")
	listCmd.Flags().IntVar(&listTo, "to", -1, "last load-order index to show (-1 = end)")
	listCmd.Flags().StringVar(&listKeyword, "keyword", "", "filter by keyword in summary or description")
	listCmd.Flags().StringVar(&listKey, "key", "", "filter by explicit issue key")
}

func runList(cmd *cobra.Command, args []string) error {
	s, j, err := restoreSession(false)
	if err != nil {
		return err
	}
	defer j.Close()

	var records []*types.TestRecord
	switch {
	case listKey != "":
		records = s.ByKey(listKey)
	case listKeyword != "":
		records = s.Search(listKeyword)
	default:
		to := listTo
		if to < 0 {
			to = s.Len() - 1
		}
		records = s.Range(listFrom, to)
	}

	if flagJSON {
		return printJSON(records)
	}
	printRecordTable(records)
	printProblems(s.Problems())
	return nil
}
