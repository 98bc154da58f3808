// Datasets command exports per-record dataset CSV files.
package main

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/besa-qa/xmigrate/internal/dataset"
	"github.com/besa-qa/xmigrate/pkg/types"
)

const datasetsZipFile = "datasets.zip"

var (
	datasetsKeyword string
	datasetsZip     bool
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets [ids...]",
	Short: "Export dataset CSV files for records that declare one",
	Long: `Datasets renders each selected record's parameter table as a CSV
file named after its resolved target key (dataset_<KEY>.csv). Records
without a key decision get a clearly-marked placeholder name so the
files can still be reviewed and renamed by hand.

With no ids every record is considered; records without a dataset are
skipped. The target cannot ingest datasets programmatically, so these
files are attached to the target issues by hand.

Example:
  xmigrate datasets
  xmigrate datasets 12345
  xmigrate datasets --zip`,
	RunE: runDatasets,
}

func init() {
	datasetsCmd.Flags().StringVar(&datasetsKeyword, "keyword", "", "export datasets for records matching keyword")
	datasetsCmd.Flags().BoolVar(&datasetsZip, "zip", false, "bundle the CSV files into datasets.zip")
}

func runDatasets(cmd *cobra.Command, args []string) error {
	s, j, err := restoreSession(false)
	if err != nil {
		return err
	}
	defer j.Close()

	var records []*types.TestRecord
	if len(args) == 0 && datasetsKeyword == "" {
		records = s.All()
	} else {
		records, err = selectRecords(s, args, false, datasetsKeyword)
		if err != nil {
			return err
		}
	}

	files, err := dataset.Package(records, s.Datasets())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No datasets to export.")
		return nil
	}

	dir, err := outputDir()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	if datasetsZip {
		path := filepath.Join(dir, datasetsZipFile)
		if err := writeZip(path, names, files); err != nil {
			return err
		}
		fmt.Printf("%d dataset(s) written to %s\n", len(names), path)
		return nil
	}

	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fmt.Println("wrote", filepath.Join(dir, name))
	}
	return nil
}

// writeZip bundles the CSV files into one archive, entries in sorted
// name order so the archive bytes are stable across runs.
func writeZip(path string, names []string, files map[string][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return fmt.Errorf("archive entry %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			zw.Close()
			return fmt.Errorf("archive entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}
