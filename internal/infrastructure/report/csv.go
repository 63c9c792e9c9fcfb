// Package report writes per-run provisioning reports for operators.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/erp/egnyte-provisioner/internal/application/provisioning"
)

var header = []string{"run_id", "project_id", "folder_path", "template", "outcome", "error"}

// Write renders a run summary as CSV rows, one per project result,
// preceded by a header row.
func Write(w io.Writer, summary provisioning.Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	runID := summary.RunID.String()
	for _, res := range summary.Results {
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		row := []string{runID, res.ProjectID, res.FolderPath, res.Template, string(res.Outcome), errMsg}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing report row for %s: %w", res.ProjectID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the run report to dir, named after the run's start time
// and ID, and returns the file path.
func WriteFile(dir string, summary provisioning.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	name := fmt.Sprintf("provision-%s-%s.csv",
		summary.StartedAt.Format("20060102-150405"), summary.RunID.String())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := Write(f, summary); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing report file: %w", err)
	}
	return path, nil
}
