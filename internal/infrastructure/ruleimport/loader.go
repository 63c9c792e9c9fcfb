// Package ruleimport loads the template decision table from its guide
// file: a CSV with ConditionSet and TemplateName columns.
package ruleimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/erp/egnyte-provisioner/internal/domain/template"
)

// Load reads the rule table from a CSV file and builds the immutable
// template table. A table without the catch-all fallback row fails here,
// at startup, rather than mid-run.
func Load(path string) (*template.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ruleimport: failed to open rule table: %w", err)
	}
	defer f.Close()

	table, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("ruleimport: %s: %w", path, err)
	}
	return table, nil
}

// LoadReader reads the rule table from a reader.
func LoadReader(r io.Reader) (*template.Table, error) {
	buf := bufio.NewReader(r)

	// Detect and strip a UTF-8 BOM; the guide file is exported from a
	// spreadsheet and usually carries one.
	if head, err := buf.Peek(3); err == nil && len(head) == 3 &&
		head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	reader := csv.NewReader(buf)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	conditionCol, templateCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "conditionset":
			conditionCol = i
		case "templatename":
			templateCol = i
		}
	}
	if conditionCol < 0 || templateCol < 0 {
		return nil, fmt.Errorf("header must contain ConditionSet and TemplateName columns, got %v", header)
	}

	var rules []template.Rule
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if conditionCol >= len(record) || templateCol >= len(record) {
			continue
		}

		conditionSet := strings.TrimSpace(record[conditionCol])
		templateName := strings.TrimSpace(record[templateCol])
		if conditionSet == "" {
			continue
		}

		rules = append(rules, template.Rule{
			ConditionSet: conditionSet,
			TemplateName: templateName,
		})
	}

	return template.NewTable(rules)
}
