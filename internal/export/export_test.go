package export_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"flowmind/internal/export"
	"flowmind/internal/store"
	"flowmind/internal/testsupport"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriteProducesTimestampedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	req := testsupport.SampleRequirement(1)
	cases := testsupport.SampleTestCases(req.ID)
	if err := st.Save(ctx, []store.Requirement{req}, cases, store.FilterStats{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := st.Approve(ctx, req.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	outputDir := filepath.Join(t.TempDir(), "output")
	now := time.Date(2025, 10, 6, 20, 30, 0, 0, time.UTC)
	result, err := export.Write(ctx, st, outputDir, now)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Base(result.RequirementsPath) != "requirements_20251006_2030.csv" {
		t.Fatalf("unexpected requirements file name %q", result.RequirementsPath)
	}
	if filepath.Base(result.TestCasesPath) != "test_cases_20251006_2030.csv" {
		t.Fatalf("unexpected test cases file name %q", result.TestCasesPath)
	}
	if result.Requirements != 1 || result.TestCases != 3 {
		t.Fatalf("unexpected counts %+v", result)
	}

	reqRows := readCSV(t, result.RequirementsPath)
	if diff := cmp.Diff([]string{
		"IssueKey", "Summary", "Description", "IssueType", "Priority",
		"EpicLink", "Status", "AcceptanceCriteria",
	}, reqRows[0]); diff != "" {
		t.Fatalf("requirements header mismatch (-want +got):\n%s", diff)
	}
	if len(reqRows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(reqRows))
	}
	row := reqRows[1]
	if row[0] != "REQ-001" || row[3] != "Story" || row[6] != "Approved" {
		t.Fatalf("unexpected requirement row %v", row)
	}

	tcRows := readCSV(t, result.TestCasesPath)
	if diff := cmp.Diff([]string{
		"IssueKey", "LinkedRequirement", "ScenarioType", "Summary", "Gherkin", "Tags",
	}, tcRows[0]); diff != "" {
		t.Fatalf("test cases header mismatch (-want +got):\n%s", diff)
	}
	if len(tcRows) != 4 {
		t.Fatalf("expected header plus three rows, got %d", len(tcRows))
	}
	if tcRows[1][0] != "TC-REQ-001-positive" || tcRows[1][1] != "REQ-001" {
		t.Fatalf("unexpected test case row %v", tcRows[1])
	}
}

func TestWriteEmptyStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	outputDir := filepath.Join(t.TempDir(), "output")
	result, err := export.Write(context.Background(), st, outputDir, time.Now())
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if rows := readCSV(t, result.RequirementsPath); len(rows) != 1 {
		t.Fatalf("empty store must still write the header, got %v", rows)
	}
}
