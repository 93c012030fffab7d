package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flowmind/internal/services"
	"flowmind/internal/store"
)

var requirementHeader = []string{
	"IssueKey", "Summary", "Description", "IssueType", "Priority",
	"EpicLink", "Status", "AcceptanceCriteria",
}

var testCaseHeader = []string{
	"IssueKey", "LinkedRequirement", "ScenarioType", "Summary", "Gherkin", "Tags",
}

var statusCaser = cases.Title(language.English)

// Result names the files one export run produced.
type Result struct {
	RequirementsPath string
	TestCasesPath    string
	Requirements     int
	TestCases        int
}

// Write dumps all requirements and test cases from the store into two
// timestamped CSV files under outputDir, creating the directory if needed.
func Write(ctx context.Context, st *store.Store, outputDir string, now time.Time) (Result, error) {
	var result Result
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrPersistence, "export", "mkdir", outputDir, err)
	}
	stamp := now.Format("20060102_1504")
	result.RequirementsPath = filepath.Join(outputDir, fmt.Sprintf("requirements_%s.csv", stamp))
	result.TestCasesPath = filepath.Join(outputDir, fmt.Sprintf("test_cases_%s.csv", stamp))

	requirements, err := st.LoadAll(ctx)
	if err != nil {
		return result, err
	}
	testCases, err := st.AllTestCases(ctx)
	if err != nil {
		return result, err
	}
	result.Requirements = len(requirements)
	result.TestCases = len(testCases)

	if err := writeCSV(result.RequirementsPath, requirementHeader, requirementRows(requirements)); err != nil {
		return result, err
	}
	if err := writeCSV(result.TestCasesPath, testCaseHeader, testCaseRows(testCases)); err != nil {
		return result, err
	}
	return result, nil
}

func requirementRows(requirements []store.Requirement) [][]string {
	rows := make([][]string, 0, len(requirements))
	for _, req := range requirements {
		rows = append(rows, []string{
			req.ID,
			req.Title,
			req.Description,
			"Story",
			req.Priority,
			req.Epic,
			statusCaser.String(string(req.Status)),
			strings.Join(req.AcceptanceCriteria, "\n"),
		})
	}
	return rows
}

func testCaseRows(testCases []store.TestCase) [][]string {
	rows := make([][]string, 0, len(testCases))
	for _, tc := range testCases {
		rows = append(rows, []string{
			tc.ID,
			tc.RequirementID,
			string(tc.ScenarioType),
			tc.Title,
			tc.Gherkin,
			strings.Join(tc.Tags, ","),
		})
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrPersistence, "export", "create", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return services.Wrap(services.ErrPersistence, "export", "write header", path, err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return services.Wrap(services.ErrPersistence, "export", "write row", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return services.Wrap(services.ErrPersistence, "export", "flush", path, err)
	}
	return file.Close()
}
