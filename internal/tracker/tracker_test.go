package tracker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flowmind/internal/config"
	"flowmind/internal/store"
	"flowmind/internal/testsupport"
	"flowmind/internal/tracker"
)

func newTestClient(t *testing.T, handler http.Handler, mutate func(*config.Tracker)) *tracker.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := config.Tracker{
		Enabled:    true,
		URL:        server.URL,
		Email:      "bot@example.com",
		APIToken:   "token",
		ProjectKey: "SCRUM",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return tracker.NewClient(cfg, nil)
}

func TestUpsertIssueUpdatesKnownKey(t *testing.T) {
	var putPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		putPath = r.URL.Path
		if user, pass, ok := r.BasicAuth(); !ok || user != "bot@example.com" || pass != "token" {
			t.Errorf("missing basic auth: %q %q", user, pass)
		}
		var payload struct {
			Fields struct {
				Labels  []string          `json:"labels"`
				Project map[string]string `json:"project"`
			} `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if len(payload.Fields.Labels) != 2 || payload.Fields.Labels[1] != "genai-sync" {
			t.Errorf("unexpected labels: %v", payload.Fields.Labels)
		}
		if payload.Fields.Project != nil {
			t.Errorf("update payload must not carry project: %v", payload.Fields.Project)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, handler, nil)

	key, created, err := client.UpsertIssue(context.Background(), tracker.UpsertRequest{
		Label:       "req-req-001",
		Summary:     "[REQ-001] MFA",
		Description: tracker.Doc(tracker.Paragraph("body")),
		IssueType:   "Story",
		ExistingKey: "SCRUM-9",
	})
	if err != nil {
		t.Fatalf("UpsertIssue failed: %v", err)
	}
	if created || key != "SCRUM-9" {
		t.Fatalf("expected in-place update of SCRUM-9, got key=%q created=%v", key, created)
	}
	if putPath != "/rest/api/3/issue/SCRUM-9" {
		t.Fatalf("unexpected update path %q", putPath)
	}
}

func TestUpsertIssueSearchThenUpdate(t *testing.T) {
	var paths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch {
		case r.URL.Path == "/rest/api/3/search":
			var payload struct {
				JQL string `json:"jql"`
			}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			if !strings.Contains(payload.JQL, `labels = "req-req-001"`) {
				t.Errorf("unexpected jql %q", payload.JQL)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"issues": []map[string]string{{"key": "SCRUM-4"}},
			})
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	client := newTestClient(t, handler, nil)

	key, created, err := client.UpsertIssue(context.Background(), tracker.UpsertRequest{
		Label:       "req-req-001",
		Summary:     "[REQ-001] MFA",
		Description: tracker.Doc(),
		IssueType:   "Story",
	})
	if err != nil {
		t.Fatalf("UpsertIssue failed: %v", err)
	}
	if created || key != "SCRUM-4" {
		t.Fatalf("expected update of searched key, got key=%q created=%v", key, created)
	}
	if len(paths) != 2 || paths[1] != "PUT /rest/api/3/issue/SCRUM-4" {
		t.Fatalf("unexpected call sequence %v", paths)
	}
}

func TestUpsertIssueCreatesWhenSearchSkipped(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rest/api/3/search" {
			t.Error("search must be skipped")
		}
		if r.Method != http.MethodPost || r.URL.Path != "/rest/api/3/issue" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Fields struct {
				Project map[string]string `json:"project"`
			} `json:"fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Fields.Project["key"] != "SCRUM" {
			t.Errorf("create payload must carry project, got %v", payload.Fields.Project)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"key": "SCRUM-100"})
	})
	client := newTestClient(t, handler, func(cfg *config.Tracker) { cfg.SkipSearch = true })

	key, created, err := client.UpsertIssue(context.Background(), tracker.UpsertRequest{
		Label:       "tc-req-001-positive",
		Summary:     "[TC::REQ-001::positive] Positive for REQ-001",
		Description: tracker.Doc(),
		IssueType:   "Task",
	})
	if err != nil {
		t.Fatalf("UpsertIssue failed: %v", err)
	}
	if !created || key != "SCRUM-100" {
		t.Fatalf("expected creation, got key=%q created=%v", key, created)
	}
}

func TestUpsertIssueStaleKeyFallsBackToCreate(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut:
			http.Error(w, "issue does not exist", http.StatusNotFound)
		case r.URL.Path == "/rest/api/3/search":
			_ = json.NewEncoder(w).Encode(map[string]any{"issues": []any{}})
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"key": "SCRUM-101"})
		}
	})
	client := newTestClient(t, handler, nil)

	key, created, err := client.UpsertIssue(context.Background(), tracker.UpsertRequest{
		Label:       "req-req-001",
		Summary:     "[REQ-001] MFA",
		Description: tracker.Doc(),
		IssueType:   "Story",
		ExistingKey: "SCRUM-9",
	})
	if err != nil {
		t.Fatalf("UpsertIssue failed: %v", err)
	}
	if !created || key != "SCRUM-101" {
		t.Fatalf("expected create after stale key, got key=%q created=%v", key, created)
	}
}

func TestLinkIssues(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issueLink" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload struct {
			Type    map[string]string `json:"type"`
			Inward  map[string]string `json:"inwardIssue"`
			Outward map[string]string `json:"outwardIssue"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Type["name"] != "Relates" || payload.Inward["key"] != "SCRUM-2" || payload.Outward["key"] != "SCRUM-1" {
			t.Errorf("unexpected link payload %+v", payload)
		}
		w.WriteHeader(http.StatusCreated)
	})
	client := newTestClient(t, handler, nil)

	if err := client.LinkIssues(context.Background(), "SCRUM-2", "SCRUM-1"); err != nil {
		t.Fatalf("LinkIssues failed: %v", err)
	}
}

func TestLabelsAndSummaries(t *testing.T) {
	if got := tracker.RequirementLabel("REQ-001"); got != "req-req-001" {
		t.Fatalf("RequirementLabel = %q", got)
	}
	if got := tracker.TestCaseLabel("REQ-001", store.ScenarioRegression); got != "tc-req-001-regression" {
		t.Fatalf("TestCaseLabel = %q", got)
	}

	req := testsupport.SampleRequirement(1)
	if got := tracker.StorySummary(req); got != "[REQ-001] Requirement 1" {
		t.Fatalf("StorySummary = %q", got)
	}
	tc := testsupport.SampleTestCases(req.ID)[0]
	if got := tracker.TaskSummary(tc); got != "[TC::REQ-001::positive] Positive for REQ-001" {
		t.Fatalf("TaskSummary = %q", got)
	}
}

func TestStoryDescriptionShape(t *testing.T) {
	req := testsupport.SampleRequirement(1)
	doc := tracker.StoryDescription(req)
	if doc.Type != "doc" || doc.Version != 1 {
		t.Fatalf("unexpected document envelope: %+v", doc)
	}
	var texts []string
	for _, node := range doc.Content {
		for _, child := range node.Content {
			texts = append(texts, child.Text)
		}
	}
	joined := strings.Join(texts, "\n")
	if !strings.Contains(joined, "ID: REQ-001") || !strings.Contains(joined, "Acceptance Criteria") {
		t.Fatalf("story body missing sections:\n%s", joined)
	}
}
