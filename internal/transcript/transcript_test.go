package transcript_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"flowmind/internal/services"
	"flowmind/internal/transcript"
)

const sampleVTT = `WEBVTT

1
00:00:01.000 --> 00:00:04.000
Alice: We need multi-factor authentication on the login endpoint.

2
00:00:04.500 --> 00:00:08.000
<v Bob>The acceptance criteria should cover the OTP retry limit.</v>

NOTE internal marker

3
00:00:08.500 --> 00:00:10.000
Good morning everyone, how was the weekend?
`

func TestReadLinesStripsMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.vtt")
	if err := os.WriteFile(path, []byte(sampleVTT), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	lines, err := transcript.ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	want := []string{
		"We need multi-factor authentication on the login endpoint.",
		"The acceptance criteria should cover the OTP retry limit.",
		"Good morning everyone, how was the weekend?",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("unexpected lines (-want +got):\n%s", diff)
	}
}

func TestReadLinesEmptyTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.vtt")
	if err := os.WriteFile(path, []byte("WEBVTT\n\n1\n00:00:01.000 --> 00:00:02.000\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := transcript.ReadLines(path)
	if !errors.Is(err, services.ErrEmptyTranscript) {
		t.Fatalf("expected empty transcript marker, got %v", err)
	}
}

func TestRuleBasedSmallTalk(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Good morning everyone, how was the weekend?", true},
		{"We should track the sprint backlog in Jira.", false},
		{"Good morning, let's review the acceptance criteria.", false},
		{"Thanks", true},
		{"The API rate limit must be 100 requests per minute.", false},
	}
	for _, tc := range tests {
		if got := transcript.RuleBasedSmallTalk(tc.line); got != tc.want {
			t.Errorf("RuleBasedSmallTalk(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

type stubClassifier struct {
	smallTalk map[string]bool
	err       error
	calls     []string
}

func (s *stubClassifier) IsSmallTalk(_ context.Context, line string) (bool, error) {
	s.calls = append(s.calls, line)
	if s.err != nil {
		return false, s.err
	}
	return s.smallTalk[line], nil
}

func TestFilterRuleOnly(t *testing.T) {
	filter := transcript.NewFilter(nil, nil)
	lines := []string{
		"Good morning everyone, how was the weekend?",
		"The login flow needs MFA with an OTP fallback.",
	}

	result, err := filter.Apply(context.Background(), lines)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Kept) != 1 || len(result.Dropped) != 1 {
		t.Fatalf("unexpected split: kept=%v dropped=%v", result.Kept, result.Dropped)
	}
	if result.Stats.Total != 2 || result.Stats.Kept != 1 || result.Stats.Dropped != 1 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}
	if result.Stats.UsedClassifier {
		t.Fatal("rule-only filter must not report classifier use")
	}
}

func TestFilterClassifierOverridesRule(t *testing.T) {
	borderline := "Quick check before we start the review."
	classifier := &stubClassifier{smallTalk: map[string]bool{}}
	filter := transcript.NewFilter(classifier, nil)

	result, err := filter.Apply(context.Background(), []string{borderline})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(classifier.calls) != 1 {
		t.Fatalf("expected one classifier call, got %d", len(classifier.calls))
	}
	if len(result.Kept) != 1 {
		t.Fatalf("classifier said business, line must be kept: %+v", result)
	}
	if !result.Stats.UsedClassifier {
		t.Fatal("expected classifier use in stats")
	}
}

func TestFilterClassifierErrorKeepsLine(t *testing.T) {
	borderline := "Quick check before lunch."
	classifier := &stubClassifier{err: errors.New("rate limited")}
	filter := transcript.NewFilter(classifier, nil)

	result, err := filter.Apply(context.Background(), []string{borderline})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Kept) != 1 {
		t.Fatalf("classifier failure must keep the line, got %+v", result)
	}
}
