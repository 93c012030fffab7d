package llm_test

import (
	"testing"

	"flowmind/internal/llm"
)

type reqPayload struct {
	Requirements []struct {
		Title string `json:"title"`
	} `json:"requirements"`
}

func TestDecodeJSONDirect(t *testing.T) {
	var out reqPayload
	if err := llm.DecodeJSON(`{"requirements":[{"title":"Checkout totals"}]}`, &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if len(out.Requirements) != 1 || out.Requirements[0].Title != "Checkout totals" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestDecodeJSONStripsCodeFence(t *testing.T) {
	var out reqPayload
	payload := "```json\n{\"requirements\":[{\"title\":\"Fenced\"}]}\n```"
	if err := llm.DecodeJSON(payload, &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if out.Requirements[0].Title != "Fenced" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestDecodeJSONExtractsFromProse(t *testing.T) {
	var out reqPayload
	payload := `Here are the requirements you asked for:

{"requirements":[{"title":"Embedded"}]}

Let me know if you need more.`
	if err := llm.DecodeJSON(payload, &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if out.Requirements[0].Title != "Embedded" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestDecodeJSONBalancedScanSkipsBrokenSpan(t *testing.T) {
	var out []map[string]string
	payload := `{"broken": [{"titl  [{"title":"Recovered"}]`
	if err := llm.DecodeJSON(payload, &out); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if len(out) != 1 || out[0]["title"] != "Recovered" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	var out reqPayload
	if err := llm.DecodeJSON("no json to be found here", &out); err == nil {
		t.Fatal("expected error for prose-only payload")
	}
	if err := llm.DecodeJSON("   ", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestSummarizeSnippetTruncates(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "abcdefghij "
	}
	got := llm.SummarizeSnippet(long)
	if len([]rune(got)) > 170 {
		t.Fatalf("snippet not truncated: %d runes", len([]rune(got)))
	}
	if llm.SummarizeSnippet(" \n ") != "<empty>" {
		t.Fatal("expected <empty> marker")
	}
}
