package textutil_test

import (
	"testing"

	"flowmind/internal/textutil"
)

func TestCosineSimilarityIdenticalText(t *testing.T) {
	a := textutil.NewFingerprint("users must reset passwords every ninety days")
	b := textutil.NewFingerprint("users must reset passwords every ninety days")
	if sim := textutil.CosineSimilarity(a, b); sim < 0.999 {
		t.Fatalf("expected similarity ~1, got %f", sim)
	}
}

func TestCosineSimilarityDisjointText(t *testing.T) {
	a := textutil.NewFingerprint("checkout totals calculation")
	b := textutil.NewFingerprint("password reset emails")
	if sim := textutil.CosineSimilarity(a, b); sim != 0 {
		t.Fatalf("expected 0 for disjoint text, got %f", sim)
	}
}

func TestCosineSimilarityNilSafe(t *testing.T) {
	if sim := textutil.CosineSimilarity(nil, textutil.NewFingerprint("anything here")); sim != 0 {
		t.Fatalf("expected 0 for nil fingerprint, got %f", sim)
	}
	if fp := textutil.NewFingerprint("a b"); fp != nil {
		t.Fatalf("expected nil fingerprint for short-only tokens, got %d tokens", fp.TokenCount())
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"REQ-001":            "req-001",
		"  Regression Run  ": "regression-run",
		"!!!":                "na",
		"A__b--C":            "a-b-c",
	}
	for input, want := range cases {
		if got := textutil.Slug(input); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSlugCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "abcdefgh "
	}
	if got := textutil.Slug(long); len(got) > 60 {
		t.Fatalf("slug too long: %d chars", len(got))
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := textutil.CollapseWhitespace("  Given   a\tthing  "); got != "Given a thing" {
		t.Fatalf("unexpected collapse result %q", got)
	}
}
