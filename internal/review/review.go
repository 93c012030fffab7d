package review

import (
	"log/slog"
	"strings"

	"flowmind/internal/logging"
	"flowmind/internal/store"
	"flowmind/internal/textutil"
)

// Kind classifies a requirement for downstream filtering and tracker
// summaries.
type Kind string

const (
	KindFunctional    Kind = "functional"
	KindNonFunctional Kind = "non-functional"
)

// nonFunctionalHints mark requirements about system qualities rather than
// user-facing behaviour.
var nonFunctionalHints = []string{
	"performance", "latency", "throughput", "response time", "rate limit",
	"availability", "uptime", "sla", "mttr", "scalability", "scale",
	"security", "encryption", "compliance", "gdpr", "audit",
	"logging", "monitoring", "observability", "alerting",
	"usability", "accessibility", "reliability", "backup", "recovery",
}

// Reviewer removes near-duplicate requirements and tags each survivor with a
// functional/non-functional kind.
type Reviewer struct {
	threshold float64
	logger    *slog.Logger
}

// New builds a reviewer. threshold is the cosine similarity above which two
// requirements count as duplicates.
func New(threshold float64, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reviewer{threshold: threshold, logger: logger}
}

// Result is the outcome of one review pass. DroppedIDs lists duplicates in
// input order; their sequence numbers are not reassigned.
type Result struct {
	Requirements []store.Requirement
	Kinds        map[string]Kind
	DroppedIDs   []string
}

// Run deduplicates the supplied requirements, keeping the first occurrence of
// each near-duplicate group, and classifies the survivors.
func (r *Reviewer) Run(requirements []store.Requirement) Result {
	result := Result{
		Requirements: make([]store.Requirement, 0, len(requirements)),
		Kinds:        make(map[string]Kind, len(requirements)),
	}
	kept := make([]*textutil.Fingerprint, 0, len(requirements))
	for _, req := range requirements {
		fp := textutil.NewFingerprint(req.Title + " " + req.Description)
		duplicateOf := ""
		for i, existing := range kept {
			if textutil.CosineSimilarity(fp, existing) >= r.threshold {
				duplicateOf = result.Requirements[i].ID
				break
			}
		}
		if duplicateOf != "" {
			r.logger.Info("dropping near-duplicate requirement",
				logging.String("id", req.ID),
				logging.String("kept", duplicateOf))
			result.DroppedIDs = append(result.DroppedIDs, req.ID)
			continue
		}
		kept = append(kept, fp)
		result.Requirements = append(result.Requirements, req)
		result.Kinds[req.ID] = Classify(req)
	}
	return result
}

// Classify tags a requirement as functional or non-functional based on
// quality-attribute vocabulary in its title and description.
func Classify(req store.Requirement) Kind {
	text := strings.ToLower(req.Title + " " + req.Description)
	for _, hint := range nonFunctionalHints {
		if strings.Contains(text, hint) {
			return KindNonFunctional
		}
	}
	return KindFunctional
}
