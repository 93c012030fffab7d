package transcript

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"flowmind/internal/logging"
	"flowmind/internal/store"
)

// smallTalkKeywords flags lines as probable chit-chat or meeting admin.
var smallTalkKeywords = []string{
	"good morning", "good afternoon", "good evening", "hello everyone", "hi everyone",
	"how are you", "how's everyone", "weekend", "coffee", "weather", "lunch", "breakfast",
	"dinner", "holiday", "vacation", "birthday", "congrats", "congratulations",
	"nice to meet you",
	"can you hear me", "i'm on mute", "you are on mute", "let me share my screen",
	"next slide", "previous slide", "quick check", "small talk",
	"the game last night", "did you watch the game", "netflix",
}

// actionHints override the small-talk keywords when both appear in a line.
var actionHints = []string{
	"acceptance criteria", "jira", "story", "epic", "priority", "owner", "deadline", "timeline",
	"bug", "fix", "release", "sprint", "backlog", "mttr", "sla", "uat", "qa", "test", "scenario",
	"deploy", "environment", "api", "endpoint", "rate limit", "error", "logging", "monitoring",
	"security", "authentication", "authorization", "mfa", "otp", "rollback", "risk",
	"given", "when", "then", "gherkin", "requirement", "spec", "specification", "design",
}

// Classifier resolves lines the rule-based filter flagged as small talk.
type Classifier interface {
	IsSmallTalk(ctx context.Context, line string) (bool, error)
}

// Filter drops small-talk lines from a transcript. The rule-based pass is
// conservative; when a classifier is supplied it gets the final say on each
// flagged line. Classifier errors keep the line rather than losing content.
type Filter struct {
	classifier Classifier
	logger     *slog.Logger
}

// NewFilter builds a filter. classifier may be nil for rule-only filtering.
func NewFilter(classifier Classifier, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Filter{classifier: classifier, logger: logger}
}

// Result carries the surviving lines and the reporting stats for one filter
// pass.
type Result struct {
	Kept    []string
	Dropped []string
	Stats   store.FilterStats
}

// Apply filters the supplied lines.
func (f *Filter) Apply(ctx context.Context, lines []string) (Result, error) {
	result := Result{
		Kept:    make([]string, 0, len(lines)),
		Dropped: make([]string, 0),
		Stats:   store.FilterStats{Total: len(lines), UsedClassifier: f.classifier != nil},
	}
	for _, line := range lines {
		drop := RuleBasedSmallTalk(line)
		if drop && f.classifier != nil {
			smallTalk, err := f.classifier.IsSmallTalk(ctx, line)
			if err != nil {
				f.logger.Warn("small-talk classifier failed, keeping line",
					logging.Error(err))
				drop = false
			} else {
				drop = smallTalk
			}
		}
		if drop {
			result.Dropped = append(result.Dropped, line)
			continue
		}
		result.Kept = append(result.Kept, line)
	}
	result.Stats.Kept = len(result.Kept)
	result.Stats.Dropped = len(result.Dropped)
	return result, ctx.Err()
}

// RuleBasedSmallTalk reports whether a line looks like chit-chat: small-talk
// keywords with no action hints, or a very short bare word.
func RuleBasedSmallTalk(line string) bool {
	lower := strings.ToLower(line)
	if containsAny(lower, smallTalkKeywords) && !containsAny(lower, actionHints) {
		return true
	}
	if len([]rune(lower)) < 8 && isAlpha(lower) {
		return true
	}
	return false
}

func containsAny(line string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(line, term) {
			return true
		}
	}
	return false
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
