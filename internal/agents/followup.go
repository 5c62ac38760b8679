package agents

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/ai"
	"github.com/spigell/interview-agent/internal/interview"
)

const (
	noFollowUp = "NONE"

	followUpTemperature        = 0.4
	DefaultSimilarityThreshold = 0.9
)

// FollowUp decides whether the latest answer needs a follow-up question.
type FollowUp struct {
	caller
	threshold float64
}

// NewFollowUp creates the agent. A threshold outside (0, 1] selects
// DefaultSimilarityThreshold.
func NewFollowUp(llm ai.Completer, threshold float64, opts Options) *FollowUp {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &FollowUp{caller: newCaller(llm, AgentFollowUp, opts), threshold: threshold}
}

// NeedsFollowUp asks the model and drops any follow-up that repeats the
// current question or one already in history.
func (f *FollowUp) NeedsFollowUp(ctx context.Context, question, answer string, history []interview.Entry) (bool, string, error) {
	previous := askedQuestions(history)
	if q := strings.TrimSpace(question); q != "" && !slices.Contains(previous, q) {
		previous = append(previous, q)
	}

	prompt := fmt.Sprintf(
		"Main question: %s\nCandidate answer: %s\n\nAll previous questions:\n%s\n\nDecide if a follow-up question is needed.",
		question, answer, bulletList(previous),
	)

	raw, err := f.complete(ctx, ai.Prompt(followUpPrompt, prompt, followUpTemperature))
	if err != nil {
		return false, "", fmt.Errorf("follow-up decision: %w", err)
	}

	candidate := cleanQuestion(raw)
	if isNone(candidate) {
		return false, "", nil
	}

	for _, q := range previous {
		if score := similarity(candidate, q); score >= f.threshold {
			f.logger.Debug("dropping repeated follow-up",
				zap.String("candidate", candidate),
				zap.String("previous", q),
				zap.Float64("similarity", score),
			)
			return false, "", nil
		}
	}

	return true, candidate, nil
}

// isNone accepts a bare NONE, or NONE followed by a line break or
// punctuation. "None of ..." starts a real question.
func isNone(reply string) bool {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return true
	}
	if len(reply) < len(noFollowUp) || !strings.EqualFold(reply[:len(noFollowUp)], noFollowUp) {
		return false
	}

	rest := reply[len(noFollowUp):]
	if rest == "" || rest[0] == '\n' || rest[0] == '\r' {
		return true
	}
	rest = strings.TrimLeft(rest, " \t")
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsPunct(r)
}
