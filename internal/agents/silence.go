package agents

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/ai"
)

const (
	// ReengageFallback is used when the model cannot produce a nudge.
	ReengageFallback = "Are you still there? Take your time. Would you like me to repeat the question?"

	silenceTemperature = 0.7
	repeatPrefix       = "No problem, let me repeat the question so you can answer comfortably:\n"
	unknownQuestion    = "Can you elaborate?"
)

// Silence recognises hesitant answers and re-engages the candidate: a
// friendly nudge first, then the question repeated.
type Silence struct {
	caller
	*Hesitation
}

func NewSilence(llm ai.Completer, hesitation HesitationConfig, opts Options) *Silence {
	return &Silence{
		caller:     newCaller(llm, AgentSilence, opts),
		Hesitation: NewHesitation(hesitation),
	}
}

// IsHesitant logs which rule fired.
func (s *Silence) IsHesitant(answer string) bool {
	rule, hesitant := s.Classify(answer)
	if hesitant {
		s.logger.Debug("hesitant answer", zap.String("rule", rule))
	}
	return hesitant
}

// Reengage never fails. attempt counts hesitant answers to the same question.
func (s *Silence) Reengage(ctx context.Context, question string, attempt int) string {
	if attempt > 1 {
		return RepeatQuestion(question)
	}

	raw, err := s.complete(ctx, ai.Prompt(silencePrompt,
		"The candidate has been silent or unresponsive. Provide a friendly one-line prompt to re-engage them.",
		silenceTemperature,
	))
	if err != nil {
		s.logger.Warn("re-engage prompt failed, using fallback", zap.Error(err))
		return ReengageFallback
	}

	message := strings.Trim(strings.TrimSpace(raw), "\"“”")
	if message == "" {
		return ReengageFallback
	}
	return message
}

// RepeatQuestion wraps question in a supportive repeat.
func RepeatQuestion(question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		question = unknownQuestion
	}
	return repeatPrefix + question
}
