package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/interview-agent/internal/ai"
	"github.com/spigell/interview-agent/internal/interview"
)

// IntroQuestion opens every interview regardless of role.
const IntroQuestion = "Can you introduce yourself?"

const interviewerTemperature = 0.7

type Interviewer struct {
	caller
}

func NewInterviewer(llm ai.Completer, opts Options) *Interviewer {
	return &Interviewer{caller: newCaller(llm, AgentInterviewer, opts)}
}

// OpeningQuestion never calls the model.
func (i *Interviewer) OpeningQuestion(string) string {
	return IntroQuestion
}

// NextQuestion asks the model for the next main question given the whole
// conversation so far.
func (i *Interviewer) NextQuestion(ctx context.Context, role string, transcript []interview.Entry) (string, error) {
	instruction := fmt.Sprintf("Ask your next interview question for the %s role.", role)
	if asked := askedQuestions(transcript); len(asked) > 0 {
		instruction += " Do not repeat or paraphrase any of these questions:\n" + bulletList(asked)
	}

	raw, err := i.complete(ctx, ai.Request{
		System:      withRole(interviewerPrompt, role),
		Messages:    conversation(transcript, instruction),
		Temperature: interviewerTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("next question: %w", err)
	}

	question := cleanQuestion(raw)
	if question == "" {
		return "", errors.New("next question: model returned no question")
	}
	return question, nil
}

func askedQuestions(transcript []interview.Entry) []string {
	seen := make(map[string]struct{}, len(transcript))
	out := make([]string, 0, len(transcript))
	for _, e := range transcript {
		q := strings.TrimSpace(e.Question)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
