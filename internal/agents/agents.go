// Package agents implements the interview agents on top of a shared
// ai.Completer: the interviewer, the follow-up agent, the silence handler and
// the feedback agent. Agents keep no state between calls.
package agents

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/ai"
	"github.com/spigell/interview-agent/internal/interview"
	"github.com/spigell/interview-agent/internal/logger"
	"github.com/spigell/interview-agent/internal/utils"
)

const (
	AgentInterviewer = "interviewer"
	AgentFollowUp    = "followup"
	AgentSilence     = "silence"
	AgentFeedback    = "feedback"

	defaultMaxLogLength = 200
	rolePlaceholder     = "{{ROLE}}"
)

var (
	//go:embed prompts/interviewer.md
	interviewerPrompt string
	//go:embed prompts/followup.md
	followUpPrompt string
	//go:embed prompts/feedback.md
	feedbackPrompt string
	//go:embed prompts/silence.md
	silencePrompt string
)

// Options are shared by every agent constructor. A positive Temperature
// replaces the temperature each agent picks for its own requests.
type Options struct {
	Logger       *zap.Logger
	MaxLogLength int
	Temperature  float32
}

// caller issues completions on behalf of one agent and logs previews of the
// prompt and the reply.
type caller struct {
	llm         ai.Completer
	agent       string
	logger      *zap.Logger
	maxLogLen   int
	temperature float32
}

func newCaller(llm ai.Completer, agent string, opts Options) caller {
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return caller{
		llm:         llm,
		agent:       agent,
		logger:      logger.ForAgent(opts.Logger, agent),
		maxLogLen:   maxLogLen,
		temperature: opts.Temperature,
	}
}

func (c caller) complete(ctx context.Context, req ai.Request) (string, error) {
	ctx = ai.WithAgent(ctx, c.agent)
	if c.temperature > 0 {
		req.Temperature = c.temperature
	}

	last := req.Last().Content
	c.logger.Debug("llm request",
		zap.Int("messages", len(req.Messages)),
		zap.Int("prompt_length", utf8.RuneCountInString(last)),
		zap.String("prompt_preview", utils.TruncateForLog(last, c.maxLogLen)),
	)

	raw, err := c.llm.Complete(ctx, req)
	if err != nil {
		c.logger.Debug("llm request failed", zap.Error(err))
		return "", err
	}

	c.logger.Debug("llm response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	return raw, nil
}

func withRole(template, role string) string {
	return strings.ReplaceAll(template, rolePlaceholder, role)
}

// conversation renders the transcript as alternating interviewer and
// candidate turns and closes it with instruction as the final user turn.
func conversation(transcript []interview.Entry, instruction string) []ai.Message {
	messages := make([]ai.Message, 0, len(transcript)*2+1)
	for _, e := range transcript {
		messages = append(messages,
			ai.Message{Role: ai.RoleAssistant, Content: e.Question},
			ai.Message{Role: ai.RoleUser, Content: answerText(e)},
		)
	}

	if n := len(messages); n > 0 && messages[n-1].Role == ai.RoleUser {
		messages[n-1].Content += "\n\n" + instruction
		return messages
	}
	return append(messages, ai.Message{Role: ai.RoleUser, Content: instruction})
}

func answerText(e interview.Entry) string {
	answer := strings.TrimSpace(e.Answer)
	if answer == "" {
		answer = "(no answer)"
	}
	if e.Hesitant {
		answer += " (hesitated)"
	}
	return answer
}

// cleanQuestion strips the wrapping a model sometimes puts around a question.
func cleanQuestion(raw string) string {
	const quotes = "\"'`“”"

	q := strings.Trim(strings.TrimSpace(raw), quotes)
	for _, prefix := range []string{"Question:", "Follow-up question:", "Follow-up:"} {
		if len(q) >= len(prefix) && strings.EqualFold(q[:len(prefix)], prefix) {
			q = strings.TrimSpace(q[len(prefix):])
		}
	}
	return strings.TrimSpace(strings.Trim(q, quotes))
}
