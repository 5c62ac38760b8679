package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/interview-agent/internal/ai"
	"github.com/spigell/interview-agent/internal/interview"
)

const (
	feedbackTemperature = 0.3

	minScore = 0
	maxScore = 10
)

// ErrMalformedFeedback is returned when the model reply is not JSON or lacks
// one of the three scores.
var ErrMalformedFeedback = errors.New("malformed feedback response")

var scoreAliases = map[string]string{
	"communication":               "communication",
	"technical":                   "technical",
	"technical_knowledge":         "technical",
	"role_knowledge":              "technical",
	"technical_role_knowledge":    "technical",
	"technical_or_role_knowledge": "technical",
	"confidence":                  "confidence",
}

var keyReplacer = strings.NewReplacer(" ", "_", "-", "_", "/", "_")

type Feedback struct {
	caller
}

func NewFeedback(llm ai.Completer, opts Options) *Feedback {
	return &Feedback{caller: newCaller(llm, AgentFeedback, opts)}
}

// Generate evaluates the transcript. Upstream and parse failures are returned
// as errors; no report is ever made up.
func (f *Feedback) Generate(ctx context.Context, role string, transcript []interview.Entry) (*interview.Feedback, error) {
	raw, err := f.complete(ctx, ai.Prompt(withRole(feedbackPrompt, role), feedbackInput(role, transcript), feedbackTemperature))
	if err != nil {
		return nil, fmt.Errorf("generate feedback: %w", err)
	}

	report, err := parseFeedback(raw)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func feedbackInput(role string, transcript []interview.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s\n\nHere are the questions and answers:\n\n", role)
	for i, e := range transcript {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, e.Question, i+1, answerText(e))
	}
	b.WriteString("Now provide the feedback as a JSON object.")
	return b.String()
}

type feedbackPayload struct {
	Summary string `mapstructure:"summary"`
	Scores  struct {
		Communication *int `mapstructure:"communication"`
		Technical     *int `mapstructure:"technical"`
		Confidence    *int `mapstructure:"confidence"`
	} `mapstructure:"scores"`
}

func parseFeedback(raw string) (*interview.Feedback, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeedback, err)
	}

	data = lowerKeys(data)
	if scores, ok := data["scores"].(map[string]any); ok {
		data["scores"] = normalizeScores(scores)
	} else if scores, ok := data["ratings"].(map[string]any); ok {
		data["scores"] = normalizeScores(scores)
	}

	var payload feedbackPayload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(scoreHook),
		WeaklyTypedInput: true,
		Result:           &payload,
	})
	if err != nil {
		return nil, fmt.Errorf("create feedback decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any{
		"summary": coerceString(data["summary"]),
		"scores":  data["scores"],
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeedback, err)
	}

	s := payload.Scores
	if missing := missingScores(s.Communication, s.Technical, s.Confidence); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing scores %s", ErrMalformedFeedback, strings.Join(missing, ", "))
	}

	return &interview.Feedback{
		Summary:      strings.TrimSpace(payload.Summary),
		Strengths:    coerceList(data["strengths"]),
		Improvements: coerceList(firstOf(data, "improvements", "areas_to_improve")),
		Tips:         coerceList(firstOf(data, "tips", "suggestions")),
		Scores: interview.Scores{
			Communication: *s.Communication,
			Technical:     *s.Technical,
			Confidence:    *s.Confidence,
		},
	}, nil
}

// scoreHook accepts "7", "7/10", "7.5" and 7.6 for integer targets and
// clamps them to [minScore, maxScore].
func scoreHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}

	switch from.Kind() {
	case reflect.Float64:
		return clampScore(data.(float64)), nil
	case reflect.Int, reflect.Int64:
		return clampScore(float64(reflect.ValueOf(data).Int())), nil
	case reflect.String:
		f, ok := parseScore(data.(string))
		if !ok {
			return nil, fmt.Errorf("invalid score %q", data)
		}
		return clampScore(f), nil
	default:
		return data, nil
	}
}

func normalizeScores(scores map[string]any) map[string]any {
	out := make(map[string]any, len(scores))
	for key, value := range scores {
		canonical, ok := scoreAliases[key]
		if !ok {
			continue
		}
		if text, isText := value.(string); isText {
			if _, valid := parseScore(text); !valid {
				continue
			}
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = value
		}
	}
	return out
}

func parseScore(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "/"); idx != -1 {
		text = strings.TrimSpace(text[:idx])
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func lowerKeys(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		key = strings.ToLower(strings.TrimSpace(key))
		key = keyReplacer.Replace(key)
		for strings.Contains(key, "__") {
			key = strings.ReplaceAll(key, "__", "_")
		}
		if nested, ok := value.(map[string]any); ok {
			value = lowerKeys(nested)
		}
		out[key] = value
	}
	return out
}

func firstOf(data map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := data[key]; ok {
			return v
		}
	}
	return nil
}

// clampScore bounds f before converting, so huge values stay at maxScore.
func clampScore(f float64) int {
	return int(math.Round(min(max(f, minScore), maxScore)))
}

func missingScores(communication, technical, confidence *int) []string {
	var missing []string
	if communication == nil {
		missing = append(missing, "communication")
	}
	if technical == nil {
		missing = append(missing, "technical")
	}
	if confidence == nil {
		missing = append(missing, "confidence")
	}
	return missing
}
