package interview

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/logger"
)

const (
	// ClosingMessage is returned once the last question has been answered.
	ClosingMessage = "Thank you, that concludes the interview. You can now request your feedback."
	// FallbackMessage is returned when the step could not be completed.
	FallbackMessage = "Sorry, something went wrong on my side. Could you please give that answer again?"

	DefaultMaxFollowUps = 2
)

// Outcome names the decision a step took.
type Outcome string

const (
	OutcomeHesitation      Outcome = "hesitation"
	OutcomeFollowUp        Outcome = "follow_up"
	OutcomeNextQuestion    Outcome = "next_question"
	OutcomeFinished        Outcome = "finished"
	OutcomeAlreadyFinished Outcome = "already_finished"
	OutcomeFallback        Outcome = "fallback"
)

// Reply is what the candidate hears after an answer.
type Reply struct {
	Message  string
	Finished bool
	Outcome  Outcome
}

// Interviewer asks the opening and main questions.
type Interviewer interface {
	OpeningQuestion(role string) string
	NextQuestion(ctx context.Context, role string, transcript []Entry) (string, error)
}

// FollowUpper decides whether the latest answer deserves a follow-up.
type FollowUpper interface {
	NeedsFollowUp(ctx context.Context, question, answer string, history []Entry) (bool, string, error)
}

// SilenceHandler recognises hesitant answers and re-engages the candidate.
type SilenceHandler interface {
	IsHesitant(answer string) bool
	Reengage(ctx context.Context, question string, attempt int) string
}

// FeedbackGenerator evaluates a finished interview.
type FeedbackGenerator interface {
	Generate(ctx context.Context, role string, transcript []Entry) (*Feedback, error)
}

// Orchestrator is the single decision point of an interview.
type Orchestrator struct {
	interviewer  Interviewer
	followUps    FollowUpper
	silence      SilenceHandler
	maxFollowUps int
	logger       *zap.Logger
	now          func() time.Time
}

// NewOrchestrator wires the agents together. A negative maxFollowUps
// selects DefaultMaxFollowUps; zero disables follow-ups.
func NewOrchestrator(interviewer Interviewer, followUps FollowUpper, silence SilenceHandler, maxFollowUps int, log *zap.Logger) *Orchestrator {
	if maxFollowUps < 0 {
		maxFollowUps = DefaultMaxFollowUps
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Orchestrator{
		interviewer:  interviewer,
		followUps:    followUps,
		silence:      silence,
		maxFollowUps: maxFollowUps,
		logger:       log,
		now:          time.Now,
	}
}

// Step applies one candidate answer to session. The returned session is a new
// value; session itself is never modified. On failure the original session is
// returned together with a fallback reply.
func (o *Orchestrator) Step(ctx context.Context, session *Session, answer string) (*Session, Reply) {
	log := logger.WithFields(o.logger, logger.SessionFields(session.ID, session.Role)...)

	if session.Finished() {
		return session, Reply{Message: ClosingMessage, Finished: true, Outcome: OutcomeAlreadyFinished}
	}

	next := session.Clone()
	now := o.now()
	next.UpdatedAt = now

	if o.silence.IsHesitant(answer) {
		next.append(answer, true)
		next.Hesitations++

		log.Debug("hesitant answer", zap.Int("hesitations", next.Hesitations))

		message := o.silence.Reengage(ctx, next.CurrentQuestion, next.Hesitations)
		return next, Reply{Message: message, Outcome: OutcomeHesitation}
	}

	next.append(answer, false)

	if next.FollowUps < o.maxFollowUps {
		needed, question, err := o.followUps.NeedsFollowUp(ctx, next.CurrentQuestion, answer, session.Transcript)
		if err != nil {
			log.Warn("follow-up decision failed", zap.Error(err))
			return session, fallback()
		}

		if needed {
			next.FollowUps++
			next.State = StateAskingFollowUp
			next.ask(question, KindFollowUp, now)

			log.Debug("asking follow-up", zap.Int("follow_ups", next.FollowUps))
			return next, Reply{Message: question, Outcome: OutcomeFollowUp}
		}
	}

	next.QuestionCount++
	if next.QuestionCount >= next.MaxQuestions {
		next.State = StateFinished
		next.CurrentQuestion = ""
		next.CurrentKind = ""
		next.FollowUps = 0
		next.Hesitations = 0

		log.Info("interview finished", zap.Int("question_count", next.QuestionCount))
		return next, Reply{Message: ClosingMessage, Finished: true, Outcome: OutcomeFinished}
	}

	question, err := o.interviewer.NextQuestion(ctx, next.Role, next.Transcript)
	if err != nil {
		log.Warn("next question failed", zap.Error(err))
		return session, fallback()
	}

	next.State = StateAskingNext
	next.FollowUps = 0
	next.ask(question, KindMain, now)

	log.Debug("asking next question", zap.Int("question_count", next.QuestionCount))
	return next, Reply{Message: question, Outcome: OutcomeNextQuestion}
}

func fallback() Reply {
	return Reply{Message: FallbackMessage, Outcome: OutcomeFallback}
}
