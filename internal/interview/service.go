package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/logger"
)

const (
	DefaultRole              = "Software Engineer"
	DefaultMaxQuestions      = 5
	DefaultMaxQuestionsLimit = 20
)

// Observer receives service events, typically for metrics.
type Observer interface {
	SessionStarted(role string)
	StepCompleted(outcome Outcome)
	FeedbackGenerated(cached bool, err error)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(string)        {}
func (nopObserver) StepCompleted(Outcome)        {}
func (nopObserver) FeedbackGenerated(bool, error) {}

type ServiceConfig struct {
	DefaultRole         string
	DefaultMaxQuestions int
	MaxQuestionsLimit   int
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if strings.TrimSpace(c.DefaultRole) == "" {
		c.DefaultRole = DefaultRole
	}
	if c.MaxQuestionsLimit <= 0 {
		c.MaxQuestionsLimit = DefaultMaxQuestionsLimit
	}
	if c.DefaultMaxQuestions <= 0 {
		c.DefaultMaxQuestions = DefaultMaxQuestions
	}
	if c.DefaultMaxQuestions > c.MaxQuestionsLimit {
		c.DefaultMaxQuestions = c.MaxQuestionsLimit
	}
	return c
}

type ServiceOption func(*Service)

// WithObserver reports service events to o.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithIDGenerator replaces the random session id source.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Service implements the start, answer and feedback operations on top of a
// Store and the orchestrator.
type Service struct {
	store        Store
	orchestrator *Orchestrator
	interviewer  Interviewer
	feedback     FeedbackGenerator
	cfg          ServiceConfig
	observer     Observer
	logger       *zap.Logger
	newID        func() string
	now          func() time.Time
}

func NewService(store Store, orchestrator *Orchestrator, interviewer Interviewer, feedback FeedbackGenerator, cfg ServiceConfig, log *zap.Logger, opts ...ServiceOption) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		store:        store,
		orchestrator: orchestrator,
		interviewer:  interviewer,
		feedback:     feedback,
		cfg:          cfg.withDefaults(),
		observer:     nopObserver{},
		logger:       log,
		newID:        uuid.NewString,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens a new session. An empty role and a zero maxQuestions select the
// configured defaults.
func (s *Service) Start(ctx context.Context, role string, maxQuestions int) (*Session, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		role = s.cfg.DefaultRole
	}

	if maxQuestions == 0 {
		maxQuestions = s.cfg.DefaultMaxQuestions
	}
	if maxQuestions < 1 || maxQuestions > s.cfg.MaxQuestionsLimit {
		return nil, fmt.Errorf("%w: max_questions must be between 1 and %d", ErrInvalidInput, s.cfg.MaxQuestionsLimit)
	}

	session := NewSession(s.newID(), role, maxQuestions, s.interviewer.OpeningQuestion(role), s.now())
	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.observer.SessionStarted(role)
	logger.WithFields(s.logger, logger.SessionFields(session.ID, role)...).
		Info("interview started", zap.Int("max_questions", maxQuestions))

	return session, nil
}

// Answer feeds the candidate's answer to the orchestrator and persists the
// resulting session unless the step fell back.
func (s *Service) Answer(ctx context.Context, id, answer string) (Reply, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return Reply{}, err
	}

	next, reply := s.orchestrator.Step(ctx, session, answer)
	s.observer.StepCompleted(reply.Outcome)

	switch reply.Outcome {
	case OutcomeFallback, OutcomeAlreadyFinished:
		return reply, nil
	}

	if err := s.store.Save(ctx, next); err != nil {
		return Reply{}, fmt.Errorf("save session: %w", err)
	}

	return reply, nil
}

// Feedback returns the evaluation of a finished session. The report is
// generated once and cached on the session; the transcript is never touched.
func (s *Service) Feedback(ctx context.Context, id string) (*Feedback, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !session.Finished() {
		return nil, fmt.Errorf("%w: interview is not finished yet", ErrInvalidState)
	}

	if session.Feedback != nil {
		s.observer.FeedbackGenerated(true, nil)
		return session.Feedback.Clone(), nil
	}

	log := logger.WithFields(s.logger, logger.SessionFields(session.ID, session.Role)...)

	report, err := s.feedback.Generate(ctx, session.Role, session.Transcript)
	if err != nil {
		s.observer.FeedbackGenerated(false, err)
		log.Warn("feedback generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	session.Feedback = report.Clone()
	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}

	s.observer.FeedbackGenerated(false, nil)
	log.Info("feedback generated")

	return report, nil
}

// Session returns a copy of the stored session.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}
