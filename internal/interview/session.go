// Package interview holds the interview session model, the orchestration step
// that drives it and the service behind the start, answer and feedback
// operations.
package interview

import (
	"slices"
	"strings"
	"time"
)

type State string

const (
	StateAwaitingIntro  State = "awaiting_intro"
	StateAskingFollowUp State = "asking_followup"
	StateAskingNext     State = "asking_next"
	StateFinished       State = "finished"
)

// Kind tells what kind of question an entry answers.
type Kind string

const (
	KindIntro    Kind = "intro"
	KindMain     Kind = "main"
	KindFollowUp Kind = "follow_up"
)

// Entry is one question with the answer the candidate gave to it.
type Entry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Kind     Kind      `json:"kind"`
	Hesitant bool      `json:"hesitant,omitempty"`
	AskedAt  time.Time `json:"asked_at"`
}

type Scores struct {
	Communication int `json:"communication"`
	Technical     int `json:"technical"`
	Confidence    int `json:"confidence"`
}

// Feedback is the structured evaluation produced once the interview is over.
type Feedback struct {
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Tips         []string `json:"tips"`
	Scores       Scores   `json:"scores"`
}

func (f *Feedback) Clone() *Feedback {
	if f == nil {
		return nil
	}
	out := *f
	out.Strengths = slices.Clone(f.Strengths)
	out.Improvements = slices.Clone(f.Improvements)
	out.Tips = slices.Clone(f.Tips)
	return &out
}

// Session is the full state of one interview.
type Session struct {
	ID              string    `json:"id"`
	Role            string    `json:"role"`
	MaxQuestions    int       `json:"max_questions"`
	QuestionCount   int       `json:"question_count"`
	Transcript      []Entry   `json:"transcript"`
	State           State     `json:"state"`
	CurrentQuestion string    `json:"current_question"`
	CurrentKind     Kind      `json:"current_kind"`
	CurrentAskedAt  time.Time `json:"current_asked_at"`
	FollowUps       int       `json:"follow_ups"`
	Hesitations     int       `json:"hesitations"`
	Feedback        *Feedback `json:"feedback,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSession creates a session waiting for the answer to the opening question.
func NewSession(id, role string, maxQuestions int, opening string, now time.Time) *Session {
	return &Session{
		ID:              id,
		Role:            role,
		MaxQuestions:    maxQuestions,
		State:           StateAwaitingIntro,
		CurrentQuestion: opening,
		CurrentKind:     KindIntro,
		CurrentAskedAt:  now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy that shares nothing with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Transcript = slices.Clone(s.Transcript)
	out.Feedback = s.Feedback.Clone()
	return &out
}

func (s *Session) Finished() bool {
	return s.State == StateFinished
}

// Questions lists every distinct question asked so far, oldest first,
// including the one currently awaiting an answer.
func (s *Session) Questions() []string {
	seen := make(map[string]struct{}, len(s.Transcript)+1)
	out := make([]string, 0, len(s.Transcript)+1)

	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	for _, e := range s.Transcript {
		add(e.Question)
	}
	if !s.Finished() {
		add(s.CurrentQuestion)
	}
	return out
}

func (s *Session) append(answer string, hesitant bool) {
	s.Transcript = append(s.Transcript, Entry{
		Question: s.CurrentQuestion,
		Answer:   answer,
		Kind:     s.CurrentKind,
		Hesitant: hesitant,
		AskedAt:  s.CurrentAskedAt,
	})
}

func (s *Session) ask(question string, kind Kind, now time.Time) {
	s.CurrentQuestion = question
	s.CurrentKind = kind
	s.CurrentAskedAt = now
	s.Hesitations = 0
}
