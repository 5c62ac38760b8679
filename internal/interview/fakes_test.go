package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const introQuestion = "Can you introduce yourself?"

var errLLM = errors.New("llm unavailable")

type fakeInterviewer struct {
	mu        sync.Mutex
	calls     int
	err       error
	questions []string
}

func (f *fakeInterviewer) OpeningQuestion(string) string { return introQuestion }

func (f *fakeInterviewer) NextQuestion(_ context.Context, role string, transcript []Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.questions) > 0 {
		q := f.questions[0]
		f.questions = f.questions[1:]
		return q, nil
	}
	return fmt.Sprintf("%s question #%d (after %d entries)", role, f.calls, len(transcript)), nil
}

type fakeFollowUps struct {
	mu        sync.Mutex
	calls     int
	err       error
	followUps []string
}

func (f *fakeFollowUps) NeedsFollowUp(context.Context, string, string, []Entry) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, "", f.err
	}
	if len(f.followUps) == 0 {
		return false, "", nil
	}
	q := f.followUps[0]
	f.followUps = f.followUps[1:]
	if q == "" {
		return false, "", nil
	}
	return true, q, nil
}

type fakeSilence struct {
	attempts []int
}

func (f *fakeSilence) IsHesitant(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "" || a == "um" || a == "..."
}

func (f *fakeSilence) Reengage(_ context.Context, question string, attempt int) string {
	f.attempts = append(f.attempts, attempt)
	if attempt > 1 {
		return "Let me repeat: " + question
	}
	return "Take your time."
}

type fakeFeedback struct {
	mu     sync.Mutex
	calls  int
	err    error
	report *Feedback
}

func (f *fakeFeedback) Generate(context.Context, string, []Entry) (*Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report.Clone(), nil
}

type mapStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	saves    int
}

func newMapStore() *mapStore {
	return &mapStore{sessions: make(map[string]*Session)}
}

func (m *mapStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return errors.New("exists")
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *mapStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Clone(), nil
}

func (m *mapStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, s.ID)
	}
	m.saves++
	m.sessions[s.ID] = s.Clone()
	return nil
}
