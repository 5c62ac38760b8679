package interview

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orchestratorFixture struct {
	interviewer *fakeInterviewer
	followUps   *fakeFollowUps
	silence     *fakeSilence
	orch        *Orchestrator
}

func newFixture(maxFollowUps int) *orchestratorFixture {
	f := &orchestratorFixture{
		interviewer: &fakeInterviewer{},
		followUps:   &fakeFollowUps{},
		silence:     &fakeSilence{},
	}
	f.orch = NewOrchestrator(f.interviewer, f.followUps, f.silence, maxFollowUps, zap.NewNop())
	f.orch.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func startSession(maxQuestions int) *Session {
	return NewSession("s1", "Backend Engineer", maxQuestions, introQuestion, time.Date(2025, 5, 1, 11, 0, 0, 0, time.UTC))
}

func TestStepAdvancesToNextQuestion(t *testing.T) {
	f := newFixture(DefaultMaxFollowUps)
	f.interviewer.questions = []string{"What databases have you used?"}
	session := startSession(3)

	next, reply := f.orch.Step(context.Background(), session, "I'm a backend engineer with 3 years of Go")

	assert.Equal(t, OutcomeNextQuestion, reply.Outcome)
	assert.Equal(t, "What databases have you used?", reply.Message)
	assert.False(t, reply.Finished)

	assert.Equal(t, 1, next.QuestionCount)
	assert.Equal(t, StateAskingNext, next.State)
	assert.Equal(t, "What databases have you used?", next.CurrentQuestion)
	assert.Equal(t, KindMain, next.CurrentKind)
	require.Len(t, next.Transcript, 1)
	assert.Equal(t, Entry{
		Question: introQuestion,
		Answer:   "I'm a backend engineer with 3 years of Go",
		Kind:     KindIntro,
		AskedAt:  session.CreatedAt,
	}, next.Transcript[0])

	// the input session is untouched
	assert.Equal(t, 0, session.QuestionCount)
	assert.Empty(t, session.Transcript)
	assert.Equal(t, StateAwaitingIntro, session.State)
}

func TestStepHesitationKeepsProgress(t *testing.T) {
	f := newFixture(DefaultMaxFollowUps)
	ctx := context.Background()

	session := startSession(3)
	session, _ = f.orch.Step(ctx, session, "I build payment services")
	require.Equal(t, 1, session.QuestionCount)
	state := session.State
	question := session.CurrentQuestion

	first, reply := f.orch.Step(ctx, session, "um")
	assert.Equal(t, OutcomeHesitation, reply.Outcome)
	assert.Equal(t, "Take your time.", reply.Message)
	assert.False(t, reply.Finished)
	assert.Equal(t, 1, first.QuestionCount)
	assert.Equal(t, state, first.State)
	assert.Equal(t, question, first.CurrentQuestion)
	assert.Equal(t, 1, first.Hesitations)
	require.Len(t, first.Transcript, 2)
	assert.True(t, first.Transcript[1].Hesitant)

	second, reply := f.orch.Step(ctx, first, "")
	assert.Equal(t, "Let me repeat: "+question, reply.Message)
	assert.Equal(t, 1, second.QuestionCount)
	assert.Equal(t, 2, second.Hesitations)
	assert.Equal(t, []int{1, 2}, f.silence.attempts)

	third, reply := f.orch.Step(ctx, second, "Mostly Postgres with some Redis caching")
	assert.Equal(t, OutcomeNextQuestion, reply.Outcome)
	assert.Equal(t, 2, third.QuestionCount)
	assert.Equal(t, 0, third.Hesitations)
	assert.False(t, third.Transcript[len(third.Transcript)-1].Hesitant)
}

func TestStepFollowUps(t *testing.T) {
	f := newFixture(2)
	f.followUps.followUps = []string{"Which Go frameworks?", "Why chi over gin?", "Never asked"}
	ctx := context.Background()

	session := startSession(3)

	first, reply := f.orch.Step(ctx, session, "I write Go services")
	assert.Equal(t, OutcomeFollowUp, reply.Outcome)
	assert.Equal(t, "Which Go frameworks?", reply.Message)
	assert.Equal(t, 0, first.QuestionCount)
	assert.Equal(t, StateAskingFollowUp, first.State)
	assert.Equal(t, KindFollowUp, first.CurrentKind)
	assert.Equal(t, 1, first.FollowUps)

	second, reply := f.orch.Step(ctx, first, "chi and gin")
	assert.Equal(t, OutcomeFollowUp, reply.Outcome)
	assert.Equal(t, 2, second.FollowUps)
	assert.Equal(t, KindFollowUp, second.Transcript[1].Kind)

	// the follow-up budget is spent, so the agent is not consulted
	third, reply := f.orch.Step(ctx, second, "chi is closer to net/http")
	assert.Equal(t, OutcomeNextQuestion, reply.Outcome)
	assert.Equal(t, 2, f.followUps.calls)
	assert.Equal(t, 1, third.QuestionCount)
	assert.Equal(t, 0, third.FollowUps)
	assert.Equal(t, StateAskingNext, third.State)
}

func TestStepWithoutFollowUps(t *testing.T) {
	f := newFixture(0)
	f.followUps.followUps = []string{"unused"}

	next, reply := f.orch.Step(context.Background(), startSession(2), "I design APIs")
	assert.Equal(t, OutcomeNextQuestion, reply.Outcome)
	assert.Equal(t, 1, next.QuestionCount)
	assert.Equal(t, 0, f.followUps.calls)
}

func TestStepAlreadyFinished(t *testing.T) {
	f := newFixture(DefaultMaxFollowUps)

	session, reply := f.orch.Step(context.Background(), startSession(1), "I'm a data engineer")
	require.True(t, reply.Finished)
	require.Equal(t, StateFinished, session.State)
	transcript := len(session.Transcript)

	again, reply := f.orch.Step(context.Background(), session, "one more thing")
	assert.Same(t, session, again)
	assert.Equal(t, OutcomeAlreadyFinished, reply.Outcome)
	assert.Equal(t, ClosingMessage, reply.Message)
	assert.True(t, reply.Finished)
	assert.Len(t, again.Transcript, transcript)
}

func TestStepFallsBackOnLLMFailure(t *testing.T) {
	t.Run("follow-up agent", func(t *testing.T) {
		f := newFixture(DefaultMaxFollowUps)
		f.followUps.err = errLLM
		session := startSession(3)

		next, reply := f.orch.Step(context.Background(), session, "I write Go")
		assert.Same(t, session, next)
		assert.Equal(t, OutcomeFallback, reply.Outcome)
		assert.Equal(t, FallbackMessage, reply.Message)
		assert.False(t, reply.Finished)
		assert.Empty(t, session.Transcript)
	})

	t.Run("interviewer agent", func(t *testing.T) {
		f := newFixture(DefaultMaxFollowUps)
		f.interviewer.err = errLLM
		session := startSession(3)

		next, reply := f.orch.Step(context.Background(), session, "I write Go")
		assert.Same(t, session, next)
		assert.Equal(t, OutcomeFallback, reply.Outcome)
		assert.Equal(t, 0, session.QuestionCount)
	})
}

func TestStepFinishesAfterMaxQuestions(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("max_%d", n), func(t *testing.T) {
			f := newFixture(DefaultMaxFollowUps)
			session := startSession(n)

			exchanges := 0
			previous := 0
			for {
				var reply Reply
				session, reply = f.orch.Step(context.Background(), session, fmt.Sprintf("substantive answer %d", exchanges))
				exchanges++

				require.GreaterOrEqual(t, session.QuestionCount, previous)
				require.LessOrEqual(t, session.QuestionCount, n)
				previous = session.QuestionCount

				if reply.Finished {
					break
				}
				require.Less(t, exchanges, n, "interview did not finish")
			}

			assert.Equal(t, n, exchanges)
			assert.Equal(t, n, session.QuestionCount)
			assert.Equal(t, StateFinished, session.State)
			assert.Equal(t, n-1, f.interviewer.calls)
		})
	}
}
