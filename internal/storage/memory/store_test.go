package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/interview-agent/internal/interview"
)

func newSession(id string) *interview.Session {
	return interview.NewSession(id, "Backend Engineer", 3, "Can you introduce yourself?", time.Unix(0, 0))
}

func TestCreateGetSave(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, store.Create(ctx, newSession("a")))
	require.Error(t, store.Create(ctx, newSession("a")), "duplicate id must fail")

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, interview.StateAwaitingIntro, got.State)

	got.QuestionCount = 1
	got.Transcript = append(got.Transcript, interview.Entry{Question: "q", Answer: "a"})
	require.NoError(t, store.Save(ctx, got))

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, again.QuestionCount)
	assert.Len(t, again.Transcript, 1)
	assert.Equal(t, 1, store.Len())
}

func TestMissingSession(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, interview.ErrNotFound)

	err = store.Save(ctx, newSession("nope"))
	assert.ErrorIs(t, err, interview.ErrNotFound)
}

func TestStoreDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	store := New()

	session := newSession("a")
	require.NoError(t, store.Create(ctx, session))

	session.Role = "changed"
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", got.Role)

	got.Transcript = append(got.Transcript, interview.Entry{Question: "q"})
	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, again.Transcript)
}

func TestConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s-%d", i)
			if err := store.Create(ctx, newSession(id)); err != nil {
				t.Errorf("create %s: %v", id, err)
				return
			}
			s, err := store.Get(ctx, id)
			if err != nil {
				t.Errorf("get %s: %v", id, err)
				return
			}
			s.QuestionCount = i
			if err := store.Save(ctx, s); err != nil {
				t.Errorf("save %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, store.Len())
}
