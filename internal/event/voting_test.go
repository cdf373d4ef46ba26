package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/bibihez/moos/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	eventIDs []string
}

func (f *fakeEnqueuer) EnqueuePlanDispatch(_ context.Context, eventID string, _ time.Time) error {
	f.eventIDs = append(f.eventIDs, eventID)
	return nil
}

// votingEvent sets up an event already in the voting phase with the
// given number of gifts.
func votingEvent(t *testing.T, giftCount int) (*event.Service, *event.Event, *fakeEnqueuer) {
	t.Helper()
	gen := &stubGenerator{result: okResult(giftCount)}
	svc, _ := newService(gen)
	jobs := &fakeEnqueuer{}
	svc.Jobs = jobs

	ctx := context.Background()
	ev, _ := createEvent(t, svc)
	ana, err := svc.Join(ctx, ev.ID, "Ana")
	require.NoError(t, err)
	require.NoError(t, svc.SubmitAnswers(ctx, ev.ID, ana.ID, map[int]string{1: "plants"}))
	ev, _, err = svc.GenerateGifts(ctx, ev.ID)
	require.NoError(t, err)
	require.Equal(t, event.StatusVoting, ev.Status)
	return svc, ev, jobs
}

func TestSubmitVote(t *testing.T) {
	ctx := context.Background()

	t.Run("empty selection rejected", func(t *testing.T) {
		svc, ev, _ := votingEvent(t, 5)
		_, err := svc.SubmitVote(ctx, ev.ID, nil, "v1")
		assert.ErrorIs(t, err, event.ErrValidation)
	})

	t.Run("fourth selection refused", func(t *testing.T) {
		svc, ev, _ := votingEvent(t, 5)
		_, err := svc.SubmitVote(ctx, ev.ID, []string{"gift-1", "gift-2", "gift-3", "gift-4"}, "v1")
		assert.ErrorIs(t, err, event.ErrTooManySelections)

		// nothing was recorded
		votes, err := svc.Store.VotesByEvent(ctx, ev.ID)
		require.NoError(t, err)
		assert.Empty(t, votes)
	})

	t.Run("unknown gift rejected", func(t *testing.T) {
		svc, ev, _ := votingEvent(t, 5)
		_, err := svc.SubmitVote(ctx, ev.ID, []string{"gift-99"}, "v1")
		assert.ErrorIs(t, err, event.ErrValidation)
	})

	t.Run("rejected while collecting", func(t *testing.T) {
		svc, _ := newService(nil)
		ev, _ := createEvent(t, svc)
		_, err := svc.SubmitVote(ctx, ev.ID, []string{"gift-1"}, "v1")
		assert.ErrorIs(t, err, event.ErrNotOpenForVoting)
	})

	t.Run("anonymous voter gets a minted id", func(t *testing.T) {
		svc, ev, _ := votingEvent(t, 5)
		got, err := svc.SubmitVote(ctx, ev.ID, []string{"gift-1"}, "")
		require.NoError(t, err)
		assert.NotEmpty(t, got)
	})

	t.Run("resubmission is idempotent per voter and gift", func(t *testing.T) {
		svc, ev, _ := votingEvent(t, 5)
		_, err := svc.SubmitVote(ctx, ev.ID, []string{"gift-1", "gift-1", "gift-2"}, "v1")
		require.NoError(t, err)
		_, err = svc.SubmitVote(ctx, ev.ID, []string{"gift-1"}, "v1")
		require.NoError(t, err)

		ranked, err := svc.Tally(ctx, ev.ID)
		require.NoError(t, err)
		byID := map[string]int{}
		for _, r := range ranked {
			byID[r.ID] = r.Votes
		}
		assert.Equal(t, 1, byID["gift-1"])
		assert.Equal(t, 1, byID["gift-2"])
	})

	t.Run("first vote completes the event and enqueues the plan", func(t *testing.T) {
		svc, ev, jobs := votingEvent(t, 5)
		_, err := svc.SubmitVote(ctx, ev.ID, []string{"gift-3"}, "v1")
		require.NoError(t, err)

		cur, err := svc.GetEvent(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, event.StatusCompleted, cur.Status)
		assert.Equal(t, []string{ev.ID}, jobs.eventIDs)

		// late votes still land, but the plan is not re-enqueued
		_, err = svc.SubmitVote(ctx, ev.ID, []string{"gift-3"}, "v2")
		require.NoError(t, err)
		assert.Len(t, jobs.eventIDs, 1)
	})
}

func TestTally(t *testing.T) {
	ctx := context.Background()
	svc, ev, _ := votingEvent(t, 4)

	_, err := svc.SubmitVote(ctx, ev.ID, []string{"gift-3", "gift-2"}, "v1")
	require.NoError(t, err)
	_, err = svc.SubmitVote(ctx, ev.ID, []string{"gift-3"}, "v2")
	require.NoError(t, err)
	_, err = svc.SubmitVote(ctx, ev.ID, []string{"gift-2"}, "v3")
	require.NoError(t, err)

	ranked, err := svc.Tally(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 4, "zero-vote gifts still listed")

	// gift-2 and gift-3 tie on votes; earlier generation order wins
	assert.Equal(t, "gift-2", ranked[0].ID)
	assert.Equal(t, 2, ranked[0].Votes)
	assert.Equal(t, "gift-3", ranked[1].ID)
	assert.Equal(t, 2, ranked[1].Votes)
	assert.Equal(t, 0, ranked[2].Votes)
	assert.Equal(t, 0, ranked[3].Votes)
}

// Ties keep the generation order.
func TestTallyTieBreak(t *testing.T) {
	ctx := context.Background()
	svc, ev, _ := votingEvent(t, 3)

	_, err := svc.SubmitVote(ctx, ev.ID, []string{"gift-1", "gift-3"}, "v1")
	require.NoError(t, err)

	ranked, err := svc.Tally(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID},
		[]string{"gift-1", "gift-3", "gift-2"})
}
