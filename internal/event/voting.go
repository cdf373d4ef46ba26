package event

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// SubmitVote records one vote set. At most MaxVoteSelections gifts per
// submission, validated before any store call. One row per (gift, voter)
// pair, upserted; resubmitting the same pair is idempotent.
//
// Policy decision: every successful vote submission flips the event to
// completed, not just the "final" one. Flipping an already completed
// event is a no-op, so only the first submission matters.
//
// An empty voterID gets a freshly generated anonymous id; distinct
// browser sessions therefore count as distinct voters. Accepted
// limitation, not to be fixed silently here.
func (s *Service) SubmitVote(ctx context.Context, eventID string, giftIDs []string, voterID string) (string, error) {
	if len(giftIDs) == 0 {
		return "", ErrValidation
	}
	if len(giftIDs) > MaxVoteSelections {
		return "", ErrTooManySelections
	}

	ev, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	if ev.Status == StatusCollecting {
		return "", ErrNotOpenForVoting
	}

	gifts, err := s.Store.GiftsByEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	known := make(map[string]bool, len(gifts))
	for _, g := range gifts {
		known[g.ID] = true
	}
	// dedupe the submission; voting twice for the same gift in one set
	// is a single vote
	seen := make(map[string]bool, len(giftIDs))
	ids := make([]string, 0, len(giftIDs))
	for _, gid := range giftIDs {
		if !known[gid] {
			return "", ErrValidation
		}
		if seen[gid] {
			continue
		}
		seen[gid] = true
		ids = append(ids, gid)
	}

	if voterID == "" {
		voterID = uuid.NewString()
	}

	if err := s.Store.UpsertVotes(ctx, eventID, voterID, ids); err != nil {
		return "", err
	}

	if ev.Status == StatusVoting {
		if err := s.Store.CompleteEvent(ctx, eventID); err != nil {
			return "", err
		}
		if s.Jobs != nil {
			if err := s.Jobs.EnqueuePlanDispatch(ctx, eventID, time.Now()); err != nil {
				// the vote itself succeeded; losing the plan email is
				// not worth failing the submission over
				slog.Error("enqueue plan dispatch failed", "event_id", eventID, "error", err)
			}
		}
	}
	return voterID, nil
}

// Tally computes the ranked results: per gift, the number of distinct
// voters; sorted by count descending, ties broken by generation order.
// Every gift appears, including those with zero votes.
func (s *Service) Tally(ctx context.Context, eventID string) ([]RankedGift, error) {
	gifts, err := s.Store.GiftsByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	votes, err := s.Store.VotesByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	voters := make(map[string]map[string]bool, len(gifts))
	for _, v := range votes {
		if voters[v.GiftID] == nil {
			voters[v.GiftID] = map[string]bool{}
		}
		voters[v.GiftID][v.VoterID] = true
	}

	ranked := make([]RankedGift, len(gifts))
	for i, g := range gifts {
		ranked[i] = RankedGift{GiftIdea: g, Votes: len(voters[g.ID])}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Votes != ranked[j].Votes {
			return ranked[i].Votes > ranked[j].Votes
		}
		return ranked[i].SortOrder < ranked[j].SortOrder
	})
	return ranked, nil
}
