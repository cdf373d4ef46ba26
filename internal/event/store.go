package event

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Store is the narrow contract the workflow core has with the relational
// store. The production implementation lives in internal/store (GORM on
// Postgres); tests use the in-memory implementation from the same
// package.
//
// Multi-writer behavior is the store's concern: single-row updates are
// last-write-wins, answer and vote rows are upserted against unique
// constraints. The core never retries.
type Store interface {
	// CreateEvent persists a new event together with its organizer
	// participant row. The two writes are atomic.
	CreateEvent(ctx context.Context, ev *Event, organizer *Participant) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	UpdateEventIban(ctx context.Context, id, iban string) error

	// AttachGeneration replaces the event's whole gift set, attaches the
	// persona and flips status to voting. Gifts are written before the
	// persona+status update so a narrow inconsistency window can only
	// show gifts on a still-collecting event, never the reverse.
	// Existing votes are cleared: regenerated gift ids restart at gift-1.
	AttachGeneration(ctx context.Context, eventID string, p Persona, gifts []GiftIdea) error

	// CompleteEvent flips status to completed. Completing an already
	// completed event is a no-op.
	CompleteEvent(ctx context.Context, eventID string) error

	InsertParticipant(ctx context.Context, p *Participant) error
	// ListParticipants returns the event's participants ordered by
	// creation.
	ListParticipants(ctx context.Context, eventID string) ([]Participant, error)
	GetParticipant(ctx context.Context, id string) (*Participant, error)
	MarkAnswered(ctx context.Context, participantID string, at time.Time) error
	MarkPaid(ctx context.Context, participantID string) error

	UpsertAnswers(ctx context.Context, eventID, participantID string, answers map[int]string) error
	// AnswersByEvent returns participantID -> questionID -> text.
	AnswersByEvent(ctx context.Context, eventID string) (map[string]map[int]string, error)

	GiftsByEvent(ctx context.Context, eventID string) ([]GiftIdea, error)

	UpsertVotes(ctx context.Context, eventID, voterID string, giftIDs []string) error
	VotesByEvent(ctx context.Context, eventID string) ([]Vote, error)
}
