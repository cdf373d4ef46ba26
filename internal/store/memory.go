package store

import (
	"context"
	"sync"
	"time"

	"github.com/bibihez/moos/internal/event"
)

// Memory is an in-memory event store with the same upsert and ordering
// semantics as the Postgres adapter. Domain and handler tests run
// against it.
type Memory struct {
	mu           sync.Mutex
	events       map[string]*event.Event
	participants map[string][]*event.Participant // eventID -> insertion order
	byPart       map[string]*event.Participant
	answers      map[string]map[string]map[int]string // eventID -> participantID -> questionID
	gifts        map[string][]event.GiftIdea
	votes        map[string]map[string]map[string]bool // eventID -> giftID -> voterID
}

var _ event.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		events:       map[string]*event.Event{},
		participants: map[string][]*event.Participant{},
		byPart:       map[string]*event.Participant{},
		answers:      map[string]map[string]map[int]string{},
		gifts:        map[string][]event.GiftIdea{},
		votes:        map[string]map[string]map[string]bool{},
	}
}

func (m *Memory) CreateEvent(_ context.Context, ev *event.Event, organizer *event.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ev
	m.events[ev.ID] = &cp
	op := *organizer
	m.participants[ev.ID] = append(m.participants[ev.ID], &op)
	m.byPart[op.ID] = &op
	return nil
}

func (m *Memory) GetEvent(_ context.Context, id string) (*event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

// EventToken satisfies token.AuthoritativeLookup.
func (m *Memory) EventToken(ctx context.Context, eventID string) (string, error) {
	ev, err := m.GetEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	return ev.OrganizerToken, nil
}

func (m *Memory) UpdateEventIban(_ context.Context, id, iban string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return event.ErrNotFound
	}
	ev.OrganizerIban = iban
	return nil
}

func (m *Memory) AttachGeneration(_ context.Context, eventID string, p event.Persona, gifts []event.GiftIdea) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return event.ErrNotFound
	}
	delete(m.votes, eventID)
	m.gifts[eventID] = append([]event.GiftIdea(nil), gifts...)
	ev.PersonaVibe = p.Vibe
	ev.PersonaDescription = p.Description
	ev.PersonaTraits = append([]string(nil), p.Traits...)
	ev.PersonaImageURL = p.ImageURL
	ev.Status = event.StatusVoting
	return nil
}

func (m *Memory) CompleteEvent(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return event.ErrNotFound
	}
	if ev.Status != event.StatusCollecting {
		ev.Status = event.StatusCompleted
	}
	return nil
}

func (m *Memory) InsertParticipant(_ context.Context, p *event.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.participants[p.EventID] = append(m.participants[p.EventID], &cp)
	m.byPart[cp.ID] = &cp
	return nil
}

func (m *Memory) ListParticipants(_ context.Context, eventID string) ([]event.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Participant, 0, len(m.participants[eventID]))
	for _, p := range m.participants[eventID] {
		out = append(out, *p)
	}
	return out, nil
}

func (m *Memory) GetParticipant(_ context.Context, id string) (*event.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byPart[id]
	if !ok {
		return nil, event.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) MarkAnswered(_ context.Context, participantID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byPart[participantID]
	if !ok {
		return event.ErrNotFound
	}
	p.HasAnswered = true
	t := at
	p.AnsweredAt = &t
	return nil
}

func (m *Memory) MarkPaid(_ context.Context, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byPart[participantID]
	if !ok {
		return event.ErrNotFound
	}
	p.HasPaid = true
	return nil
}

func (m *Memory) UpsertAnswers(_ context.Context, eventID, participantID string, answers map[int]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.answers[eventID] == nil {
		m.answers[eventID] = map[string]map[int]string{}
	}
	if m.answers[eventID][participantID] == nil {
		m.answers[eventID][participantID] = map[int]string{}
	}
	for qid, text := range answers {
		m.answers[eventID][participantID][qid] = text
	}
	return nil
}

func (m *Memory) AnswersByEvent(_ context.Context, eventID string) (map[string]map[int]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]map[int]string{}
	for pid, qs := range m.answers[eventID] {
		cp := make(map[int]string, len(qs))
		for qid, text := range qs {
			cp[qid] = text
		}
		out[pid] = cp
	}
	return out, nil
}

func (m *Memory) GiftsByEvent(_ context.Context, eventID string) ([]event.GiftIdea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]event.GiftIdea(nil), m.gifts[eventID]...), nil
}

func (m *Memory) UpsertVotes(_ context.Context, eventID, voterID string, giftIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.votes[eventID] == nil {
		m.votes[eventID] = map[string]map[string]bool{}
	}
	for _, gid := range giftIDs {
		if m.votes[eventID][gid] == nil {
			m.votes[eventID][gid] = map[string]bool{}
		}
		m.votes[eventID][gid][voterID] = true
	}
	return nil
}

func (m *Memory) VotesByEvent(_ context.Context, eventID string) ([]event.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.Vote
	for gid, voters := range m.votes[eventID] {
		for vid := range voters {
			out = append(out, event.Vote{EventID: eventID, GiftID: gid, VoterID: vid})
		}
	}
	return out, nil
}
