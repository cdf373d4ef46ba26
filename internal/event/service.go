package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibihez/moos/internal/gateway"
	"github.com/bibihez/moos/internal/id"
	"github.com/bibihez/moos/internal/token"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrAlreadyCompleted  = errors.New("event already completed")
	ErrNotOpenForVoting  = errors.New("event not open for voting")
	ErrTooManySelections = errors.New("too many gift selections")
)

// MaxVoteSelections caps one vote submission. The fourth selection is
// refused, not silently truncated.
const MaxVoteSelections = 3

// Notifier is told when an event's participant list changed so
// subscribers can be handed a fresh snapshot.
type Notifier interface {
	ParticipantsChanged(eventID string)
}

// PlanEnqueuer schedules the final-plan dispatch once an event first
// completes.
type PlanEnqueuer interface {
	EnqueuePlanDispatch(ctx context.Context, eventID string, runAt time.Time) error
}

// Service is the workflow core: event lifecycle, participant/answer
// aggregation, generation hand-off, voting and tally. Feed and Jobs are
// optional collaborators.
type Service struct {
	Store Store
	Gen   gateway.Generator
	Feed  Notifier
	Jobs  PlanEnqueuer
}

type CreateEventInput struct {
	FriendName     string
	Date           string
	BudgetMin      int
	BudgetMax      int
	OrganizerName  string
	OrganizerEmail string
}

// CreateEvent mints the organizer capability token, persists the event
// and auto-joins the organizer (not answered yet) in the same write.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (*Event, *Participant, error) {
	in.FriendName = strings.TrimSpace(in.FriendName)
	in.OrganizerEmail = strings.TrimSpace(in.OrganizerEmail)
	if in.FriendName == "" || strings.TrimSpace(in.Date) == "" || in.OrganizerEmail == "" {
		return nil, nil, ErrValidation
	}

	eventID, err := id.New("bday")
	if err != nil {
		return nil, nil, err
	}
	partID, err := id.New("part")
	if err != nil {
		return nil, nil, err
	}
	secret, err := token.Mint()
	if err != nil {
		return nil, nil, err
	}

	ev := &Event{
		ID:             eventID,
		FriendName:     in.FriendName,
		Date:           in.Date,
		BudgetMin:      in.BudgetMin,
		BudgetMax:      in.BudgetMax,
		OrganizerName:  in.OrganizerName,
		OrganizerEmail: in.OrganizerEmail,
		OrganizerToken: secret,
		Status:         StatusCollecting,
		CreatedAt:      time.Now(),
	}
	organizer := &Participant{
		ID:          partID,
		EventID:     eventID,
		Name:        in.OrganizerName,
		IsOrganizer: true,
		CreatedAt:   time.Now(),
	}

	if err := s.Store.CreateEvent(ctx, ev, organizer); err != nil {
		return nil, nil, fmt.Errorf("create event: %w", err)
	}
	return ev, organizer, nil
}

func (s *Service) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	return s.Store.GetEvent(ctx, eventID)
}

// Join appends a participant. Names are not deduplicated: the same
// person joining twice produces two rows.
func (s *Service) Join(ctx context.Context, eventID, name string) (*Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}
	if _, err := s.Store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	partID, err := id.New("part")
	if err != nil {
		return nil, err
	}
	p := &Participant{
		ID:        partID,
		EventID:   eventID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.Store.InsertParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	s.notify(eventID)
	return p, nil
}

func (s *Service) Participants(ctx context.Context, eventID string) ([]Participant, error) {
	return s.Store.ListParticipants(ctx, eventID)
}

// SubmitAnswers upserts every provided answer, then marks the
// participant answered with a fresh timestamp. Resubmission overwrites
// prior answers and the timestamp; hasAnswered never regresses.
func (s *Service) SubmitAnswers(ctx context.Context, eventID, participantID string, answers map[int]string) error {
	p, err := s.Store.GetParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	if p.EventID != eventID {
		return ErrNotFound
	}

	if err := s.Store.UpsertAnswers(ctx, eventID, participantID, answers); err != nil {
		return fmt.Errorf("save answers: %w", err)
	}
	if err := s.Store.MarkAnswered(ctx, participantID, time.Now()); err != nil {
		return fmt.Errorf("mark answered: %w", err)
	}
	s.notify(eventID)
	return nil
}

// AssembleAggregate compiles every participant's answers for the
// generation gateway. Participants with no answers appear with an empty
// map so the gateway can account for non-responders.
//
// Precondition of generation, checked by the organizer-facing caller,
// not here: at least one participant has answered.
func (s *Service) AssembleAggregate(ctx context.Context, eventID string) (*Aggregate, error) {
	parts, err := s.Store.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Store.AnswersByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{
		Answers:          make(map[string]map[int]string, len(parts)),
		ParticipantNames: make(map[string]string, len(parts)),
	}
	for _, p := range parts {
		agg.ParticipantNames[p.ID] = p.Name
		if a, ok := answers[p.ID]; ok {
			agg.Answers[p.ID] = a
		} else {
			agg.Answers[p.ID] = map[int]string{}
		}
	}
	return agg, nil
}

// GenerateGifts runs the generation operation: assemble the aggregate,
// call the gateway, then atomically replace the gift set, attach the
// persona and flip status to voting. Any gateway or validation failure
// leaves the event's prior state untouched.
func (s *Service) GenerateGifts(ctx context.Context, eventID string) (*Event, []GiftIdea, error) {
	ev, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if ev.Status == StatusCompleted {
		return nil, nil, ErrAlreadyCompleted
	}

	agg, err := s.AssembleAggregate(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.Gen.Generate(ctx, gateway.GenerateRequest{
		FriendName:       ev.FriendName,
		Budget:           gateway.Budget{Min: ev.BudgetMin, Max: ev.BudgetMax},
		AllAnswers:       agg.Answers,
		ParticipantNames: agg.ParticipantNames,
	})
	if err != nil {
		return nil, nil, err
	}

	gifts := make([]GiftIdea, len(res.Gifts))
	for i, g := range res.Gifts {
		gifts[i] = GiftIdea{
			ID:            fmt.Sprintf("gift-%d", i+1),
			EventID:       eventID,
			Name:          g.Name,
			PriceEstimate: g.PriceEstimate,
			Reason:        g.Reason,
			SortOrder:     i,
			PurchaseLink:  g.PurchaseLink,
			ImageURL:      g.ImageURL,
		}
	}

	persona := Persona{
		Vibe:        res.Persona.Vibe,
		Description: res.Persona.Description,
		Traits:      res.Persona.Traits,
		ImageURL:    res.Persona.ImageURL,
	}
	if err := s.Store.AttachGeneration(ctx, eventID, persona, gifts); err != nil {
		return nil, nil, fmt.Errorf("save gift ideas: %w", err)
	}

	ev, err = s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return ev, gifts, nil
}

func (s *Service) Gifts(ctx context.Context, eventID string) ([]GiftIdea, error) {
	return s.Store.GiftsByEvent(ctx, eventID)
}

// UpdateIban attaches the organizer's IBAN. Ownership is checked by the
// HTTP layer before this is reached.
func (s *Service) UpdateIban(ctx context.Context, eventID, iban string) error {
	iban = strings.TrimSpace(iban)
	if iban == "" {
		return ErrValidation
	}
	if _, err := s.Store.GetEvent(ctx, eventID); err != nil {
		return err
	}
	return s.Store.UpdateEventIban(ctx, eventID, iban)
}

// MarkPaid flips a participant's hasPaid flag. Monotonic false -> true.
func (s *Service) MarkPaid(ctx context.Context, participantID string) error {
	p, err := s.Store.GetParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	if p.HasPaid {
		return nil
	}
	if err := s.Store.MarkPaid(ctx, participantID); err != nil {
		return err
	}
	s.notify(p.EventID)
	return nil
}

func (s *Service) notify(eventID string) {
	if s.Feed != nil {
		s.Feed.ParticipantsChanged(eventID)
	}
}
