package event

import (
	"time"

	"github.com/lib/pq"
)

// Event status. Transitions are strictly forward and only ever happen as
// side effects of specific operations: generation success moves
// collecting -> voting, a vote submission moves voting -> completed.
const (
	StatusCollecting = "collecting"
	StatusVoting     = "voting"
	StatusCompleted  = "completed"
)

// Event is one gift-coordination instance ("birthday").
// OrganizerToken is the capability secret minted at creation. It is never
// regenerated and never serialized into participant-facing JSON; the
// create response and the explicit organizer link are the only places it
// leaves the server.
type Event struct {
	ID             string `gorm:"primaryKey" json:"id"`
	FriendName     string `gorm:"not null" json:"friendName"`
	Date           string `json:"date"`
	BudgetMin      int    `gorm:"not null;default:0" json:"budgetMin"`
	BudgetMax      int    `gorm:"not null;default:0" json:"budgetMax"`
	OrganizerName  string `json:"organizerName"`
	OrganizerEmail string `gorm:"not null" json:"-"`
	OrganizerIban  string `json:"organizerIban,omitempty"`
	OrganizerToken string `gorm:"not null" json:"-"`

	Status string `gorm:"index;not null;default:'collecting'" json:"status"`

	// Persona, attached exactly once at the collecting -> voting flip.
	PersonaVibe        string         `json:"-"`
	PersonaDescription string         `gorm:"type:text" json:"-"`
	PersonaTraits      pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"-"`
	PersonaImageURL    string         `json:"-"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"-"`
}

// Persona is the generated profile of the recipient.
type Persona struct {
	Vibe        string   `json:"vibe"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

// HasPersona reports whether generation has attached a persona yet.
func (e *Event) HasPersona() bool {
	return e.PersonaVibe != "" || e.PersonaDescription != ""
}

func (e *Event) Persona() *Persona {
	if !e.HasPersona() {
		return nil
	}
	return &Persona{
		Vibe:        e.PersonaVibe,
		Description: e.PersonaDescription,
		Traits:      []string(e.PersonaTraits),
		ImageURL:    e.PersonaImageURL,
	}
}

// Participant is one person who joined an event. The organizer's own row
// is created atomically with the event and is the only one with
// IsOrganizer set.
type Participant struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	EventID     string     `gorm:"index;not null" json:"-"`
	Name        string     `gorm:"not null" json:"name"`
	HasAnswered bool       `gorm:"not null;default:false" json:"hasAnswered"`
	AnsweredAt  *time.Time `gorm:"type:timestamptz" json:"answeredAt,omitempty"`
	HasPaid     bool       `gorm:"not null;default:false" json:"hasPaid"`
	IsOrganizer bool       `gorm:"not null;default:false" json:"isOrganizer"`
	CreatedAt   time.Time  `gorm:"index;not null;default:now()" json:"-"`
}

// Answer holds one participant's free-text answer to one question.
// At most one row per (event, participant, question); upserted.
type Answer struct {
	ID            uint64    `gorm:"primaryKey" json:"-"`
	EventID       string    `gorm:"index;not null" json:"-"`
	ParticipantID string    `gorm:"not null" json:"participantId"`
	QuestionID    int       `gorm:"not null" json:"questionId"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"-"`
}

// GiftIdea is one generated suggestion. The whole set for an event is
// replaced in a single batch when generation completes; SortOrder
// preserves generation order.
type GiftIdea struct {
	ID            string `gorm:"primaryKey" json:"id"`
	EventID       string `gorm:"primaryKey" json:"-"`
	Name          string `gorm:"not null" json:"name"`
	PriceEstimate string `json:"priceEstimate"`
	Reason        string `gorm:"type:text" json:"reason"`
	SortOrder     int    `gorm:"not null" json:"-"`
	PurchaseLink  string `json:"purchaseLink,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

// Vote is one (gift, voter) pair. Unique per (event, gift, voter);
// re-voting the same pair is idempotent, never double-counted.
type Vote struct {
	ID        uint64    `gorm:"primaryKey" json:"-"`
	EventID   string    `gorm:"index;not null" json:"-"`
	GiftID    string    `gorm:"not null" json:"giftId"`
	VoterID   string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"-"`
}

// RankedGift is a gift idea with its tallied vote count.
type RankedGift struct {
	GiftIdea
	Votes int `json:"votes"`
}

// Aggregate is the compiled answer set handed to the generation gateway.
// Participants with zero answers are included with an empty map so the
// gateway can account for non-responders.
type Aggregate struct {
	Answers          map[string]map[int]string `json:"allAnswers"`
	ParticipantNames map[string]string         `json:"participantNames"`
}
