// Package store implements the event store contract: GORM on Postgres
// for production, an in-memory variant for tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/bibihez/moos/internal/event"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the Postgres-backed event store.
type Gorm struct {
	DB *gorm.DB
}

var _ event.Store = (*Gorm)(nil)

func (s *Gorm) CreateEvent(ctx context.Context, ev *event.Event, organizer *event.Participant) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ev).Error; err != nil {
			return err
		}
		return tx.Create(organizer).Error
	})
}

func (s *Gorm) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	var ev event.Event
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, event.ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// EventToken satisfies token.AuthoritativeLookup.
func (s *Gorm) EventToken(ctx context.Context, eventID string) (string, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return "", err
	}
	return ev.OrganizerToken, nil
}

func (s *Gorm) UpdateEventIban(ctx context.Context, id, iban string) error {
	res := s.DB.WithContext(ctx).Model(&event.Event{}).
		Where("id = ?", id).
		Update("organizer_iban", iban)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return event.ErrNotFound
	}
	return nil
}

func (s *Gorm) AttachGeneration(ctx context.Context, eventID string, p event.Persona, gifts []event.GiftIdea) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// votes reference gift ids that restart at gift-1 on
		// regeneration, so stale votes must go with the old set
		if err := tx.Where("event_id = ?", eventID).Delete(&event.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&event.GiftIdea{}).Error; err != nil {
			return err
		}
		if len(gifts) > 0 {
			if err := tx.Create(&gifts).Error; err != nil {
				return err
			}
		}
		res := tx.Model(&event.Event{}).
			Where("id = ?", eventID).
			Updates(map[string]any{
				"status":              event.StatusVoting,
				"persona_vibe":        p.Vibe,
				"persona_description": p.Description,
				"persona_traits":      toStringArray(p.Traits),
				"persona_image_url":   p.ImageURL,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return event.ErrNotFound
		}
		return nil
	})
}

func (s *Gorm) CompleteEvent(ctx context.Context, eventID string) error {
	// idempotent; never pulls an event back out of completed
	return s.DB.WithContext(ctx).Model(&event.Event{}).
		Where("id = ? AND status <> ?", eventID, event.StatusCollecting).
		Update("status", event.StatusCompleted).Error
}

func (s *Gorm) InsertParticipant(ctx context.Context, p *event.Participant) error {
	return s.DB.WithContext(ctx).Create(p).Error
}

func (s *Gorm) ListParticipants(ctx context.Context, eventID string) ([]event.Participant, error) {
	parts := []event.Participant{}
	err := s.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at asc, id asc").
		Find(&parts).Error
	return parts, err
}

func (s *Gorm) GetParticipant(ctx context.Context, id string) (*event.Participant, error) {
	var p event.Participant
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, event.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Gorm) MarkAnswered(ctx context.Context, participantID string, at time.Time) error {
	return s.DB.WithContext(ctx).Model(&event.Participant{}).
		Where("id = ?", participantID).
		Updates(map[string]any{"has_answered": true, "answered_at": at}).Error
}

func (s *Gorm) MarkPaid(ctx context.Context, participantID string) error {
	return s.DB.WithContext(ctx).Model(&event.Participant{}).
		Where("id = ?", participantID).
		Update("has_paid", true).Error
}

func (s *Gorm) UpsertAnswers(ctx context.Context, eventID, participantID string, answers map[int]string) error {
	if len(answers) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for qid, text := range answers {
			a := event.Answer{
				EventID:       eventID,
				ParticipantID: participantID,
				QuestionID:    qid,
				Text:          text,
				UpdatedAt:     time.Now(),
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "event_id"}, {Name: "participant_id"}, {Name: "question_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
			}).Create(&a).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Gorm) AnswersByEvent(ctx context.Context, eventID string) (map[string]map[int]string, error) {
	var rows []event.Answer
	if err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := map[string]map[int]string{}
	for _, a := range rows {
		if out[a.ParticipantID] == nil {
			out[a.ParticipantID] = map[int]string{}
		}
		out[a.ParticipantID][a.QuestionID] = a.Text
	}
	return out, nil
}

func (s *Gorm) GiftsByEvent(ctx context.Context, eventID string) ([]event.GiftIdea, error) {
	gifts := []event.GiftIdea{}
	err := s.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("sort_order asc").
		Find(&gifts).Error
	return gifts, err
}

func (s *Gorm) UpsertVotes(ctx context.Context, eventID, voterID string, giftIDs []string) error {
	if len(giftIDs) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, gid := range giftIDs {
			v := event.Vote{
				EventID:   eventID,
				GiftID:    gid,
				VoterID:   voterID,
				CreatedAt: time.Now(),
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "event_id"}, {Name: "gift_id"}, {Name: "voter_id"}},
				DoNothing: true,
			}).Create(&v).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Gorm) VotesByEvent(ctx context.Context, eventID string) ([]event.Vote, error) {
	votes := []event.Vote{}
	err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).Find(&votes).Error
	return votes, err
}

func toStringArray(ss []string) pq.StringArray {
	out := make([]string, len(ss))
	copy(out, ss)
	return pq.StringArray(out)
}
