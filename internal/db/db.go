package db

import (
	"fmt"

	"github.com/bibihez/moos/internal/event"
	"github.com/bibihez/moos/internal/jobs"
	"github.com/bibihez/moos/internal/token"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&event.Event{},
		&event.Participant{},
		&event.Answer{},
		&event.GiftIdea{},
		&event.Vote{},
		&token.DeviceToken{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Upsert keys: one answer per (event, participant, question), one
	// vote per (event, gift, voter)
	if err := gdb.Exec(`create unique index if not exists uq_answers_event_part_question on answers(event_id, participant_id, question_id);`).Error; err != nil {
		return err
	}
	if err := gdb.Exec(`create unique index if not exists uq_votes_event_gift_voter on votes(event_id, gift_id, voter_id);`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_participants_event_created on participants(event_id, created_at);`,
		`create index if not exists idx_gift_ideas_event_sort on gift_ideas(event_id, sort_order);`,
		`create index if not exists idx_votes_event_gift on votes(event_id, gift_id);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
