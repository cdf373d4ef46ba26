package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/bibihez/moos/internal/event"
)

// Worker drains the job queue. The only job type today is PLAN_DISPATCH:
// once an event completes, the organizer gets the ranked gift plan by
// email.
type Worker struct {
	ID     string
	Repo   *Repo
	Events *event.Service
	Mailer Mailer
}

// Mailer sends the final plan. The default implementation only logs;
// wiring a real provider is a deployment concern.
type Mailer interface {
	SendPlan(ctx context.Context, to string, ev *event.Event, ranked []event.RankedGift) error
}

// LogMailer writes the plan to the log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendPlan(_ context.Context, to string, ev *event.Event, ranked []event.RankedGift) error {
	top := ""
	if len(ranked) > 0 {
		top = ranked[0].Name
	}
	slog.Info("final plan dispatched",
		"to", to,
		"event_id", ev.ID,
		"friend", ev.FriendName,
		"gifts", len(ranked),
		"top_pick", top,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				slog.Error("worker claim failed", "error", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case "PLAN_DISPATCH":
		w.handlePlanDispatch(ctx, job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handlePlanDispatch(ctx context.Context, job *Job) {
	type payload struct {
		EventID string `json:"event_id"`
	}
	var p payload
	if err := json.Unmarshal(job.Payload, &p); err != nil || p.EventID == "" {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	ev, err := w.Events.GetEvent(ctx, p.EventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			_ = w.Repo.MarkDone(job.ID)
			return
		}
		w.retry(job, "event read error")
		return
	}
	if ev.Status != event.StatusCompleted || ev.OrganizerEmail == "" {
		_ = w.Repo.MarkDone(job.ID)
		return
	}

	ranked, err := w.Events.Tally(ctx, p.EventID)
	if err != nil {
		w.retry(job, "tally error")
		return
	}

	if err := w.Mailer.SendPlan(ctx, ev.OrganizerEmail, ev, ranked); err != nil {
		w.retry(job, "send error")
		return
	}
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
