// Package view derives the one correct screen for an arbitrary visitor
// opening an event link, given nothing but the URL and the device's
// capability cache.
package view

import (
	"context"
	"errors"

	"github.com/bibihez/moos/internal/event"
	"github.com/bibihez/moos/internal/token"
)

type Kind string

const (
	// KindLanding is the fail-closed state: the event does not resolve
	// or a fetch failed mid-resolution. Never a partial view.
	KindLanding   Kind = "landing"
	KindDashboard Kind = "dashboard"
	KindJoin      Kind = "join"
	KindVoting    Kind = "voting"
	KindResults   Kind = "results"
)

// View is a fully resolved screen with its payload.
type View struct {
	Kind         Kind                `json:"kind"`
	Message      string              `json:"message,omitempty"`
	Event        *event.Event        `json:"event,omitempty"`
	Persona      *event.Persona      `json:"persona,omitempty"`
	Participants []event.Participant `json:"participants,omitempty"`
	Gifts        []event.GiftIdea    `json:"gifts,omitempty"`
	Results      []event.RankedGift  `json:"results,omitempty"`
}

type Resolver struct {
	Events *event.Service
	Tokens *token.Resolver
}

// Resolve reconstructs the visitor's view:
//
//  1. device owns the event  -> dashboard, regardless of status
//  2. status collecting      -> join screen
//  3. status voting          -> voting screen (gifts without counts)
//  4. status completed       -> results (gifts with counts, ranked)
//
// A token in the URL is imported into the capability cache first, so an
// organizer link works on a device that has never seen the event. A
// client with no device id has no cache: nothing is imported for it and
// ownership holds only for the request carrying the token itself.
func (r *Resolver) Resolve(ctx context.Context, deviceID, eventID, urlToken string) View {
	if urlToken != "" {
		if err := r.Tokens.ImportFromLink(ctx, deviceID, eventID, urlToken); err != nil {
			return landing("Could not open this link. Please try again.")
		}
	}

	ev, err := r.Events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			return landing("Could not find this birthday. It might have expired.")
		}
		return landing("Something went wrong loading this birthday.")
	}

	owner, err := r.Tokens.IsOwner(ctx, deviceID, eventID)
	if err != nil {
		return landing("Something went wrong loading this birthday.")
	}
	if !owner && urlToken != "" {
		owner, err = r.Tokens.VerifyDirect(ctx, eventID, urlToken)
		if err != nil {
			return landing("Something went wrong loading this birthday.")
		}
	}

	if owner {
		parts, err := r.Events.Participants(ctx, eventID)
		if err != nil {
			return landing("Something went wrong loading this birthday.")
		}
		return View{Kind: KindDashboard, Event: ev, Persona: ev.Persona(), Participants: parts}
	}

	switch ev.Status {
	case event.StatusCollecting:
		return View{Kind: KindJoin, Event: ev}
	case event.StatusVoting:
		gifts, err := r.Events.Gifts(ctx, eventID)
		if err != nil {
			return landing("Something went wrong loading this birthday.")
		}
		return View{Kind: KindVoting, Event: ev, Persona: ev.Persona(), Gifts: gifts}
	case event.StatusCompleted:
		ranked, err := r.Events.Tally(ctx, eventID)
		if err != nil {
			return landing("Something went wrong loading this birthday.")
		}
		return View{Kind: KindResults, Event: ev, Persona: ev.Persona(), Results: ranked}
	}
	return landing("Something went wrong loading this birthday.")
}

func landing(msg string) View {
	return View{Kind: KindLanding, Message: msg}
}
