package event_test

import (
	"testing"

	"github.com/bibihez/moos/internal/event"

	"github.com/stretchr/testify/assert"
)

func TestLinks(t *testing.T) {
	ev := &event.Event{ID: "bday-abc123", OrganizerToken: "tok-secret"}

	links := event.Links("https://moos.example", ev)
	assert.Equal(t, "https://moos.example/#/b/bday-abc123", links.Participant)
	assert.Equal(t, "https://moos.example/#/b/bday-abc123?token=tok-secret", links.Organizer)

	// trailing slash on the base does not double up
	links = event.Links("https://moos.example/", ev)
	assert.Equal(t, "https://moos.example/#/b/bday-abc123", links.Participant)
}
