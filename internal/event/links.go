package event

import "strings"

// ShareLinks are the two shareable URL variants for an event. The
// participant link carries only the event id; the organizer link
// additionally carries the capability token. Handing out the wrong
// variant either locks the organizer out or leaks the capability, so
// the exact contents are part of the contract.
type ShareLinks struct {
	Participant string `json:"participantLink"`
	Organizer   string `json:"organizerLink"`
}

// Links builds both link variants against the public base URL.
func Links(baseURL string, ev *Event) ShareLinks {
	participant := strings.TrimRight(baseURL, "/") + "/#/b/" + ev.ID
	return ShareLinks{
		Participant: participant,
		Organizer:   participant + "?token=" + ev.OrganizerToken,
	}
}
