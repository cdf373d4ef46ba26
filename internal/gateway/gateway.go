// Package gateway is the contract with the external gift-and-persona
// generator. Its output is untrusted text: everything coming back is
// parsed strictly and rejected outright when malformed, so corrupt data
// never reaches the store.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedOutput means the generator replied but the payload did
	// not parse into the expected shape. The generation attempt failed
	// as a whole; the organizer may retry.
	ErrMalformedOutput = errors.New("gateway returned malformed output")
	// ErrUnavailable means the generator could not be reached or replied
	// with a server error.
	ErrUnavailable = errors.New("gateway unavailable")
)

type Budget struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// GenerateRequest carries the assembled aggregate to the generator.
type GenerateRequest struct {
	FriendName       string                    `json:"friendName"`
	Budget           Budget                    `json:"budget"`
	AllAnswers       map[string]map[int]string `json:"allAnswers"`
	ParticipantNames map[string]string         `json:"participantNames"`
}

// Gift is the generator's view of one suggestion, before it is assigned
// an ordinal id and persisted.
type Gift struct {
	Name          string `json:"name"`
	PriceEstimate string `json:"priceEstimate"`
	Reason        string `json:"reason"`
	PurchaseLink  string `json:"purchaseLink,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
}

// Persona is the generated recipient profile as the generator shapes it.
type Persona struct {
	Vibe        string   `json:"vibe"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

type GenerateResult struct {
	Persona Persona `json:"persona"`
	Gifts   []Gift  `json:"gifts"`
}

// Generator produces a persona and gift ideas from the aggregate.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// Validate checks a parsed result against the contract: persona needs a
// vibe, a description and at least one trait; every gift needs a name, a
// price estimate and a reason. The nominal gift count is 8-10 but any
// count >= 0 is tolerated.
func Validate(res *GenerateResult) error {
	if res == nil {
		return fmt.Errorf("%w: empty result", ErrMalformedOutput)
	}
	if strings.TrimSpace(res.Persona.Vibe) == "" || strings.TrimSpace(res.Persona.Description) == "" {
		return fmt.Errorf("%w: persona missing vibe or description", ErrMalformedOutput)
	}
	if len(res.Persona.Traits) == 0 {
		return fmt.Errorf("%w: persona has no traits", ErrMalformedOutput)
	}
	for i, g := range res.Gifts {
		if strings.TrimSpace(g.Name) == "" || strings.TrimSpace(g.PriceEstimate) == "" || strings.TrimSpace(g.Reason) == "" {
			return fmt.Errorf("%w: gift %d missing required fields", ErrMalformedOutput, i+1)
		}
	}
	return nil
}
