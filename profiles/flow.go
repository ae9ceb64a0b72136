package profiles

import (
	"fmt"
	"math/rand"
	"time"

	"sqlcamp/datagen/models"
)

// FlowStrategy is the generic flow-based generation discipline: walk an
// ordered main flow where each step must pass its probability gate or the
// walk ends (drop-off), then independently gate each ancillary event.
//
// Probabilities missing from the table count as 0.0 and never fire.
type FlowStrategy struct {
	Flow          []string
	Extra         []string
	Probabilities map[string]float64
	StepMinSec    int
	StepMaxSec    int
}

// NewFlowStrategy validates the flow against the vertical's vocabulary.
// Every name referenced by the flow or the ancillary list must be part of
// the vocabulary; this is a configuration error, caught at load.
func NewFlowStrategy(flow, extra []string, probs map[string]float64, vocabulary []string) (*FlowStrategy, error) {
	known := make(map[string]bool, len(vocabulary))
	for _, v := range vocabulary {
		known[v] = true
	}
	for _, name := range flow {
		if !known[name] {
			return nil, fmt.Errorf("flow event %q not in vocabulary", name)
		}
	}
	for _, name := range extra {
		if !known[name] {
			return nil, fmt.Errorf("ancillary event %q not in vocabulary", name)
		}
	}
	return &FlowStrategy{
		Flow:          flow,
		Extra:         extra,
		Probabilities: probs,
		StepMinSec:    5,
		StepMaxSec:    120,
	}, nil
}

func (s *FlowStrategy) prob(name string) float64 {
	return s.Probabilities[name]
}

func (s *FlowStrategy) GenerateSessionEvents(rng *rand.Rand, userID, sessionID string, start time.Time) []models.Event {
	clock := newSessionClock(rng, start)
	var events []models.Event

	for _, name := range s.Flow {
		if !gate(rng, s.prob(name)) {
			break
		}
		events = append(events, newEvent(rng, userID, sessionID, name, clock.advance(s.StepMinSec, s.StepMaxSec)))
	}

	for _, name := range s.Extra {
		if gate(rng, s.prob(name)) {
			events = append(events, newEvent(rng, userID, sessionID, name, clock.advance(s.StepMinSec, s.StepMaxSec)))
		}
	}

	return sortEvents(events)
}
