package profiles

import (
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: whatever the probability table, the flow-event portion of a
// generated session is a prefix of the declared flow, and timestamps never
// go backwards.
func TestProperty_FlowPrefixAndMonotonicTime(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	flow := []string{"step1", "step2", "step3", "step4"}
	extra := []string{"side1", "side2"}
	vocab := append(append([]string{}, flow...), extra...)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	properties.Property("flow events form a prefix and times are monotonic", prop.ForAll(
		func(p1, p2, p3, p4, pSide float64, seed int64) bool {
			s, err := NewFlowStrategy(flow, extra, map[string]float64{
				"step1": p1, "step2": p2, "step3": p3, "step4": p4,
				"side1": pSide, "side2": pSide,
			}, vocab)
			if err != nil {
				return false
			}

			events := s.GenerateSessionEvents(rand.New(rand.NewSource(seed)), "u", "s", start)

			isFlow := map[string]int{"step1": 0, "step2": 1, "step3": 2, "step4": 3}
			next := 0
			prev := start
			for _, e := range events {
				if e.EventTime.Before(prev) {
					return false
				}
				prev = e.EventTime
				if idx, ok := isFlow[e.EventName]; ok {
					if idx != next {
						return false
					}
					next++
				}
			}
			return true
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
		gen.Int64(),
	))

	properties.Property("zero probabilities always yield the empty session", prop.ForAll(
		func(seed int64) bool {
			s, err := NewFlowStrategy(flow, extra, map[string]float64{}, vocab)
			if err != nil {
				return false
			}
			return len(s.GenerateSessionEvents(rand.New(rand.NewSource(seed)), "u", "s", start)) == 0
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
