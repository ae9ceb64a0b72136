package profiles

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcamp/datagen/models"
)

var sessionStart = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func TestFlowStrategyZeroProbabilitiesYieldNoEvents(t *testing.T) {
	flow := []string{"a", "b", "c"}
	s, err := NewFlowStrategy(flow, []string{"x"}, map[string]float64{
		"a": 0, "b": 0, "c": 0, "x": 0,
	}, []string{"a", "b", "c", "x"})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		events := s.GenerateSessionEvents(rng, "u1", "s1", sessionStart)
		assert.Empty(t, events)
	}
}

func TestFlowStrategyMissingProbabilityIsZero(t *testing.T) {
	// "b" has no entry at all: the walk must stop there, never panic.
	s, err := NewFlowStrategy([]string{"a", "b"}, nil, map[string]float64{"a": 1}, []string{"a", "b"})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	events := s.GenerateSessionEvents(rng, "u1", "s1", sessionStart)
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].EventName)
}

func TestFlowStrategyDropOffTruncatesFlow(t *testing.T) {
	s, err := NewFlowStrategy([]string{"a", "b", "c"}, nil, map[string]float64{
		"a": 1, "b": 1, "c": 0,
	}, []string{"a", "b", "c"})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	events := s.GenerateSessionEvents(rng, "u1", "s1", sessionStart)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].EventName)
	assert.Equal(t, "b", events[1].EventName)
}

func TestFlowStrategyRejectsUnknownEvents(t *testing.T) {
	_, err := NewFlowStrategy([]string{"a", "nope"}, nil, map[string]float64{}, []string{"a"})
	require.Error(t, err)

	_, err = NewFlowStrategy([]string{"a"}, []string{"ghost"}, map[string]float64{}, []string{"a"})
	require.Error(t, err)
}

func TestStrategiesDeterministicUnderSeed(t *testing.T) {
	for _, p := range NewRegistry().All() {
		p := p
		t.Run(string(p.Vertical), func(t *testing.T) {
			a := p.Strategy.GenerateSessionEvents(rand.New(rand.NewSource(42)), "u1", "s1", sessionStart)
			b := p.Strategy.GenerateSessionEvents(rand.New(rand.NewSource(42)), "u1", "s1", sessionStart)
			assert.Equal(t, a, b)
		})
	}
}

func TestStrategyEventsOrderedAndInVocabulary(t *testing.T) {
	for _, p := range NewRegistry().All() {
		p := p
		t.Run(string(p.Vertical), func(t *testing.T) {
			vocab := make(map[string]bool)
			for _, v := range p.Vocabulary {
				vocab[v] = true
			}

			rng := rand.New(rand.NewSource(99))
			seen := make(map[string]bool)
			for i := 0; i < 200; i++ {
				events := p.Strategy.GenerateSessionEvents(rng, "u1", "s1", sessionStart)
				prev := sessionStart
				for _, e := range events {
					assert.True(t, vocab[e.EventName], "event %q not in vocabulary", e.EventName)
					assert.False(t, e.EventTime.Before(prev), "events out of order")
					assert.False(t, seen[e.EventID], "duplicate event id")
					assert.Equal(t, "u1", e.UserID)
					assert.Equal(t, "s1", e.SessionID)
					seen[e.EventID] = true
					prev = e.EventTime
				}
			}
		})
	}
}

// Funnel consistency: within one session, a later funnel step never fires
// before an earlier one.
func TestStrategyFunnelOrdering(t *testing.T) {
	for _, p := range NewRegistry().All() {
		p := p
		t.Run(string(p.Vertical), func(t *testing.T) {
			rng := rand.New(rand.NewSource(123))
			for i := 0; i < 300; i++ {
				events := p.Strategy.GenerateSessionEvents(rng, "u1", "s1", sessionStart)

				first := make(map[string]time.Time)
				for _, e := range events {
					if _, ok := first[e.EventName]; !ok {
						first[e.EventName] = e.EventTime
					}
				}

				var prev *time.Time
				for _, step := range p.FunnelSteps {
					at, ok := first[step]
					if !ok {
						continue
					}
					if prev != nil {
						assert.False(t, at.Before(*prev),
							"funnel step %q precedes an earlier step", step)
					}
					prev = &at
				}
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	p, err := r.Get(models.VerticalFintech)
	require.NoError(t, err)
	assert.Equal(t, models.VerticalFintech, p.Vertical)
	assert.NotContains(t, p.AllowedKinds, models.AnomalyChannelEfficiencyDecline)

	_, err = r.Get(models.Vertical("gaming"))
	require.Error(t, err)

	assert.Len(t, r.All(), 5)
}

func TestOrderEventsArePartOfVocabulary(t *testing.T) {
	for _, p := range NewRegistry().All() {
		vocab := make(map[string]bool)
		for _, v := range p.Vocabulary {
			vocab[v] = true
		}
		for _, name := range p.OrderEvents {
			assert.True(t, vocab[name], "%s: order event %q missing from vocabulary", p.Vertical, name)
		}
		for _, step := range p.FunnelSteps {
			assert.True(t, vocab[step], "%s: funnel step %q missing from vocabulary", p.Vertical, step)
		}
		assert.True(t, vocab[p.ConversionEvent], "%s: conversion event missing", p.Vertical)
	}
}
