package testutil

import (
	"time"

	"github.com/hupe1980/lyceum/core"
)

// TurnBuilder provides a fluent helper for constructing turns in tests.
// Example:
//
//	t := NewTurnBuilder().Speaker(core.SpeakerGeneticist).Text("hello").Mode(core.ModeLab).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type TurnBuilder struct {
	id      string
	speaker core.Speaker
	kind    core.TurnKind
	text    string
	mode    core.Mode
	at      time.Time
}

// NewTurnBuilder creates a builder for a chair chat turn in the default mode.
func NewTurnBuilder() *TurnBuilder {
	return &TurnBuilder{speaker: core.SpeakerChair, kind: core.TurnChat, mode: core.DefaultMode}
}

// ID overrides the auto-generated turn ID (chainable).
func (b *TurnBuilder) ID(id string) *TurnBuilder { b.id = id; return b }

// Speaker sets the author (chainable).
func (b *TurnBuilder) Speaker(s core.Speaker) *TurnBuilder { b.speaker = s; return b }

// Kind sets the turn kind (chainable).
func (b *TurnBuilder) Kind(k core.TurnKind) *TurnBuilder { b.kind = k; return b }

// Text sets the turn text (chainable).
func (b *TurnBuilder) Text(t string) *TurnBuilder { b.text = t; return b }

// Mode sets the discourse mode stamp (chainable).
func (b *TurnBuilder) Mode(m core.Mode) *TurnBuilder { b.mode = m; return b }

// At sets the timestamp (chainable).
func (b *TurnBuilder) At(t time.Time) *TurnBuilder { b.at = t; return b }

// Failure marks the turn as a failure marker (chainable).
func (b *TurnBuilder) Failure() *TurnBuilder { b.kind = core.TurnFailure; return b }

// Build returns the core.Turn value.
func (b *TurnBuilder) Build() core.Turn {
	t := core.NewPersonaTurn(b.speaker, b.kind, b.text, b.mode)
	if b.id != "" {
		t.ID = b.id
	}
	t.Timestamp = b.at
	return t
}

// Exchange builds the chair/persona pair of one direct address.
func Exchange(target core.Speaker, question, reply string) []core.Turn {
	return []core.Turn{
		NewTurnBuilder().Text(question).Build(),
		NewTurnBuilder().Speaker(target).Text(reply).Build(),
	}
}
