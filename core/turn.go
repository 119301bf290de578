package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TurnKind classifies how a Turn came about.
type TurnKind string

const (
	// TurnChat is an ordinary chair query or persona reply.
	TurnChat TurnKind = "chat"
	// TurnDrillDown is the chair turn summarising a fired drill-down.
	TurnDrillDown TurnKind = "drilldown"
	// TurnPaper is a moderator turn holding a drafted paper.
	TurnPaper TurnKind = "paper"
	// TurnFailure marks a persona turn whose generation failed.
	TurnFailure TurnKind = "failure"
)

// Turn is one entry of a forum transcript. After it has been appended it is
// treated as immutable; stores only ever hand out copies.
//
// Seq is the 1-based append sequence assigned by the transcript store and
// defines the total order. It is never reused after a clear, unlike the
// 0-based position used to reference turns. Mode records the discourse mode in force when the turn was
// produced and never follows later mode changes.
type Turn struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Speaker   Speaker   `json:"speaker"`
	Kind      TurnKind  `json:"kind"`
	Text      string    `json:"text"`
	Mode      Mode      `json:"mode,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChairTurn creates a chair turn holding exactly what the chair typed.
func NewChairTurn(text string, mode Mode) Turn {
	return Turn{ID: NewID(), Speaker: SpeakerChair, Kind: TurnChat, Text: text, Mode: mode}
}

// NewPersonaTurn creates a persona turn holding generated text.
func NewPersonaTurn(speaker Speaker, kind TurnKind, text string, mode Mode) Turn {
	return Turn{ID: NewID(), Speaker: speaker, Kind: kind, Text: text, Mode: mode}
}

// NewFailureTurn creates the visible marker appended in place of a persona
// reply whose generation failed.
func NewFailureTurn(speaker Speaker, cause error, mode Mode) Turn {
	return Turn{
		ID:      NewID(),
		Speaker: speaker,
		Kind:    TurnFailure,
		Text:    fmt.Sprintf("[generation failed: %v]", cause),
		Mode:    mode,
	}
}

// IsFailure reports whether the turn is a failure marker.
func (t Turn) IsFailure() bool { return t.Kind == TurnFailure }

// Clock renders the timestamp the way transcripts display it.
func (t Turn) Clock() string { return t.Timestamp.Format("15:04") }

// NewID generates a new unique identifier for turns, items and forums.
func NewID() string { return uuid.NewString() }
