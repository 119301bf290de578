package server

import (
	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/drilldown"
	"github.com/hupe1980/lyceum/forum"
)

// CreateForumRequest starts a forum; Mode is optional.
type CreateForumRequest struct {
	Mode string `json:"mode"`
}

// AddressRequest sends the chair's text to one persona.
type AddressRequest struct {
	Target    string `json:"target" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Document  string `json:"document"`
	PriorTurn *int   `json:"prior_turn" validate:"omitempty,gte=0"`
}

// PollRequest broadcasts the chair's text.
type PollRequest struct {
	Text     string `json:"text" validate:"required"`
	Document string `json:"document"`
}

// FlagRequest flags a passage of a specialist turn.
type FlagRequest struct {
	TurnIndex *int   `json:"turn_index" validate:"required,gte=0"`
	Passage   string `json:"passage" validate:"required"`
}

// DrillDownRequest fires a flagged passage.
type DrillDownRequest struct {
	ItemID      string `json:"item_id"`
	Instruction string `json:"instruction" validate:"required"`
	Target      string `json:"target"`
}

// ModeRequest switches the discourse mode.
type ModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// TurnView is a turn with its display label.
type TurnView struct {
	core.Turn
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// ActionResponse lists the turns an action appended.
type ActionResponse struct {
	Turns []TurnView `json:"turns"`
}

// FailureDetails accompanies a generation failure so the chair can resubmit.
type FailureDetails struct {
	Persona   core.Speaker `json:"persona,omitempty"`
	ChairText string       `json:"chair_text,omitempty"`
	Turns     []TurnView   `json:"turns,omitempty"`
}

// FlagsResponse is the drill-down queue state.
type FlagsResponse struct {
	Items   []drilldown.Item `json:"items"`
	Pending *drilldown.Item  `json:"pending,omitempty"`
}

// PersonaView describes one persona.
type PersonaView struct {
	ID      core.Speaker `json:"id"`
	Name    string       `json:"name"`
	Icon    string       `json:"icon"`
	Summary string       `json:"summary"`
}

// ModeView describes one discourse mode.
type ModeView struct {
	Mode        core.Mode `json:"mode"`
	Description string    `json:"description"`
}

// PersonasResponse lists personas and modes.
type PersonasResponse struct {
	Personas     []PersonaView `json:"personas"`
	Modes        []ModeView    `json:"modes"`
	ModesEnabled bool          `json:"modes_enabled"`
}

// ForumResponse is a forum summary.
type ForumResponse = forum.Summary
