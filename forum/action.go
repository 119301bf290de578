package forum

import "github.com/hupe1980/lyceum/core"

// Action is a chair command. The set is closed: DirectAddress, PollAll,
// DrillDown and PaperDraft.
type Action interface {
	isAction()
	// Name identifies the action in logs.
	Name() string
}

// DirectAddress sends the chair's text to one persona. With PriorTurn set it
// is a cross-reference: the referenced specialist turn is re-injected so the
// target engages with its exact wording.
type DirectAddress struct {
	Target core.Speaker
	Text   string
	// Document overrides the forum's staged anchor document.
	Document  string
	PriorTurn *int
}

// PollAll sends the chair's text to the moderator, then to every specialist
// in turn.
type PollAll struct {
	Text     string
	Document string
}

// DrillDown fires a flagged passage with an instruction.
type DrillDown struct {
	// ItemID selects the item; empty fires the pending item.
	ItemID      string
	Instruction string
	// Target defaults to the persona that wrote the passage.
	Target core.Speaker
}

// PaperDraft asks the moderator to write up the whole transcript.
type PaperDraft struct{}

func (DirectAddress) isAction() {}

// Name implements Action.
func (a DirectAddress) Name() string {
	if a.PriorTurn != nil {
		return "cross_reference"
	}
	return "address"
}

func (PollAll) isAction() {}

// Name implements Action.
func (PollAll) Name() string { return "poll_all" }

func (DrillDown) isAction() {}

// Name implements Action.
func (DrillDown) Name() string { return "drilldown" }

func (PaperDraft) isAction() {}

// Name implements Action.
func (PaperDraft) Name() string { return "paper_draft" }

// Ref returns a pointer to i, for DirectAddress.PriorTurn.
func Ref(i int) *int { return &i }
