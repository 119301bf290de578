package core

import "time"

// DrillDownItem is a passage the chair flagged from an earlier specialist
// turn. ID is stable for the item's whole life; positions in the queue are
// only a presentation convenience.
type DrillDownItem struct {
	ID            string    `json:"id"`
	SourceSpeaker Speaker   `json:"source_speaker"`
	SourceLabel   string    `json:"source_label"`
	SourceTurnID  string    `json:"source_turn_id"`
	FlaggedText   string    `json:"flagged_text"`
	CreatedAt     time.Time `json:"created_at"`
}
