package core

import (
	"fmt"
	"strings"
)

// Mode is the discourse mode altering the register of every persona contract.
type Mode string

const (
	// ModeConference asks for fully worked, evidenced positions.
	ModeConference Mode = "Conference"
	// ModeWorkshop permits developed positions that show their working.
	ModeWorkshop Mode = "Workshop"
	// ModeLab is speculative and brief.
	ModeLab Mode = "Lab"
)

// DefaultMode is the mode a new forum starts in.
const DefaultMode = ModeWorkshop

// Modes returns the closed set of discourse modes in presentation order.
func Modes() []Mode { return []Mode{ModeConference, ModeWorkshop, ModeLab} }

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeConference, ModeWorkshop, ModeLab:
		return true
	default:
		return false
	}
}

func (m Mode) String() string { return string(m) }

// ParseMode resolves a mode name case-insensitively.
func ParseMode(name string) (Mode, error) {
	for _, m := range Modes() {
		if strings.EqualFold(string(m), strings.TrimSpace(name)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
}
