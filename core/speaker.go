package core

import (
	"fmt"
	"strings"
)

// Speaker identifies the author of a Turn. The set is closed: three
// specialists, the moderator and the human chair.
type Speaker string

const (
	// SpeakerGeneticist is the molecular reductionist specialist.
	SpeakerGeneticist Speaker = "genetics"
	// SpeakerSystems is the dynamic systems specialist.
	SpeakerSystems Speaker = "systems"
	// SpeakerPredictive is the predictive processing specialist.
	SpeakerPredictive Speaker = "predictive"
	// SpeakerOrchestrator is the moderator persona.
	SpeakerOrchestrator Speaker = "orchestrator"
	// SpeakerChair is the human Forum Chair.
	SpeakerChair Speaker = "human"
)

// Specialists returns the specialist speakers in their declared poll sequence.
func Specialists() []Speaker {
	return []Speaker{SpeakerGeneticist, SpeakerSystems, SpeakerPredictive}
}

// Personas returns every speaker backed by a persona contract, moderator first.
func Personas() []Speaker {
	return append([]Speaker{SpeakerOrchestrator}, Specialists()...)
}

// IsSpecialist reports whether s is one of the three specialists.
func (s Speaker) IsSpecialist() bool {
	switch s {
	case SpeakerGeneticist, SpeakerSystems, SpeakerPredictive:
		return true
	default:
		return false
	}
}

// IsPersona reports whether s can be addressed by the chair.
func (s Speaker) IsPersona() bool {
	return s.IsSpecialist() || s == SpeakerOrchestrator
}

// Valid reports whether s belongs to the closed speaker set.
func (s Speaker) Valid() bool {
	return s.IsPersona() || s == SpeakerChair
}

func (s Speaker) String() string { return string(s) }

// ParseSpeaker resolves a persona identifier (case-insensitive). The chair is
// not addressable and therefore rejected like any unknown id.
func ParseSpeaker(id string) (Speaker, error) {
	s := Speaker(strings.ToLower(strings.TrimSpace(id)))
	if !s.IsPersona() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPersona, id)
	}
	return s, nil
}
