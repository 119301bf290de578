package persona

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/internal/util"
	"gopkg.in/yaml.v3"
)

// PaperMarker is the leading line of a paper-draft message. The moderator
// contract refers to it through the {{.PaperMarker}} template field, so the
// router and the contract text always agree on the exact string.
const PaperMarker = "DRAFT OUTPUT PAPER"

//go:embed personas.yaml
var defaultDocument []byte

// Contract is the behavioural contract of one persona.
type Contract struct {
	ID          core.Speaker
	DisplayName string
	Icon        string
	Summary     string
	Instruction string
}

// ModeModifier alters every contract while its mode is active.
type ModeModifier struct {
	Mode        core.Mode
	Description string
	Modifier    string
}

// Options configures a Registry.
type Options struct {
	// DisableModes turns the discourse-mode subsystem off: Compose then
	// returns base instructions unmodified whatever mode is passed.
	DisableModes bool
}

// Registry maps persona identifiers to contracts. It is immutable after
// construction.
type Registry struct {
	opts      Options
	contracts map[core.Speaker]Contract
	modes     map[core.Mode]ModeModifier
	chair     Contract
}

type document struct {
	Chair struct {
		Name string `yaml:"name"`
		Icon string `yaml:"icon"`
	} `yaml:"chair"`
	Modes []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Modifier    string `yaml:"modifier"`
	} `yaml:"modes"`
	Personas []struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Icon        string `yaml:"icon"`
		Summary     string `yaml:"summary"`
		Instruction string `yaml:"instruction"`
	} `yaml:"personas"`
}

// New returns the registry built from the embedded default contracts.
func New(optFns ...func(o *Options)) (*Registry, error) {
	return Parse(defaultDocument, optFns...)
}

// LoadFile builds a registry from a YAML document on disk.
func LoadFile(path string, optFns ...func(o *Options)) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read persona file: %v", core.ErrConfiguration, err)
	}
	return Parse(data, optFns...)
}

// Parse builds a registry from a YAML document. The document must declare
// every persona of the closed set exactly once and, unless modes are
// disabled, a modifier for every discourse mode.
func Parse(data []byte, optFns ...func(o *Options)) (*Registry, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse persona document: %v", core.ErrConfiguration, err)
	}

	r := &Registry{
		opts:      opts,
		contracts: make(map[core.Speaker]Contract, len(doc.Personas)),
		modes:     make(map[core.Mode]ModeModifier, len(doc.Modes)),
		chair:     Contract{ID: core.SpeakerChair, DisplayName: doc.Chair.Name, Icon: doc.Chair.Icon},
	}
	if r.chair.DisplayName == "" {
		r.chair.DisplayName = "Forum Chair"
	}

	for _, p := range doc.Personas {
		id, err := core.ParseSpeaker(p.ID)
		if err != nil {
			return nil, err
		}
		if _, dup := r.contracts[id]; dup {
			return nil, fmt.Errorf("%w: persona %q declared twice", core.ErrConfiguration, id)
		}
		if strings.TrimSpace(p.Instruction) == "" || p.Name == "" {
			return nil, fmt.Errorf("%w: persona %q needs a name and an instruction", core.ErrConfiguration, id)
		}
		r.contracts[id] = Contract{ID: id, DisplayName: p.Name, Icon: p.Icon, Summary: p.Summary, Instruction: p.Instruction}
	}
	for _, id := range core.Personas() {
		if _, ok := r.contracts[id]; !ok {
			return nil, fmt.Errorf("%w: persona %q missing", core.ErrConfiguration, id)
		}
	}

	for _, m := range doc.Modes {
		mode, err := core.ParseMode(m.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrConfiguration, err)
		}
		r.modes[mode] = ModeModifier{Mode: mode, Description: m.Description, Modifier: strings.TrimSpace(m.Modifier)}
	}
	if !opts.DisableModes {
		for _, mode := range core.Modes() {
			if _, ok := r.modes[mode]; !ok {
				return nil, fmt.Errorf("%w: modifier for mode %q missing", core.ErrConfiguration, mode)
			}
		}
	}

	if err := r.render(); err != nil {
		return nil, err
	}

	return r, nil
}

// render expands instruction templates once so lookups stay pure.
func (r *Registry) render() error {
	data := struct {
		Specialists []Contract
		PaperMarker string
	}{
		Specialists: r.Specialists(),
		PaperMarker: PaperMarker,
	}
	for id, c := range r.contracts {
		text, err := util.RenderTemplate(string(id), c.Instruction, data)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrConfiguration, err)
		}
		c.Instruction = strings.TrimSpace(text)
		r.contracts[id] = c
	}
	return nil
}

// Get returns the contract for a persona. Unknown identifiers (including the
// chair, who has no contract) fail with core.ErrUnknownPersona.
func (r *Registry) Get(id core.Speaker) (Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return Contract{}, fmt.Errorf("%w: %q", core.ErrUnknownPersona, id)
	}
	return c, nil
}

// Compose returns the system instruction for a persona under mode. An empty
// mode, or a registry with modes disabled, yields the base instruction.
func (r *Registry) Compose(id core.Speaker, mode core.Mode) (string, error) {
	c, err := r.Get(id)
	if err != nil {
		return "", err
	}
	if r.opts.DisableModes || mode == "" {
		return c.Instruction, nil
	}
	m, ok := r.modes[mode]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownMode, mode)
	}
	return c.Instruction + "\n\n" + m.Modifier, nil
}

// ModesEnabled reports whether Compose applies mode modifiers.
func (r *Registry) ModesEnabled() bool { return !r.opts.DisableModes }

// Modes returns the mode modifiers in presentation order.
func (r *Registry) Modes() []ModeModifier {
	out := make([]ModeModifier, 0, len(r.modes))
	for _, mode := range core.Modes() {
		if m, ok := r.modes[mode]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Specialists returns the specialist contracts in declared poll sequence.
func (r *Registry) Specialists() []Contract {
	out := make([]Contract, 0, 3)
	for _, id := range core.Specialists() {
		out = append(out, r.contracts[id])
	}
	return out
}

// Contracts returns every persona contract, moderator first.
func (r *Registry) Contracts() []Contract {
	out := make([]Contract, 0, len(r.contracts))
	for _, id := range core.Personas() {
		out = append(out, r.contracts[id])
	}
	return out
}

// Label returns the display name for any speaker, the chair included.
func (r *Registry) Label(s core.Speaker) string {
	if s == core.SpeakerChair {
		return r.chair.DisplayName
	}
	if c, ok := r.contracts[s]; ok {
		return c.DisplayName
	}
	return string(s)
}

// Icon returns the display icon for any speaker, the chair included.
func (r *Registry) Icon(s core.Speaker) string {
	if s == core.SpeakerChair {
		return r.chair.Icon
	}
	return r.contracts[s].Icon
}

// Lookup resolves a persona by identifier or display name, ignoring case.
func (r *Registry) Lookup(name string) (core.Speaker, error) {
	name = strings.TrimSpace(name)
	if id, err := core.ParseSpeaker(name); err == nil {
		return id, nil
	}
	for _, c := range r.Contracts() {
		if strings.EqualFold(c.DisplayName, name) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownPersona, name)
}
