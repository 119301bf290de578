package transcript

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/lyceum/core"
)

// Labeler resolves display names and icons for speakers.
type Labeler interface {
	Label(s core.Speaker) string
	Icon(s core.Speaker) string
}

// Options configures a Store.
type Options struct {
	// Clock stamps appended turns; defaults to time.Now.
	Clock func() time.Time
}

// Store is an append-only, clearable turn sequence safe for concurrent use.
// It hands out copies only.
type Store struct {
	mu    sync.RWMutex
	turns []core.Turn
	seq   int
	clock func() time.Time
}

// NewStore creates an empty Store.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{Clock: time.Now}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Store{clock: opts.Clock}
}

// Append stores t at the end of the transcript. It assigns the sequence
// number, and an ID and timestamp when missing, and returns the stored copy.
func (s *Store) Append(t core.Turn) core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t.Seq = s.seq
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = s.clock()
	}
	s.turns = append(s.turns, t)
	return t
}

// Clear discards every turn. Sequence numbers keep increasing across clears.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// All returns the turns in chronological order.
func (s *Store) All() []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Reversed returns the turns newest first.
func (s *Store) Reversed() []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Turn, len(s.turns))
	for i, t := range s.turns {
		out[len(s.turns)-1-i] = t
	}
	return out
}

// At returns the turn at chronological position i.
func (s *Store) At(i int) (core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.turns) {
		return core.Turn{}, fmt.Errorf("%w: turn %d of %d", core.ErrIndexOutOfRange, i, len(s.turns))
	}
	return s.turns[i], nil
}

// Find returns the turn with the given id.
func (s *Store) Find(id string) (core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.turns {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Turn{}, fmt.Errorf("%w: turn %q", core.ErrInvalidReference, id)
}

// Len returns the number of stored turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Option is one entry of the cross-reference selector.
type Option struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

const previewRunes = 60

// SpecialistOptions lists the specialist turns that may be referenced, in
// chronological order. Failure markers are not selectable.
func SpecialistOptions(turns []core.Turn, l Labeler) []Option {
	var out []Option
	for i, t := range turns {
		if !t.Speaker.IsSpecialist() || t.IsFailure() {
			continue
		}
		out = append(out, Option{
			Index: i,
			Label: fmt.Sprintf("%s [%s] — %s…", l.Label(t.Speaker), t.Clock(), Preview(t.Text, previewRunes)),
		})
	}
	return out
}

// Preview returns the first n runes of text on a single line.
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) > n {
		r = r[:n]
	}
	return strings.ReplaceAll(string(r), "\n", " ")
}
