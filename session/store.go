package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/forum"
	"github.com/hupe1980/lyceum/logging"
)

const (
	// DefaultTTL is how long an untouched forum survives.
	DefaultTTL = 12 * time.Hour
	// DefaultCleanupInterval is how often expired forums are purged.
	DefaultCleanupInterval = 10 * time.Minute
)

// Options configures a Store.
type Options struct {
	// TTL of an idle forum. Negative disables expiry.
	TTL             time.Duration
	CleanupInterval time.Duration
	// ForumOptions are applied to every forum the store creates.
	ForumOptions []func(o *forum.Options)
	Logger       logging.Logger
}

// Store is a concurrency-safe registry of forums keyed by id.
type Store struct {
	cache  *cache.Cache
	opts   Options
	logger logging.Logger
}

// NewStore constructs an empty Store.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		TTL:             DefaultTTL,
		CleanupInterval: DefaultCleanupInterval,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	ttl := opts.TTL
	if ttl < 0 {
		ttl = cache.NoExpiration
	}

	s := &Store{
		cache:  cache.New(ttl, opts.CleanupInterval),
		opts:   opts,
		logger: logging.WithComponent(opts.Logger, "session"),
	}

	s.cache.OnEvicted(func(id string, _ interface{}) {
		s.logger.Info("Forum expired", "forum_id", id)
	})

	return s
}

// Create starts a new forum. Per-call options are applied after the store defaults.
func (s *Store) Create(optFns ...func(o *forum.Options)) *forum.Forum {
	fns := make([]func(o *forum.Options), 0, len(s.opts.ForumOptions)+len(optFns))
	fns = append(fns, s.opts.ForumOptions...)
	fns = append(fns, optFns...)

	f := forum.New(fns...)
	s.cache.Set(f.ID, f, cache.DefaultExpiration)

	s.logger.Info("Forum created", "forum_id", f.ID, "mode", f.Mode())

	return f
}

// Get returns the forum with the given id and refreshes its expiry.
func (s *Store) Get(id string) (*forum.Forum, error) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %q", core.ErrForumNotFound, id)
	}
	f := x.(*forum.Forum)
	// Replace fails when a concurrent Delete already removed the forum.
	if err := s.cache.Replace(id, f, cache.DefaultExpiration); err != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrForumNotFound, id)
	}
	return f, nil
}

// Delete removes a forum. Deleting an unknown id reports ErrForumNotFound.
func (s *Store) Delete(id string) error {
	if _, found := s.cache.Get(id); !found {
		return fmt.Errorf("%w: %q", core.ErrForumNotFound, id)
	}
	s.cache.Delete(id)
	return nil
}

// List returns summaries of all live forums, oldest first.
func (s *Store) List() []forum.Summary {
	items := s.cache.Items()
	out := make([]forum.Summary, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*forum.Forum).Summarize())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Count returns the number of live forums.
func (s *Store) Count() int { return s.cache.ItemCount() }
