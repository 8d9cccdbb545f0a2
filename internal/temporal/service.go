package temporal

import (
	"context"
	"fmt"
	"time"

	"packhouse-temporal/internal/packhouse"
	"packhouse-temporal/internal/reference"
	"packhouse-temporal/internal/teamdesk"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long an aggregation stays fresh.
const DefaultTTL = 5 * time.Minute

// Snapshot is one cached aggregation for a client.
type Snapshot struct {
	Records        []packhouse.Record
	SourceRowCount int
	ExpiresAt      time.Time
	// Refreshed reports whether the request producing this value ran or
	// joined a refresh.
	Refreshed bool
}

// ConfigSource provides per-client reference data.
type ConfigSource interface {
	Load(slug string) (*reference.ServerConfig, error)
	Invalidate(slug string)
}

// RefreshObserver is told about every completed refresh.
type RefreshObserver interface {
	RefreshCompleted(slug string, elapsed time.Duration, err error)
}

// Service serves aggregated records from a TTL cache, rebuilding them from
// a full TeamDesk fetch on a miss. Concurrent refreshes of the same client
// share one fetch.
type Service struct {
	fetcher teamdesk.Client
	configs ConfigSource
	store   Store[Snapshot]
	ttl     time.Duration
	now     func() time.Time
	obs     RefreshObserver

	group singleflight.Group
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRefreshObserver(obs RefreshObserver) Option {
	return func(s *Service) { s.obs = obs }
}

func NewService(fetcher teamdesk.Client, configs ConfigSource, store Store[Snapshot], ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		fetcher: fetcher,
		configs: configs,
		store:   store,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached snapshot for slug, refreshing it when missing,
// expired or when force is set.
func (s *Service) Get(ctx context.Context, slug string, force bool) (Snapshot, error) {
	if err := reference.ValidateSlug(slug); err != nil {
		return Snapshot{}, err
	}

	if !force {
		if snap, ok := s.store.Get(slug); ok {
			snap.Refreshed = false
			return snap, nil
		}
	}

	// The refresh outlives a cancelled caller so that joined callers still
	// get a result.
	ch := s.group.DoChan(slug, func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx), slug)
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		snap := res.Val.(Snapshot)
		snap.Refreshed = true
		return snap, nil
	}
}

func (s *Service) refresh(ctx context.Context, slug string) (snap Snapshot, err error) {
	start := s.now()
	defer func() {
		if s.obs != nil {
			s.obs.RefreshCompleted(slug, s.now().Sub(start), err)
		}
	}()

	cfg, err := s.configs.Load(slug)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load reference config for %s: %w", slug, err)
	}

	rows, err := s.fetcher.FetchAll(ctx)
	if err != nil {
		log.Error().Err(err).Str("client", slug).Msg("TeamDesk fetch failed")
		return Snapshot{}, err
	}

	records := packhouse.Aggregate(rows, cfg)
	snap = Snapshot{
		Records:        records,
		SourceRowCount: len(rows),
		ExpiresAt:      s.now().Add(s.ttl),
	}
	s.store.Set(slug, snap, s.ttl)

	log.Info().
		Str("client", slug).
		Int("sourceRows", len(rows)).
		Int("records", len(records)).
		Dur("elapsed", s.now().Sub(start)).
		Time("expiresAt", snap.ExpiresAt).
		Msg("Packhouse records refreshed")

	return snap, nil
}

// Invalidate drops the cached records and reference config for slug.
func (s *Service) Invalidate(slug string) {
	s.store.Invalidate(slug)
	s.configs.Invalidate(slug)
	log.Info().Str("client", slug).Msg("Packhouse cache invalidated")
}
