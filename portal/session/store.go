package session

import (
	"context"
	"sync"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/form"
	"github.com/google/uuid"
)

// StoreConfig configures new sessions.
type StoreConfig struct {
	Defaults      form.Defaults
	SubmitTimeout time.Duration // zero waits for the node indefinitely
	IdleTTL       time.Duration // zero keeps sessions until deleted
}

// Store keeps the live sessions by id.
type Store struct {
	resolver form.OptionsResolver
	config   StoreConfig
	deps     *deps

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(
	resolver form.OptionsResolver,
	connector Connector,
	submitter Submitter,
	publisher Publisher,
	observer Observer,
	config StoreConfig,
) *Store {
	return &Store{
		resolver: observedResolver{inner: resolver, observer: observer},
		config:   config,
		deps: &deps{
			connector:     connector,
			submitter:     submitter,
			publisher:     publisher,
			observer:      observer,
			submitTimeout: config.SubmitTimeout,
		},
		sessions: make(map[string]*Session),
	}
}

// Create starts a session with a fresh form. A default pair the registry
// cannot resolve leaves the form without options instead of failing.
func (st *Store) Create() *Session {
	f, err := form.New(st.resolver, st.config.Defaults)
	if err != nil {
		log.Warn().Err(err).
			Str("origin", string(st.config.Defaults.Origin)).
			Str("destination", string(st.config.Defaults.Destination)).
			Msg("Default chain pair has no currency options")
	}

	s := &Session{
		id:       uuid.NewString(),
		deps:     st.deps,
		selected: -1,
		form:     f,
		touched:  time.Now(),
	}

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()

	if st.deps.observer != nil {
		st.deps.observer.SessionOpened()
	}
	log.Debug().Str("session", s.id).Msg("Session created")
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Snapshot implements events.SnapshotFunc.
func (st *Store) Snapshot(id string) (any, bool) {
	s, err := st.Get(id)
	if err != nil {
		return nil, false
	}
	return s.Snapshot(), true
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return
	}
	if d, ok := st.deps.publisher.(interface{ Drop(sessionID string) }); ok {
		d.Drop(id)
	}
	if st.deps.observer != nil {
		st.deps.observer.SessionClosed()
	}
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep deletes sessions idle for longer than the configured TTL. Sessions
// with a submission in flight are kept.
func (st *Store) Sweep(now time.Time) int {
	if st.config.IdleTTL <= 0 {
		return 0
	}

	st.mu.RLock()
	var expired []string
	for id, s := range st.sessions {
		if !s.Busy() && now.Sub(s.idleSince()) > st.config.IdleTTL {
			expired = append(expired, id)
		}
	}
	st.mu.RUnlock()

	for _, id := range expired {
		st.Delete(id)
	}
	if len(expired) > 0 {
		log.Debug().Int("expired", len(expired)).Msg("Swept idle sessions")
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if st.config.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			st.Sweep(now)
		}
	}
}
