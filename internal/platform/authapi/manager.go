package authapi

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bandscope-backend/internal/common/logger"
)

type ChangeEvent string

const (
	EventSignedIn       ChangeEvent = "SIGNED_IN"
	EventSignedOut      ChangeEvent = "SIGNED_OUT"
	EventTokenRefreshed ChangeEvent = "TOKEN_REFRESHED"
)

// Change is a live session-change notification: a sign-in, a sign-out or a
// token refresh, possibly originating from another holder of the same store.
type Change struct {
	Event   ChangeEvent
	Session *Session
}

// Store persists the current session between runs so a restart can resume
// an existing login.
type Store interface {
	Load(ctx context.Context) (*StoredSession, error) // nil, nil when absent
	Save(ctx context.Context, s *StoredSession) error
	Clear(ctx context.Context) error
}

// Manager owns the current session on top of Client: it persists sessions,
// keeps the access token fresh, and publishes Change events the way the
// hosted SDKs surface auth-state changes.
type Manager struct {
	client *Client
	store  Store
	log    zerolog.Logger

	mu      sync.Mutex
	current *StoredSession

	changes chan Change
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewManager(client *Client, store Store) *Manager {
	return &Manager{
		client:  client,
		store:   store,
		log:     logger.With("authapi"),
		changes: make(chan Change, 8),
		done:    make(chan struct{}),
	}
}

// Changes returns the live notification stream. The channel is buffered;
// events are dropped rather than blocking the refresh loop if nobody reads.
func (m *Manager) Changes() <-chan Change {
	return m.changes
}

func (m *Manager) emit(ev ChangeEvent, s *Session) {
	select {
	case m.changes <- Change{Event: ev, Session: s}:
	default:
		m.log.Warn().Str("event", string(ev)).Msg("change channel full, dropping event")
	}
}

func stamp(s *Session) *StoredSession {
	if s == nil {
		return nil
	}
	ttl := time.Duration(s.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StoredSession{Session: *s, ExpiresAt: time.Now().Add(ttl)}
}

func (m *Manager) setCurrent(ctx context.Context, s *StoredSession) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	if s == nil {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warn().Err(err).Msg("failed to clear persisted session")
		}
		return
	}
	if err := m.store.Save(ctx, s); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist session")
	}
}

// CurrentSession returns the persisted session, refreshing it first when the
// access token has expired. A missing or unrecoverable session is nil, nil:
// bootstrap failures degrade to unauthenticated rather than erroring.
func (m *Manager) CurrentSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()

	if cur == nil {
		stored, err := m.store.Load(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to load persisted session")
			return nil, nil
		}
		cur = stored
	}
	if cur == nil {
		return nil, nil
	}

	if time.Until(cur.ExpiresAt) <= 0 {
		refreshed, err := m.client.RefreshSession(ctx, cur.RefreshToken)
		if err != nil {
			m.log.Info().Err(err).Msg("stale session could not be refreshed")
			m.setCurrent(ctx, nil)
			return nil, nil
		}
		cur = stamp(refreshed)
	}

	m.setCurrent(ctx, cur)
	return &cur.Session, nil
}

// AccessToken returns the current bearer token, or "" when signed out.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.AccessToken
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := m.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.setCurrent(ctx, stamp(sess))
	m.emit(EventSignedIn, sess)
	return sess, nil
}

func (m *Manager) SignUp(ctx context.Context, email, password, role string) (*Session, error) {
	sess, err := m.client.SignUp(ctx, email, password, role)
	if err != nil {
		return nil, err
	}
	// Confirmation-required deployments return a user without tokens; only a
	// usable session becomes current.
	if sess.AccessToken != "" {
		m.setCurrent(ctx, stamp(sess))
		m.emit(EventSignedIn, sess)
	}
	return sess, nil
}

func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	token := ""
	if m.current != nil {
		token = m.current.AccessToken
	}
	m.mu.Unlock()

	m.setCurrent(ctx, nil)
	m.emit(EventSignedOut, nil)

	if token == "" {
		return nil
	}
	return m.client.SignOut(ctx, token)
}

// Start launches the token refresh loop. It refreshes shortly before expiry
// and emits TOKEN_REFRESHED, which is how downstream consumers observe
// session changes made elsewhere.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.refreshIfNeeded(ctx)
			case <-ctx.Done():
				return
			case <-m.done:
				return
			}
		}
	}()
}

func (m *Manager) refreshIfNeeded(ctx context.Context) {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur == nil || time.Until(cur.ExpiresAt) > time.Minute {
		return
	}

	refreshed, err := m.client.RefreshSession(ctx, cur.RefreshToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("token refresh failed")
		return
	}
	m.setCurrent(ctx, stamp(refreshed))
	m.emit(EventTokenRefreshed, refreshed)
}

func (m *Manager) Close() {
	close(m.done)
	m.wg.Wait()
	close(m.changes)
}
