package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bandscope-backend/internal/common/logger"
	"bandscope-backend/internal/common/validation"
	"bandscope-backend/internal/features/profile/models"
	"bandscope-backend/internal/platform/authapi"
)

// State is the resolved authentication position of a client session.
type State string

const (
	// StateUninitialized is the pre-bootstrap state; nothing is known yet.
	StateUninitialized State = "uninitialized"
	// StateLoading means a session or profile resolution is in flight.
	StateLoading State = "loading"
	// StateUnauthenticated means there is no usable session.
	StateUnauthenticated State = "unauthenticated"
	// StateAuthenticatedNoProfile means the session is valid but the
	// profile row is missing or onboarding has not finished.
	StateAuthenticatedNoProfile State = "authenticated_no_profile"
	// StateAuthenticatedWithProfile means the session is valid and the
	// profile is complete.
	StateAuthenticatedWithProfile State = "authenticated_with_profile"
)

// Snapshot is an immutable view of the machine at one instant. Guards and
// callers decide off a snapshot, never off the live machine internals.
type Snapshot struct {
	State   State
	Session *authapi.Session
	Profile *models.Profile
}

// Authenticated reports whether the snapshot carries a usable session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticatedNoProfile || s.State == StateAuthenticatedWithProfile
}

// Resolving reports whether the machine has not yet settled.
func (s Snapshot) Resolving() bool {
	return s.State == StateUninitialized || s.State == StateLoading
}

var ErrNotSignedIn = errors.New("no active session")

// AuthBackend is the slice of authapi.Manager the machine drives.
type AuthBackend interface {
	CurrentSession(ctx context.Context) (*authapi.Session, error)
	SignIn(ctx context.Context, email, password string) (*authapi.Session, error)
	SignUp(ctx context.Context, email, password, role string) (*authapi.Session, error)
	SignOut(ctx context.Context) error
	Changes() <-chan authapi.Change
}

// ProfileFetcher resolves the profile row for an auth user. Nil means "no
// profile after the retry bound"; absence is not an error on this path.
type ProfileFetcher interface {
	GetByUserIDWithRetry(ctx context.Context, userID uuid.UUID) *models.Profile
}

// SignupNotifier delivers the post-signup notification. Best effort only.
type SignupNotifier interface {
	NotifySignup(ctx context.Context, email, role, userID string) error
}

// AccountDeleter removes the auth user and everything hanging off it.
type AccountDeleter interface {
	DeleteAccount(ctx context.Context, accessToken string) error
}

// Config carries the machine's timing knobs.
type Config struct {
	BootstrapTimeout time.Duration
}

// Machine resolves and tracks a client session: bootstrap from the persisted
// session, live change events from the auth backend, and the profile row
// that decides whether onboarding is done. All transitions funnel through
// reconcile, and a stale resolution never overwrites a newer one.
type Machine struct {
	auth     AuthBackend
	profiles ProfileFetcher
	notifier SignupNotifier
	deleter  AccountDeleter
	cfg      Config
	log      zerolog.Logger

	mu   sync.Mutex
	snap Snapshot
	// signedOut is set by an explicit sign-out and cleared by the next
	// sign-in. While set, a stale session surfacing from bootstrap or a
	// late change event must not re-authenticate the machine.
	signedOut bool
	// gen orders resolutions: each transition-initiating action takes a
	// new generation, and a resolution commits only if it is still the
	// newest. Last writer wins.
	gen uint64

	done chan struct{}
	wg   sync.WaitGroup
}

func NewMachine(auth AuthBackend, profiles ProfileFetcher, notifier SignupNotifier, deleter AccountDeleter, cfg Config) *Machine {
	if cfg.BootstrapTimeout <= 0 {
		cfg.BootstrapTimeout = 5 * time.Second
	}
	return &Machine{
		auth:     auth,
		profiles: profiles,
		notifier: notifier,
		deleter:  deleter,
		cfg:      cfg,
		log:      logger.With("session"),
		snap:     Snapshot{State: StateUninitialized},
		done:     make(chan struct{}),
	}
}

// Snapshot returns the current view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// begin starts a new resolution generation and flips the machine into the
// loading state when it was not already settled on newer information.
func (m *Machine) begin(loading bool) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if loading {
		m.snap.State = StateLoading
	}
	return m.gen
}

// commit applies a resolved snapshot unless a newer resolution has started.
func (m *Machine) commit(gen uint64, snap Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	if snap.Authenticated() && m.signedOut {
		// The user signed out while this resolution was in flight.
		m.snap = Snapshot{State: StateUnauthenticated}
		return false
	}
	m.snap = snap
	return true
}

// Start bootstraps the machine from the persisted session and begins
// consuming live change events. The bootstrap is bounded: if resolution has
// not settled within BootstrapTimeout the machine falls back to
// unauthenticated instead of holding callers in loading forever.
func (m *Machine) Start(ctx context.Context) {
	gen := m.begin(true)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		bctx, cancel := context.WithTimeout(ctx, m.cfg.BootstrapTimeout)
		defer cancel()

		sess, err := m.auth.CurrentSession(bctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("bootstrap session load failed")
			sess = nil
		}
		m.resolve(bctx, gen, sess)
	}()

	timer := time.AfterFunc(m.cfg.BootstrapTimeout, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen == m.gen && m.snap.Resolving() {
			m.log.Warn().Dur("timeout", m.cfg.BootstrapTimeout).Msg("bootstrap timed out, treating as signed out")
			m.snap = Snapshot{State: StateUnauthenticated}
		}
	})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer timer.Stop()
		m.consumeChanges(ctx)
	}()
}

func (m *Machine) consumeChanges(ctx context.Context) {
	for {
		select {
		case change, ok := <-m.auth.Changes():
			if !ok {
				return
			}
			m.handleChange(ctx, change)
		case <-ctx.Done():
			return
		case <-m.done:
			return
		}
	}
}

func (m *Machine) handleChange(ctx context.Context, change authapi.Change) {
	switch change.Event {
	case authapi.EventSignedOut:
		gen := m.begin(false)
		m.commit(gen, Snapshot{State: StateUnauthenticated})
	case authapi.EventSignedIn, authapi.EventTokenRefreshed:
		m.mu.Lock()
		ignore := m.signedOut
		m.mu.Unlock()
		if ignore {
			// A late event for a session the user already abandoned.
			m.log.Debug().Str("event", string(change.Event)).Msg("dropping change after explicit sign-out")
			return
		}
		gen := m.begin(true)
		m.resolve(ctx, gen, change.Session)
	}
}

// resolve turns a session (possibly nil) into a settled snapshot: no session
// means unauthenticated, a session means fetching the profile row and
// classifying by onboarding completeness.
func (m *Machine) resolve(ctx context.Context, gen uint64, sess *authapi.Session) {
	if sess == nil || sess.User == nil {
		m.commit(gen, Snapshot{State: StateUnauthenticated})
		return
	}

	var profile *models.Profile
	if userID, err := uuid.Parse(sess.User.ID); err == nil {
		profile = m.profiles.GetByUserIDWithRetry(ctx, userID)
	} else {
		m.log.Warn().Str("user_id", sess.User.ID).Msg("session user id is not a uuid")
	}

	m.commit(gen, classify(sess, profile))
}

func classify(sess *authapi.Session, profile *models.Profile) Snapshot {
	snap := Snapshot{Session: sess, Profile: profile}
	if profile.IsComplete() {
		snap.State = StateAuthenticatedWithProfile
	} else {
		snap.State = StateAuthenticatedNoProfile
	}
	return snap
}

// SignIn authenticates and resolves the resulting session synchronously. A
// failed sign-in leaves the machine exactly where it was.
func (m *Machine) SignIn(ctx context.Context, email, password string) (Snapshot, error) {
	sess, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return m.Snapshot(), err
	}

	m.mu.Lock()
	m.signedOut = false
	m.mu.Unlock()

	gen := m.begin(true)
	m.resolve(ctx, gen, sess)
	return m.Snapshot(), nil
}

// SignUp registers a new account after local validation. The signup
// notification is fire and forget: a notification failure never affects the
// returned state.
func (m *Machine) SignUp(ctx context.Context, email, password, role string) (Snapshot, error) {
	if !models.ValidRole(models.Role(role)) {
		return m.Snapshot(), errors.New("invalid role")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return m.Snapshot(), err
	}
	if failed := validation.FailedPasswordRequirements(password); len(failed) > 0 {
		return m.Snapshot(), errors.New("password does not meet requirements: " + strings.Join(failed, ", "))
	}

	sess, err := m.auth.SignUp(ctx, email, password, role)
	if err != nil {
		return m.Snapshot(), err
	}

	if m.notifier != nil {
		userID := ""
		if sess.User != nil {
			userID = sess.User.ID
		}
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := m.notifier.NotifySignup(nctx, email, role, userID); err != nil {
				m.log.Warn().Err(err).Msg("signup notification failed")
			}
		}()
	}

	if sess.AccessToken == "" {
		// Email confirmation pending; no usable session yet.
		gen := m.begin(false)
		m.commit(gen, Snapshot{State: StateUnauthenticated})
		return m.Snapshot(), nil
	}

	m.mu.Lock()
	m.signedOut = false
	m.mu.Unlock()

	gen := m.begin(true)
	m.resolve(ctx, gen, sess)
	return m.Snapshot(), nil
}

// SignOut drops the session optimistically: local state flips to
// unauthenticated immediately and stays there even if the backend call
// fails, and any in-flight resolution for the old session is discarded.
func (m *Machine) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.signedOut = true
	m.gen++
	m.snap = Snapshot{State: StateUnauthenticated}
	m.mu.Unlock()

	if err := m.auth.SignOut(ctx); err != nil {
		m.log.Warn().Err(err).Msg("backend sign-out failed, local session already dropped")
		return err
	}
	return nil
}

// DeleteAccount invokes the account deletion function for the current
// session and, on success, signs out locally. On failure the session is
// left intact so the user can retry.
func (m *Machine) DeleteAccount(ctx context.Context) error {
	snap := m.Snapshot()
	if !snap.Authenticated() || snap.Session == nil {
		return ErrNotSignedIn
	}

	if err := m.deleter.DeleteAccount(ctx, snap.Session.AccessToken); err != nil {
		return err
	}
	return m.SignOut(ctx)
}

// SetProfile installs a freshly written profile without a refetch, used
// right after an onboarding or edit save. No-op when signed out.
func (m *Machine) SetProfile(profile *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.snap.Authenticated() {
		return
	}
	m.gen++
	m.snap = classify(m.snap.Session, profile)
}

// RefreshProfile refetches the profile row for the current session.
func (m *Machine) RefreshProfile(ctx context.Context) Snapshot {
	snap := m.Snapshot()
	if !snap.Authenticated() || snap.Session == nil {
		return snap
	}
	gen := m.begin(true)
	m.resolve(ctx, gen, snap.Session)
	return m.Snapshot()
}

// Close stops the change consumer and waits for in-flight work.
func (m *Machine) Close() {
	close(m.done)
	m.wg.Wait()
}
