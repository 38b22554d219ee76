package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func authenticatedSnapshot(profile State) Snapshot {
	userID := uuid.New()
	snap := Snapshot{State: profile, Session: sessionFor(userID)}
	switch profile {
	case StateAuthenticatedWithProfile:
		snap.Profile = completeProfile(userID)
	case StateAuthenticatedNoProfile:
		// Profile left nil: the row does not exist yet.
	}
	return snap
}

func TestPublicGuard(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want Decision
	}{
		{"unauthenticated renders", Snapshot{State: StateUnauthenticated}, render()},
		{"loading holds", Snapshot{State: StateLoading}, loading()},
		{"uninitialized holds", Snapshot{State: StateUninitialized}, loading()},
		{"complete profile goes home", authenticatedSnapshot(StateAuthenticatedWithProfile), redirect(RouteHome)},
		{"missing profile also goes home", authenticatedSnapshot(StateAuthenticatedNoProfile), redirect(RouteHome)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicGuard(tt.snap))
		})
	}
}

func TestOnboardingGuard(t *testing.T) {
	userID := uuid.New()
	incomplete := Snapshot{
		State:   StateAuthenticatedNoProfile,
		Session: sessionFor(userID),
		Profile: incompleteProfile(userID),
	}

	tests := []struct {
		name string
		snap Snapshot
		want Decision
	}{
		{"loading holds", Snapshot{State: StateLoading}, loading()},
		{"unauthenticated goes to login", Snapshot{State: StateUnauthenticated}, redirect(RouteLogin)},
		{"no profile renders the form", authenticatedSnapshot(StateAuthenticatedNoProfile), render()},
		{"incomplete profile renders the form", incomplete, render()},
		{"complete profile goes home", authenticatedSnapshot(StateAuthenticatedWithProfile), redirect(RouteHome)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OnboardingGuard(tt.snap))
		})
	}
}

func TestProtectedGuardBasics(t *testing.T) {
	now := time.Now()

	g := NewProtectedGuard(400 * time.Millisecond)
	assert.Equal(t, loading(), g.Evaluate(Snapshot{State: StateLoading}, now))
	assert.Equal(t, redirect(RouteLogin), g.Evaluate(Snapshot{State: StateUnauthenticated}, now))
	assert.Equal(t, render(), g.Evaluate(authenticatedSnapshot(StateAuthenticatedWithProfile), now))
}

func TestProtectedGuardGraceWindow(t *testing.T) {
	now := time.Now()
	snap := authenticatedSnapshot(StateAuthenticatedNoProfile) // nil profile

	g := NewProtectedGuard(400 * time.Millisecond)

	// The missing profile is tolerated while the fetch may still settle.
	assert.Equal(t, loading(), g.Evaluate(snap, now))
	assert.Equal(t, loading(), g.Evaluate(snap, now.Add(399*time.Millisecond)))

	// Past the window the absence is treated as real.
	assert.Equal(t, redirect(RouteProfileSetup), g.Evaluate(snap, now.Add(400*time.Millisecond)))
}

func TestProtectedGuardGraceResolvesWhenProfileArrives(t *testing.T) {
	now := time.Now()
	userID := uuid.New()
	pending := Snapshot{State: StateAuthenticatedNoProfile, Session: sessionFor(userID)}
	resolved := Snapshot{
		State:   StateAuthenticatedWithProfile,
		Session: sessionFor(userID),
		Profile: completeProfile(userID),
	}

	g := NewProtectedGuard(400 * time.Millisecond)
	assert.Equal(t, loading(), g.Evaluate(pending, now))
	assert.Equal(t, render(), g.Evaluate(resolved, now.Add(200*time.Millisecond)))

	// The grace window is re-armed for the next nil-profile episode.
	assert.Equal(t, loading(), g.Evaluate(pending, now.Add(10*time.Second)))
}

func TestProtectedGuardIncompleteProfileSkipsGrace(t *testing.T) {
	now := time.Now()
	userID := uuid.New()
	snap := Snapshot{
		State:   StateAuthenticatedNoProfile,
		Session: sessionFor(userID),
		Profile: incompleteProfile(userID),
	}

	g := NewProtectedGuard(400 * time.Millisecond)
	// An existing row with unfinished onboarding is not a race; redirect
	// immediately instead of burning the grace window.
	assert.Equal(t, redirect(RouteProfileSetup), g.Evaluate(snap, now))
}
