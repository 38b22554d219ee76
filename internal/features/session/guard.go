package session

import "time"

// Route targets the guards redirect to.
const (
	RouteHome         = "/"
	RouteLogin        = "/login"
	RouteProfileSetup = "/profile-setup"
)

// Outcome is a guard's verdict for a navigation attempt.
type Outcome string

const (
	// OutcomeRender lets the requested route through.
	OutcomeRender Outcome = "render"
	// OutcomeLoading holds the navigation while resolution is in flight.
	OutcomeLoading Outcome = "loading"
	// OutcomeRedirect sends the caller to Decision.RedirectTo instead.
	OutcomeRedirect Outcome = "redirect"
)

type Decision struct {
	Outcome    Outcome
	RedirectTo string
}

func render() Decision            { return Decision{Outcome: OutcomeRender} }
func loading() Decision           { return Decision{Outcome: OutcomeLoading} }
func redirect(to string) Decision { return Decision{Outcome: OutcomeRedirect, RedirectTo: to} }

// PublicGuard protects login and signup style routes: any authenticated
// caller goes home, where the protected guard takes over onboarding routing.
func PublicGuard(snap Snapshot) Decision {
	switch {
	case snap.Resolving():
		return loading()
	case snap.Authenticated():
		return redirect(RouteHome)
	default:
		return render()
	}
}

// OnboardingGuard protects the profile-setup route: it needs a session but
// must not be reachable once the profile is complete.
func OnboardingGuard(snap Snapshot) Decision {
	if snap.Resolving() {
		return loading()
	}
	if !snap.Authenticated() {
		return redirect(RouteLogin)
	}
	if snap.Profile.IsComplete() {
		return redirect(RouteHome)
	}
	return render()
}

// ProtectedGuard gates routes that need a complete profile. It is stateful:
// when an authenticated caller arrives with no profile at all, the guard
// holds the navigation for a short grace window before concluding the
// profile truly does not exist, because the profile fetch may still be
// settling right after sign-in. The grace applies only to a nil profile; an
// existing-but-incomplete profile redirects to onboarding immediately.
type ProtectedGuard struct {
	graceWindow time.Duration
	graceStart  time.Time
}

func NewProtectedGuard(graceWindow time.Duration) *ProtectedGuard {
	if graceWindow <= 0 {
		graceWindow = 400 * time.Millisecond
	}
	return &ProtectedGuard{graceWindow: graceWindow}
}

func (g *ProtectedGuard) Evaluate(snap Snapshot, now time.Time) Decision {
	if snap.Resolving() {
		g.graceStart = time.Time{}
		return loading()
	}
	if !snap.Authenticated() {
		g.graceStart = time.Time{}
		return redirect(RouteLogin)
	}

	if snap.Profile == nil {
		if g.graceStart.IsZero() {
			g.graceStart = now
		}
		if now.Sub(g.graceStart) < g.graceWindow {
			return loading()
		}
		return redirect(RouteProfileSetup)
	}

	g.graceStart = time.Time{}
	if !snap.Profile.IsComplete() {
		return redirect(RouteProfileSetup)
	}
	return render()
}
