// Package navigation decides which screen group a user may be in. The guard
// is a pure function of an auth state snapshot and the current group; the
// caller performs the actual redirect.
package navigation

import "tella/app/internal/authstate"

// Group names a partition of the UI the guard reasons about. Targets are
// specific entry screens; current positions are compared at group level
// except for the two onboarding steps, which are matched exactly.
type Group string

const (
	GroupAuth       Group = "auth"
	GroupOnboarding Group = "onboarding"
	GroupApp        Group = "app"

	// Targets the guard can point at.
	TargetAuthWelcome     Group = "auth/welcome"
	TargetOnboardingLikes Group = "onboarding/likes"
	TargetOnboardingPlan  Group = "onboarding/plan"
	TargetAppHome         Group = "app/home"
)

// prefix of g's group portion, e.g. "auth" for "auth/welcome".
func (g Group) top() Group {
	for i := 0; i < len(g); i++ {
		if g[i] == '/' {
			return g[:i]
		}
	}
	return g
}

// Decision is the guard's output. Redirect is meaningful only when Decided
// is true; an undecided result means the caller keeps showing a loading
// affordance. A decided result with Redirect == "" means the current group
// is already correct.
type Decision struct {
	Decided  bool
	Redirect Group
}

func stay() Decision            { return Decision{Decided: true} }
func redirect(g Group) Decision { return Decision{Decided: true, Redirect: g} }

// Decide evaluates the onboarding policy in strict order, first match wins:
// uninitialized yields no decision; no user sends to the auth flow; a
// missing profile after initialization is the anomalous state and gets no
// redirect (the caller surfaces a fatal screen); otherwise likes, then plan,
// then the main app. Repeated calls with an unchanged state and an
// already-correct current group always yield no redirect.
func Decide(state authstate.State, current Group) Decision {
	switch state.Status() {
	case authstate.StatusUninitialized:
		return Decision{}
	case authstate.StatusUnauthenticated:
		if current.top() == GroupAuth {
			return stay()
		}
		return redirect(TargetAuthWelcome)
	case authstate.StatusProfileMissing:
		// Logged inconsistency with no automatic recovery. Redirecting
		// here would loop; the caller shows the error surface instead.
		return stay()
	}

	switch {
	case !state.HasLikes():
		if current == TargetOnboardingLikes {
			return stay()
		}
		return redirect(TargetOnboardingLikes)
	case !state.HasPlan():
		if current == TargetOnboardingPlan {
			return stay()
		}
		return redirect(TargetOnboardingPlan)
	default:
		if current.top() == GroupApp {
			return stay()
		}
		return redirect(TargetAppHome)
	}
}
