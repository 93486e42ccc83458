package entitlements

import "time"

// Phase is the derived pilot lifecycle state. It is never stored; it is
// recomputed from the pilot dates on every evaluation.
type Phase string

const (
	PhaseNotAPilot   Phase = "not_a_pilot"
	PhasePilotActive Phase = "pilot_active"
	PhasePilotGrace  Phase = "pilot_grace"
	PhasePilotLocked Phase = "pilot_locked"
)

// PilotPhase derives the lifecycle phase at the given instant.
func PilotPhase(p Pilot, now time.Time, policy Policy) Phase {
	if !p.IsPilot {
		return PhaseNotAPilot
	}
	policy = policy.Normalize()
	today := civilDay(now.UTC())

	started := p.StartDate == nil || !today.Before(civilDay(*p.StartDate))
	notEnded := p.EndDate == nil || !today.After(civilDay(*p.EndDate))
	if started && notEnded {
		return PhasePilotActive
	}

	ended := p.EndDate != nil && today.After(civilDay(*p.EndDate))
	if ended && !p.ConvertedToPaid {
		// A missing start is unbounded in the past, so the threshold has always elapsed.
		if p.StartDate == nil || daysBetween(civilDay(*p.StartDate), today) > policy.LockAfterDays {
			return PhasePilotLocked
		}
	}
	return PhasePilotGrace
}

// DaysRemaining returns the whole days left in an active pilot, 0 otherwise.
// The end date itself counts as a pilot day, so a pilot ending today has 0 days remaining.
func DaysRemaining(p Pilot, now time.Time, policy Policy) int {
	if PilotPhase(p, now, policy) != PhasePilotActive || p.EndDate == nil {
		return 0
	}
	return daysBetween(civilDay(now.UTC()), civilDay(*p.EndDate))
}

// PilotWindow returns the date-only pilot window starting on the given day.
func PilotWindow(start time.Time, policy Policy) (time.Time, time.Time) {
	policy = policy.Normalize()
	s := civilDay(start.UTC())
	return s, s.AddDate(0, 0, policy.TrialDays)
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
