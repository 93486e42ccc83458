package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestPilotPhase(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	policy := DefaultPolicy()

	tests := []struct {
		name  string
		pilot Pilot
		want  Phase
	}{
		{name: "not a pilot", pilot: Pilot{StartDate: ptr(day(2025, 3, 1))}, want: PhaseNotAPilot},
		{name: "inside window", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2025, 3, 1)), EndDate: ptr(day(2025, 3, 16))}, want: PhasePilotActive},
		{name: "start day is active", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2025, 3, 10)), EndDate: ptr(day(2025, 3, 25))}, want: PhasePilotActive},
		{name: "end day is active", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2025, 2, 23)), EndDate: ptr(day(2025, 3, 10))}, want: PhasePilotActive},
		{name: "no dates is active", pilot: Pilot{IsPilot: true}, want: PhasePilotActive},
		{name: "open start", pilot: Pilot{IsPilot: true, EndDate: ptr(day(2025, 3, 20))}, want: PhasePilotActive},
		{name: "open end", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2025, 1, 1))}, want: PhasePilotActive},
		{name: "ended within lock threshold", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2025, 2, 20)), EndDate: ptr(day(2025, 3, 7))}, want: PhasePilotGrace},
		{name: "exactly at lock threshold", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2025, 2, 8)), EndDate: ptr(day(2025, 2, 23))}, want: PhasePilotGrace},
		{name: "past lock threshold", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2025, 2, 7)), EndDate: ptr(day(2025, 2, 22))}, want: PhasePilotLocked},
		{name: "converted never locks", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2024, 1, 1)), EndDate: ptr(day(2024, 1, 16)), ConvertedToPaid: true}, want: PhasePilotGrace},
		{name: "missing start locks once ended", pilot: Pilot{IsPilot: true, EndDate: ptr(day(2025, 3, 9))}, want: PhasePilotLocked},
		{name: "before start is grace", pilot: Pilot{IsPilot: true, StartDate: ptr(day(2025, 4, 1)), EndDate: ptr(day(2025, 4, 16))}, want: PhasePilotGrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PilotPhase(tt.pilot, now, policy))
		})
	}
}

func TestPilotPhaseIgnoresTimeOfDay(t *testing.T) {
	p := Pilot{IsPilot: true, StartDate: ptr(day(2025, 3, 1)), EndDate: ptr(day(2025, 3, 16))}

	assert.Equal(t, PhasePilotActive, PilotPhase(p, time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC), DefaultPolicy()))
	assert.Equal(t, PhasePilotGrace, PilotPhase(p, time.Date(2025, 3, 17, 0, 0, 1, 0, time.UTC), DefaultPolicy()))

	// stored dates may come back in a non-UTC location
	berlin := time.FixedZone("CET", 3600)
	p.EndDate = ptr(time.Date(2025, 3, 16, 0, 0, 0, 0, berlin))
	assert.Equal(t, PhasePilotActive, PilotPhase(p, time.Date(2025, 3, 16, 12, 0, 0, 0, time.UTC), DefaultPolicy()))
}

func TestDaysRemaining(t *testing.T) {
	now := day(2025, 3, 10)
	p := Pilot{IsPilot: true, StartDate: ptr(now), EndDate: ptr(now.AddDate(0, 0, 15))}

	assert.Equal(t, 15, DaysRemaining(p, now, DefaultPolicy()))
	assert.Equal(t, 0, DaysRemaining(p, now.AddDate(0, 0, 15), DefaultPolicy()))
	assert.Equal(t, 0, DaysRemaining(p, now.AddDate(0, 0, 16), DefaultPolicy()))
	assert.Equal(t, 0, DaysRemaining(Pilot{IsPilot: true}, now, DefaultPolicy()))
}

func TestPilotWindow(t *testing.T) {
	start, end := PilotWindow(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), DefaultPolicy())
	assert.Equal(t, day(2025, 3, 10), start)
	assert.Equal(t, day(2025, 3, 25), end)
}

func TestPolicyNormalize(t *testing.T) {
	p := Policy{LockAfterDays: 45}.Normalize()
	assert.Equal(t, DefaultTrialDays, p.TrialDays)
	assert.Equal(t, 45, p.LockAfterDays)
	assert.Equal(t, int64(DefaultPilotQuota), p.PilotQuota)
}
