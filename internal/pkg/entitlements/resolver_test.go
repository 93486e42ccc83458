package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/ComplyTrack/app/models"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func professional() PlanLimits {
	return PlanLimits{
		Slug:      "professional",
		MaxAssets: 500,
		MaxUsers:  10,
		Features:  map[string]bool{"compliance": true, "reporting": true},
	}
}

func snapshot(mut func(*Snapshot)) Snapshot {
	s := Snapshot{
		OrganizationID:     1,
		HasSubscription:    true,
		SubscriptionStatus: models.SubscriptionStatusActive,
		Plan:               professional(),
		Overrides:          map[Feature]Override{},
		At:                 testNow,
		Policy:             DefaultPolicy(),
	}
	if mut != nil {
		mut(&s)
	}
	return s
}

func lockedPilot() Pilot {
	return Pilot{IsPilot: true, StartDate: ptr(testNow.AddDate(0, 0, -40)), EndDate: ptr(testNow.AddDate(0, 0, -25))}
}

func activePilot() Pilot {
	return Pilot{IsPilot: true, StartDate: ptr(testNow.AddDate(0, 0, -2)), EndDate: ptr(testNow.AddDate(0, 0, 13))}
}

func gracePilot() Pilot {
	return Pilot{IsPilot: true, StartDate: ptr(testNow.AddDate(0, 0, -20)), EndDate: ptr(testNow.AddDate(0, 0, -5))}
}

func TestHasFeaturePrecedence(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	past := testNow.Add(-time.Hour)

	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{name: "plan grants", snap: snapshot(nil), want: true},
		{name: "plan lacks feature", snap: snapshot(func(s *Snapshot) { s.Plan.Features = map[string]bool{} }), want: false},
		{name: "locked beats override", snap: snapshot(func(s *Snapshot) {
			s.Pilot = lockedPilot()
			s.Overrides[FeatureCompliance] = Override{Granted: true}
		}), want: false},
		{name: "locked beats active plan", snap: snapshot(func(s *Snapshot) { s.Pilot = lockedPilot() }), want: false},
		{name: "active pilot beats revoking override", snap: snapshot(func(s *Snapshot) {
			s.Pilot = activePilot()
			s.Overrides[FeatureCompliance] = Override{Granted: false}
		}), want: true},
		{name: "active pilot ignores status", snap: snapshot(func(s *Snapshot) {
			s.Pilot = activePilot()
			s.SubscriptionStatus = models.SubscriptionStatusCancelled
			s.Plan.Features = map[string]bool{}
		}), want: true},
		{name: "override grants despite cancelled", snap: snapshot(func(s *Snapshot) {
			s.SubscriptionStatus = models.SubscriptionStatusCancelled
			s.Overrides[FeatureCompliance] = Override{Granted: true, ExpiresAt: &future}
		}), want: true},
		{name: "override revokes plan feature", snap: snapshot(func(s *Snapshot) {
			s.Overrides[FeatureCompliance] = Override{Granted: false}
		}), want: false},
		{name: "expired override falls through to plan", snap: snapshot(func(s *Snapshot) {
			s.Overrides[FeatureCompliance] = Override{Granted: false, ExpiresAt: &past}
		}), want: true},
		{name: "override expiring now is expired", snap: snapshot(func(s *Snapshot) {
			at := testNow
			s.Overrides[FeatureCompliance] = Override{Granted: true, ExpiresAt: &at}
			s.Plan.Features = map[string]bool{}
		}), want: false},
		{name: "past due denies", snap: snapshot(func(s *Snapshot) { s.SubscriptionStatus = models.SubscriptionStatusPastDue }), want: false},
		{name: "expired denies", snap: snapshot(func(s *Snapshot) { s.SubscriptionStatus = models.SubscriptionStatusExpired }), want: false},
		{name: "trialing uses plan", snap: snapshot(func(s *Snapshot) { s.SubscriptionStatus = models.SubscriptionStatusTrialing }), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.snap).HasFeature(FeatureCompliance))
		})
	}
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, AccessFull, Resolve(snapshot(nil)).AccessLevel(FeatureCompliance))

	grace := Resolve(snapshot(func(s *Snapshot) {
		s.Pilot = gracePilot()
		s.SubscriptionStatus = models.SubscriptionStatusTrialing
		s.Plan.Features = map[string]bool{}
	}))
	assert.Equal(t, PhasePilotGrace, grace.Phase())
	assert.Equal(t, AccessReadOnly, grace.AccessLevel(FeatureCompliance))

	locked := Resolve(snapshot(func(s *Snapshot) { s.Pilot = lockedPilot() }))
	assert.Equal(t, AccessBlocked, locked.AccessLevel(FeatureCompliance))

	notStarted := Resolve(snapshot(func(s *Snapshot) {
		s.Pilot = Pilot{IsPilot: true, StartDate: ptr(testNow.AddDate(0, 0, 3)), EndDate: ptr(testNow.AddDate(0, 0, 18))}
		s.SubscriptionStatus = models.SubscriptionStatusTrialing
		s.Plan.Features = map[string]bool{}
	}))
	assert.Equal(t, PhasePilotGrace, notStarted.Phase())
	assert.Equal(t, AccessBlocked, notStarted.AccessLevel(FeatureCompliance), "read-only only after the pilot ended")

	noPilot := Resolve(snapshot(func(s *Snapshot) { s.Plan.Features = map[string]bool{} }))
	assert.Equal(t, AccessBlocked, noPilot.AccessLevel(FeatureCompliance))
}

func TestQuotas(t *testing.T) {
	t.Run("below plan quota", func(t *testing.T) {
		r := Resolve(snapshot(func(s *Snapshot) { s.Usage = Usage{Assets: 499, Users: 9} }))
		assert.True(t, r.CanCreateAsset())
		assert.True(t, r.CanInviteUser())
	})

	t.Run("at plan quota", func(t *testing.T) {
		r := Resolve(snapshot(func(s *Snapshot) { s.Usage = Usage{Assets: 500, Users: 10} }))
		assert.False(t, r.CanCreateAsset())
		assert.False(t, r.CanInviteUser())
	})

	t.Run("unlimited", func(t *testing.T) {
		r := Resolve(snapshot(func(s *Snapshot) {
			s.Plan.MaxAssets = models.Unlimited
			s.Plan.MaxUsers = models.Unlimited
			s.Usage = Usage{Assets: 1_000_000, Users: 1_000_000}
		}))
		assert.True(t, r.CanCreateAsset())
		assert.True(t, r.CanInviteUser())
		assert.Equal(t, models.Unlimited, r.AssetQuota())
	})

	t.Run("active pilot uses pilot quota", func(t *testing.T) {
		r := Resolve(snapshot(func(s *Snapshot) {
			s.Pilot = activePilot()
			s.Plan.MaxAssets = 5
			s.Usage = Usage{Assets: 49}
		}))
		assert.Equal(t, int64(DefaultPilotQuota), r.AssetQuota())
		assert.True(t, r.CanCreateAsset())

		r = Resolve(snapshot(func(s *Snapshot) {
			s.Pilot = activePilot()
			s.Plan.MaxAssets = models.Unlimited
			s.Usage = Usage{Assets: 50}
		}))
		assert.False(t, r.CanCreateAsset())
	})

	t.Run("locked denies regardless of usage", func(t *testing.T) {
		r := Resolve(snapshot(func(s *Snapshot) {
			s.Pilot = lockedPilot()
			s.Plan.MaxAssets = models.Unlimited
			s.Plan.MaxUsers = models.Unlimited
		}))
		assert.False(t, r.CanCreateAsset())
		assert.False(t, r.CanInviteUser())
	})
}

func TestResolveNormalizesPolicy(t *testing.T) {
	r := Resolve(snapshot(func(s *Snapshot) {
		s.Policy = Policy{}
		s.Pilot = activePilot()
	}))
	assert.Equal(t, int64(DefaultPilotQuota), r.AssetQuota())
}

func TestParseFeature(t *testing.T) {
	f, ok := ParseFeature(" Audit_Trail ")
	assert.True(t, ok)
	assert.Equal(t, FeatureAuditTrail, f)

	_, ok = ParseFeature("teleportation")
	assert.False(t, ok)

	_, ok = ParseFeature("")
	assert.False(t, ok)
}
