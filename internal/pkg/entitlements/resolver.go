package entitlements

import "github.com/ManuelReschke/ComplyTrack/app/models"

// Resolution answers entitlement questions for one snapshot.
type Resolution struct {
	snap  Snapshot
	phase Phase
}

// Resolve evaluates a snapshot. It performs no I/O.
func Resolve(s Snapshot) *Resolution {
	s.Policy = s.Policy.Normalize()
	return &Resolution{
		snap:  s,
		phase: PilotPhase(s.Pilot, s.At, s.Policy),
	}
}

func (r *Resolution) Snapshot() Snapshot { return r.snap }
func (r *Resolution) Phase() Phase       { return r.phase }
func (r *Resolution) Locked() bool       { return r.phase == PhasePilotLocked }
func (r *Resolution) PilotActive() bool  { return r.phase == PhasePilotActive }
func (r *Resolution) PlanSlug() string   { return r.snap.Plan.Slug }

// HasFeature applies the precedence chain: locked, active pilot, unexpired
// override, subscription status, plan flag. The first rule that matches wins.
func (r *Resolution) HasFeature(f Feature) bool {
	if r.Locked() {
		return false
	}
	if r.PilotActive() {
		return true
	}
	if o, ok := r.snap.Overrides[f]; ok && !overrideExpired(o, r.snap) {
		return o.Granted
	}
	if !models.IsEntitling(r.snap.SubscriptionStatus) {
		return false
	}
	return r.snap.Plan.Features[string(f)]
}

// AccessLevel grades access for features that degrade to read-only when a
// pilot ends without conversion.
func (r *Resolution) AccessLevel(f Feature) AccessLevel {
	if r.HasFeature(f) {
		return AccessFull
	}
	if r.phase == PhasePilotGrace && r.pilotEnded() {
		return AccessReadOnly
	}
	return AccessBlocked
}

// pilotEnded reports whether the pilot window closed before the evaluation
// day. A pilot that has not started yet has not ended.
func (r *Resolution) pilotEnded() bool {
	end := r.snap.Pilot.EndDate
	return end != nil && civilDay(r.snap.At.UTC()).After(civilDay(*end))
}

// AssetQuota is the effective asset ceiling. models.Unlimited means no ceiling.
func (r *Resolution) AssetQuota() int64 {
	if r.PilotActive() {
		return r.snap.Policy.PilotQuota
	}
	return r.snap.Plan.MaxAssets
}

// UserQuota is the effective member ceiling.
func (r *Resolution) UserQuota() int64 {
	if r.PilotActive() {
		return r.snap.Policy.PilotQuota
	}
	return r.snap.Plan.MaxUsers
}

func (r *Resolution) CanCreateAsset() bool {
	if r.Locked() {
		return false
	}
	return withinQuota(r.snap.Usage.Assets, r.AssetQuota())
}

func (r *Resolution) CanInviteUser() bool {
	if r.Locked() {
		return false
	}
	return withinQuota(r.snap.Usage.Users, r.UserQuota())
}

func withinQuota(current, quota int64) bool {
	if quota == models.Unlimited {
		return true
	}
	return current < quota
}

func overrideExpired(o Override, s Snapshot) bool {
	return o.ExpiresAt != nil && !s.At.Before(*o.ExpiresAt)
}
