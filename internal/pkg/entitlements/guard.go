package entitlements

import "github.com/ManuelReschke/ComplyTrack/internal/pkg/metrics"

// Reason explains a denial to the client so it can prompt an upgrade or an unlock.
type Reason string

const (
	ReasonAccountLocked   Reason = "account_locked"
	ReasonUpgradeRequired Reason = "upgrade_required"
	ReasonReadOnly        Reason = "read_only"
	ReasonQuotaExceeded   Reason = "quota_exceeded"
)

// Decision is the outcome of a gate.
type Decision struct {
	Allowed     bool        `json:"allowed"`
	Reason      Reason      `json:"reason,omitempty"`
	Feature     string      `json:"feature,omitempty"`
	CurrentPlan string      `json:"currentPlan,omitempty"`
	AccessLevel AccessLevel `json:"accessLevel,omitempty"`
}

// RequireFeature admits full and read-only access.
func RequireFeature(r *Resolution, f Feature) Decision {
	level := r.AccessLevel(f)
	d := decision(r, f, level)
	if level == AccessBlocked {
		d.Reason = denyReason(r)
	} else {
		d.Allowed = true
	}
	metrics.RecordDecision(string(f), d.Allowed)
	return d
}

// RequireWriteAccess admits only full access.
func RequireWriteAccess(r *Resolution, f Feature) Decision {
	level := r.AccessLevel(f)
	d := decision(r, f, level)
	switch level {
	case AccessFull:
		d.Allowed = true
	case AccessReadOnly:
		d.Reason = ReasonReadOnly
	default:
		d.Reason = denyReason(r)
	}
	metrics.RecordDecision(string(f), d.Allowed)
	return d
}

// RequireAssetSlot checks that one more asset fits the effective quota.
func RequireAssetSlot(r *Resolution) Decision {
	return quotaDecision(r, r.CanCreateAsset(), "assets")
}

// RequireMemberSlot checks that one more member fits the effective quota.
func RequireMemberSlot(r *Resolution) Decision {
	return quotaDecision(r, r.CanInviteUser(), "members")
}

func quotaDecision(r *Resolution, ok bool, what string) Decision {
	d := Decision{Allowed: ok, Feature: what, CurrentPlan: r.PlanSlug()}
	if !ok {
		if r.Locked() {
			d.Reason = ReasonAccountLocked
		} else {
			d.Reason = ReasonQuotaExceeded
		}
	}
	metrics.RecordDecision(what, ok)
	return d
}

func decision(r *Resolution, f Feature, level AccessLevel) Decision {
	return Decision{
		Feature:     string(f),
		CurrentPlan: r.PlanSlug(),
		AccessLevel: level,
	}
}

func denyReason(r *Resolution) Reason {
	if r.Locked() {
		return ReasonAccountLocked
	}
	return ReasonUpgradeRequired
}
