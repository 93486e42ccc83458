package entitlements

import "time"

type SubscriptionSummary struct {
	Status           string     `json:"status"`
	Plan             string     `json:"plan"`
	BillingCycle     string     `json:"billingCycle,omitempty"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
}

type UsageSummary struct {
	Assets       int64 `json:"assets"`
	MaxAssets    int64 `json:"maxAssets"`
	LimitReached bool  `json:"limitReached"`
}

// Summary is the read model behind the subscription endpoint.
type Summary struct {
	Subscription             SubscriptionSummary `json:"subscription"`
	Usage                    UsageSummary        `json:"usage"`
	IsPilot                  bool                `json:"isPilot"`
	PilotActive              bool                `json:"pilotActive"`
	PilotPhase               Phase               `json:"pilotPhase"`
	DaysRemaining            int                 `json:"daysRemaining"`
	AccessLevelForCompliance AccessLevel         `json:"accessLevelForCompliance"`
}

// Summarize builds the summary from the subscription row, never from the
// organization status cache.
func Summarize(r *Resolution) Summary {
	s := r.snap
	status := s.SubscriptionStatus
	if !s.HasSubscription {
		status = "none"
	}
	return Summary{
		Subscription: SubscriptionSummary{
			Status:           status,
			Plan:             s.Plan.Slug,
			BillingCycle:     s.BillingCycle,
			CurrentPeriodEnd: s.CurrentPeriodEnd,
		},
		Usage: UsageSummary{
			Assets:       s.Usage.Assets,
			MaxAssets:    r.AssetQuota(),
			LimitReached: !r.CanCreateAsset(),
		},
		IsPilot:                  s.Pilot.IsPilot,
		PilotActive:              r.PilotActive(),
		PilotPhase:               r.phase,
		DaysRemaining:            DaysRemaining(s.Pilot, s.At, s.Policy),
		AccessLevelForCompliance: r.AccessLevel(FeatureCompliance),
	}
}
