package entitlements

import (
	"context"
	"fmt"
	"maps"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/metrics"
)

// Source is the read side the loader fans out over. Find methods return
// (nil, nil) when the row does not exist.
type Source interface {
	FindOrganization(ctx context.Context, orgID uint) (*models.Organization, error)
	FindSubscription(ctx context.Context, orgID uint) (*models.Subscription, error)
	ListOverrides(ctx context.Context, orgID uint) ([]models.EntitlementOverride, error)
	CountAssets(ctx context.Context, orgID uint) (int64, error)
	CountMembers(ctx context.Context, orgID uint) (int64, error)
	LowestPlan(ctx context.Context) (*models.Plan, error)
}

// Loader assembles snapshots from independent concurrent reads.
type Loader struct {
	source Source
	policy Policy
	now    func() time.Time
}

func NewLoader(source Source, policy Policy) *Loader {
	return &Loader{
		source: source,
		policy: policy.Normalize(),
		now:    time.Now,
	}
}

// WithClock replaces the loader clock. Used by tests and replay tooling.
func (l *Loader) WithClock(now func() time.Time) *Loader {
	cp := *l
	cp.now = now
	return &cp
}

// Load reads all entitlement inputs for one organization. The reads run in
// parallel; the first failure cancels the rest.
func (l *Loader) Load(ctx context.Context, orgID uint) (Snapshot, error) {
	started := time.Now()
	defer func() { metrics.ObserveContextLoad(time.Since(started)) }()

	var (
		org       *models.Organization
		sub       *models.Subscription
		overrides []models.EntitlementOverride
		assets    int64
		members   int64
		lowest    *models.Plan
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		org, err = l.source.FindOrganization(gctx, orgID)
		return wrap("organization", err)
	})
	g.Go(func() (err error) {
		sub, err = l.source.FindSubscription(gctx, orgID)
		return wrap("subscription", err)
	})
	g.Go(func() (err error) {
		overrides, err = l.source.ListOverrides(gctx, orgID)
		return wrap("overrides", err)
	})
	g.Go(func() (err error) {
		assets, err = l.source.CountAssets(gctx, orgID)
		return wrap("asset count", err)
	})
	g.Go(func() (err error) {
		members, err = l.source.CountMembers(gctx, orgID)
		return wrap("member count", err)
	})
	g.Go(func() (err error) {
		lowest, err = l.source.LowestPlan(gctx)
		return wrap("catalog", err)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	if org == nil {
		return Snapshot{}, ErrOrganizationNotFound
	}

	return buildSnapshot(org, sub, overrides, Usage{Assets: assets, Users: members}, lowest, l.now(), l.policy), nil
}

// Resolve loads and evaluates in one step.
func (l *Loader) Resolve(ctx context.Context, orgID uint) (*Resolution, error) {
	snap, err := l.Load(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return Resolve(snap), nil
}

func buildSnapshot(org *models.Organization, sub *models.Subscription, overrides []models.EntitlementOverride,
	usage Usage, lowest *models.Plan, at time.Time, policy Policy) Snapshot {
	snap := Snapshot{
		OrganizationID: org.ID,
		Pilot: Pilot{
			IsPilot:         org.IsPilot,
			StartDate:       copyTime(org.PilotStartDate),
			EndDate:         copyTime(org.PilotEndDate),
			ConvertedToPaid: org.ConvertedToPaid,
		},
		Overrides: make(map[Feature]Override, len(overrides)),
		Usage:     usage,
		At:        at,
		Policy:    policy,
	}

	plan := lowest
	if sub != nil {
		snap.HasSubscription = true
		snap.SubscriptionStatus = sub.Status
		snap.BillingCycle = sub.BillingCycle
		snap.CurrentPeriodEnd = copyTime(sub.CurrentPeriodEnd)
		if sub.Plan != nil {
			plan = sub.Plan
		}
	}
	if plan != nil {
		snap.Plan = PlanLimits{
			Slug:      plan.Slug,
			MaxAssets: plan.MaxAssets,
			MaxUsers:  plan.MaxUsers,
			Features:  maps.Clone(plan.FeatureMap()),
		}
	} else {
		snap.Plan = PlanLimits{Features: map[string]bool{}}
	}

	for _, o := range overrides {
		snap.Overrides[Feature(o.FeatureKey)] = Override{
			Granted:   o.Granted,
			ExpiresAt: copyTime(o.ExpiresAt),
		}
	}
	return snap
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load %s: %w", what, err)
}
