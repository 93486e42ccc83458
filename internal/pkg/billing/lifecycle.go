package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/catalog"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
)

// ProvisionOrganization creates an organization with a trialing subscription
// on the starter plan and issues its API key. Pilots get a window of
// Policy.TrialDays starting today.
func (s *Service) ProvisionOrganization(ctx context.Context, name string, pilot bool) (*models.Organization, string, error) {
	org := &models.Organization{
		Name:                    strings.TrimSpace(name),
		IsPilot:                 pilot,
		SubscriptionStatusCache: models.SubscriptionStatusTrialing,
	}
	if err := org.Validate(); err != nil {
		return nil, "", err
	}
	if pilot {
		start, end := entitlements.PilotWindow(s.now(), s.policy)
		org.PilotStartDate = &start
		org.PilotEndDate = &end
	}
	rawKey, err := org.IssueAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("issue api key: %w", err)
	}

	repo := s.repo.WithContext(ctx)
	plan, err := s.starterPlan(repo)
	if err != nil {
		return nil, "", err
	}
	sub := &models.Subscription{
		PlanID:       &plan.ID,
		Status:       models.SubscriptionStatusTrialing,
		BillingCycle: models.BillingCycleMonthly,
	}
	if err := repo.CreateOrganization(org, sub); err != nil {
		return nil, "", err
	}

	log.Infow("organization provisioned", "organization_id", org.ID, "pilot", pilot, "plan", plan.Slug)
	return org, rawKey, nil
}

// ChangePlan moves an organization without a processor subscription to another
// plan. Only moves to an equal or lower rank are allowed; upgrades go through
// checkout.
func (s *Service) ChangePlan(ctx context.Context, orgID uint, planSlug string) (*models.Subscription, error) {
	unlock, err := s.locker.Lock(ctx, organizationLockKey(orgID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *models.Subscription
	err = s.repo.WithContext(ctx).Transaction(func(tx Repository) error {
		target, err := tx.GetPlanBySlug(catalog.NormalizeSlug(planSlug))
		if err != nil {
			return err
		}
		if target == nil {
			return ErrPlanNotFound
		}
		if !catalog.Purchasable(target) {
			return ErrPlanNotPurchasable
		}

		org, err := s.organization(tx, orgID)
		if err != nil {
			return err
		}
		sub, err := tx.GetSubscription(orgID)
		if err != nil {
			return err
		}
		if sub == nil {
			sub = &models.Subscription{
				OrganizationID: orgID,
				Status:         models.SubscriptionStatusTrialing,
				BillingCycle:   models.BillingCycleMonthly,
			}
		}
		if sub.ExternalRef() != "" {
			return ErrManagedExternally
		}

		current := sub.Plan
		if current == nil && sub.PlanID != nil {
			if current, err = tx.GetPlanByID(*sub.PlanID); err != nil {
				return err
			}
		}
		if current != nil && target.Rank > current.Rank {
			return ErrUpgradeRequiresPayment
		}
		if current == nil && target.Slug != catalog.PlanStarter {
			return ErrUpgradeRequiresPayment
		}

		sub.PlanID = &target.ID
		sub.Plan = nil
		if !models.RequiresPlan(sub.Status) {
			// a cancelled organization choosing a free plan starts a new trial period on it
			sub.Status = models.SubscriptionStatusTrialing
		}
		if err := tx.SaveSubscription(sub); err != nil {
			return err
		}
		org.SubscriptionStatusCache = sub.Status
		if err := tx.SaveOrganization(org); err != nil {
			return err
		}
		sub.Plan = target
		result = sub
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrganizationUnresolved) {
			return nil, entitlements.ErrOrganizationNotFound
		}
		return nil, err
	}

	log.Infow("plan changed", "organization_id", orgID, "plan", result.Plan.Slug)
	return result, nil
}

// SeedPriceMappings writes the configured price table. Unchanged rows are left alone.
func (s *Service) SeedPriceMappings(ctx context.Context, mappings []models.BillingPlanMapping) error {
	repo := s.repo.WithContext(ctx)
	for i := range mappings {
		m := mappings[i]
		existing, err := repo.FindPlanMapping(m.Provider, m.ProviderPriceID)
		if err != nil {
			return err
		}
		if existing != nil && existing.PlanSlug == m.PlanSlug && existing.BillingCycle == m.BillingCycle {
			continue
		}
		if err := repo.UpsertPlanMapping(&m); err != nil {
			return fmt.Errorf("seed price %s: %w", m.ProviderPriceID, err)
		}
		log.Infow("price mapping updated", "price_ref", m.ProviderPriceID, "plan", m.PlanSlug, "cycle", m.BillingCycle)
	}
	return nil
}
