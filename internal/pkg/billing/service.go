package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/catalog"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/metrics"
)

const provider = models.BillingProviderStripe

var errLedgerRace = errors.New("event recorded concurrently")

// Service applies processor events to subscriptions and owns the other
// subscription writers (provisioning, plan changes). All writes for one
// organization go through the same lock.
type Service struct {
	repo   Repository
	locker Locker
	policy entitlements.Policy
	now    func() time.Time
}

type Option func(*Service)

func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithPolicy(p entitlements.Policy) Option {
	return func(s *Service) { s.policy = p.Normalize() }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		locker: NewLocalLocker(),
		policy: entitlements.DefaultPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, opts ...Option) *Service {
	return NewService(NewRepository(db), opts...)
}

// Apply processes one verified event. Duplicates, unknown kinds and stale
// events are successful no-ops. A returned error means nothing was recorded
// and the processor should redeliver.
func (s *Service) Apply(ctx context.Context, ev Event) (Outcome, error) {
	if strings.TrimSpace(ev.ID) == "" {
		return "", fmt.Errorf("%w: missing event id", ErrMalformedEvent)
	}
	repo := s.repo.WithContext(ctx)

	existing, err := repo.FindEvent(provider, ev.ID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		log.Infow("billing event already processed", "event_id", ev.ID, "type", ev.Type)
		return s.finish(ev, OutcomeDuplicate), nil
	}

	if ev.Kind == EventUnknown {
		log.Infow("billing event ignored (unhandled type)", "event_id", ev.ID, "type", ev.Type)
		return s.record(repo, ev, nil, OutcomeIgnored, nil)
	}
	if ev.DecodeErr != nil {
		return s.record(repo, ev, nil, OutcomeRejected, ev.DecodeErr)
	}

	orgID, err := s.resolveOrganization(repo, ev)
	if err != nil {
		if isPermanent(err) {
			return s.record(repo, ev, nil, OutcomeRejected, err)
		}
		return "", err
	}

	unlock, err := s.locker.Lock(ctx, organizationLockKey(orgID))
	if err != nil {
		return "", err
	}
	defer unlock()

	outcome := OutcomeApplied
	err = repo.Transaction(func(tx Repository) error {
		// re-check under the lock; another delivery may have won the race
		if prior, err := tx.FindEvent(provider, ev.ID); err != nil {
			return err
		} else if prior != nil {
			outcome = OutcomeDuplicate
			return nil
		}

		res, err := s.dispatch(tx, orgID, ev)
		if err != nil {
			return err
		}
		outcome = res

		created, err := tx.RecordEvent(ledgerRow(ev, &orgID, outcome, nil))
		if err != nil {
			return err
		}
		if !created {
			return errLedgerRace
		}
		return nil
	})
	switch {
	case errors.Is(err, errLedgerRace):
		return s.finish(ev, OutcomeDuplicate), nil
	case err != nil && isPermanent(err):
		return s.record(repo, ev, &orgID, OutcomeRejected, err)
	case err != nil:
		log.Errorw("billing event failed", "event_id", ev.ID, "type", ev.Type, "organization_id", orgID, "error", err)
		metrics.RecordWebhookEvent(ev.Kind.String(), "error")
		return "", err
	}

	log.Infow("billing event processed", "event_id", ev.ID, "type", ev.Type, "organization_id", orgID, "outcome", outcome)
	return s.finish(ev, outcome), nil
}

func (s *Service) dispatch(tx Repository, orgID uint, ev Event) (Outcome, error) {
	switch ev.Kind {
	case EventCheckoutCompleted:
		return s.applyCheckoutCompleted(tx, orgID, ev)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return s.applySubscriptionChanged(tx, orgID, ev)
	case EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(tx, orgID, ev)
	case EventInvoicePaid:
		inv := ev.Invoice
		log.Infow("invoice paid", "event_id", ev.ID, "organization_id", orgID, "subscription_ref", inv.SubscriptionRef,
			"amount_paid", inv.AmountPaid, "currency", inv.Currency)
		return OutcomeApplied, nil
	case EventInvoicePaymentFailed:
		return s.applyPaymentFailed(tx, orgID, ev)
	default:
		return OutcomeIgnored, nil
	}
}

// record writes a terminal ledger row outside of any side effects.
func (s *Service) record(repo Repository, ev Event, orgID *uint, outcome Outcome, cause error) (Outcome, error) {
	if cause != nil {
		log.Warnw("billing event rejected", "event_id", ev.ID, "type", ev.Type, "error", cause)
	}
	created, err := repo.RecordEvent(ledgerRow(ev, orgID, outcome, cause))
	if err != nil {
		return "", err
	}
	if !created {
		outcome = OutcomeDuplicate
	}
	return s.finish(ev, outcome), nil
}

func (s *Service) finish(ev Event, outcome Outcome) Outcome {
	metrics.RecordWebhookEvent(ev.Kind.String(), string(outcome))
	return outcome
}

func ledgerRow(ev Event, orgID *uint, outcome Outcome, cause error) *models.BillingEvent {
	row := &models.BillingEvent{
		Provider:        provider,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		OrganizationID:  orgID,
		SubscriptionRef: ev.subscriptionRef(),
		Outcome:         string(outcome),
		OccurredAt:      ev.OccurredAt,
	}
	if cause != nil {
		row.ProcessingError = cause.Error()
	}
	return row
}

// resolveOrganization prefers the organization id from metadata and falls
// back to the bound customer reference.
func (s *Service) resolveOrganization(repo Repository, ev Event) (uint, error) {
	if id := ev.organizationHint(); id != 0 {
		org, err := repo.GetOrganization(id)
		if err != nil {
			return 0, err
		}
		if org != nil {
			return org.ID, nil
		}
	}
	if ref := ev.customerRef(); ref != "" {
		org, err := repo.GetOrganizationByCustomerRef(ref)
		if err != nil {
			return 0, err
		}
		if org != nil {
			return org.ID, nil
		}
	}
	return 0, ErrOrganizationUnresolved
}

func (s *Service) applyCheckoutCompleted(tx Repository, orgID uint, ev Event) (Outcome, error) {
	org, err := s.organization(tx, orgID)
	if err != nil {
		return "", err
	}
	if err := s.bindCustomer(tx, org, ev.Checkout.CustomerRef); err != nil {
		return "", err
	}
	return OutcomeApplied, tx.SaveOrganization(org)
}

// bindCustomer binds a customer reference only if the organization has none.
// An existing binding is never overwritten.
func (s *Service) bindCustomer(tx Repository, org *models.Organization, customerRef string) error {
	customerRef = strings.TrimSpace(customerRef)
	if customerRef == "" || org.HasCustomer() {
		if org.HasCustomer() && customerRef != "" && org.CustomerRef() != customerRef {
			log.Warnw("customer reference differs from bound customer, keeping existing binding",
				"organization_id", org.ID, "bound", org.CustomerRef(), "event_customer", customerRef)
		}
		return nil
	}
	owner, err := tx.GetOrganizationByCustomerRef(customerRef)
	if err != nil {
		return err
	}
	if owner != nil && owner.ID != org.ID {
		log.Warnw("customer reference already bound to another organization",
			"organization_id", org.ID, "owner_id", owner.ID)
		return nil
	}
	org.PaymentCustomerRef = &customerRef
	return nil
}

func (s *Service) applySubscriptionChanged(tx Repository, orgID uint, ev Event) (Outcome, error) {
	change := ev.Subscription
	if change.SubscriptionRef == "" {
		return "", fmt.Errorf("%w: subscription without id", ErrMalformedEvent)
	}

	tombstoned, err := tx.IsSubscriptionTombstoned(provider, change.SubscriptionRef)
	if err != nil {
		return "", err
	}
	if tombstoned {
		log.Infow("ignoring update for deleted subscription", "event_id", ev.ID, "subscription_ref", change.SubscriptionRef)
		return OutcomeStale, nil
	}

	org, err := s.organization(tx, orgID)
	if err != nil {
		return "", err
	}
	sub, err := tx.GetSubscription(orgID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		sub = &models.Subscription{OrganizationID: orgID}
	}
	if isStale(sub, ev) {
		log.Infow("ignoring out-of-order subscription event", "event_id", ev.ID, "organization_id", orgID)
		return OutcomeStale, nil
	}

	plan, err := s.planForPrice(tx, change.PriceRef)
	if err != nil {
		return "", err
	}
	status := MapStripeStatus(change.ExternalStatus)

	sub.PlanID = &plan.ID
	sub.Plan = nil
	sub.Status = status
	if change.BillingCycle != "" {
		sub.BillingCycle = change.BillingCycle
	}
	sub.CurrentPeriodStart = change.CurrentPeriodStart
	sub.CurrentPeriodEnd = change.CurrentPeriodEnd
	sub.ExternalSubscriptionRef = stringPtr(change.SubscriptionRef)
	sub.ExternalPriceRef = stringPtr(change.PriceRef)
	sub.LastEventAt = timePtr(ev.OccurredAt)
	if err := tx.SaveSubscription(sub); err != nil {
		return "", err
	}

	if err := s.bindCustomer(tx, org, change.CustomerRef); err != nil {
		return "", err
	}
	org.SubscriptionStatusCache = status
	if status == models.SubscriptionStatusActive && org.IsPilot && !org.ConvertedToPaid && org.HasCustomer() {
		org.ConvertedToPaid = true
		log.Infow("pilot converted to paid", "organization_id", orgID, "plan", plan.Slug)
	}
	return OutcomeApplied, tx.SaveOrganization(org)
}

func (s *Service) applySubscriptionDeleted(tx Repository, orgID uint, ev Event) (Outcome, error) {
	change := ev.Subscription
	if change.SubscriptionRef == "" {
		return "", fmt.Errorf("%w: subscription without id", ErrMalformedEvent)
	}

	sub, err := tx.GetSubscription(orgID)
	if err != nil {
		return "", err
	}
	// The ledger row written for this event is the tombstone. A deletion for a
	// subscription the organization already replaced changes nothing else.
	if sub != nil && sub.ExternalRef() != "" && sub.ExternalRef() != change.SubscriptionRef {
		log.Infow("deleted subscription was superseded", "event_id", ev.ID, "organization_id", orgID,
			"subscription_ref", change.SubscriptionRef, "current_ref", sub.ExternalRef())
		return OutcomeApplied, nil
	}

	org, err := s.organization(tx, orgID)
	if err != nil {
		return "", err
	}
	starter, err := s.starterPlan(tx)
	if err != nil {
		return "", err
	}
	if sub == nil {
		sub = &models.Subscription{OrganizationID: orgID, BillingCycle: models.BillingCycleMonthly}
	}

	sub.Status = models.SubscriptionStatusCancelled
	sub.PlanID = &starter.ID
	sub.Plan = nil
	sub.ExternalSubscriptionRef = nil
	sub.ExternalPriceRef = nil
	if sub.LastEventAt == nil || ev.OccurredAt.After(*sub.LastEventAt) {
		sub.LastEventAt = timePtr(ev.OccurredAt)
	}
	if err := tx.SaveSubscription(sub); err != nil {
		return "", err
	}

	org.SubscriptionStatusCache = models.SubscriptionStatusCancelled
	return OutcomeApplied, tx.SaveOrganization(org)
}

func (s *Service) applyPaymentFailed(tx Repository, orgID uint, ev Event) (Outcome, error) {
	sub, err := tx.GetSubscription(orgID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return OutcomeIgnored, nil
	}
	// Only a failed invoice of the current processor subscription moves it to
	// past_due. One-off invoices and old subscriptions leave it untouched.
	if ref := ev.Invoice.SubscriptionRef; ref == "" || sub.ExternalRef() != ref {
		log.Infow("payment failure not tied to the current subscription", "event_id", ev.ID, "organization_id", orgID,
			"subscription_ref", ref)
		return OutcomeIgnored, nil
	}
	if isStale(sub, ev) {
		return OutcomeStale, nil
	}
	switch sub.Status {
	case models.SubscriptionStatusCancelled, models.SubscriptionStatusExpired:
		return OutcomeIgnored, nil
	}

	org, err := s.organization(tx, orgID)
	if err != nil {
		return "", err
	}
	sub.Status = models.SubscriptionStatusPastDue
	sub.Plan = nil
	sub.LastEventAt = timePtr(ev.OccurredAt)
	if err := tx.SaveSubscription(sub); err != nil {
		return "", err
	}
	org.SubscriptionStatusCache = models.SubscriptionStatusPastDue
	return OutcomeApplied, tx.SaveOrganization(org)
}

func isStale(sub *models.Subscription, ev Event) bool {
	return sub.LastEventAt != nil && ev.OccurredAt.Before(*sub.LastEventAt)
}

func (s *Service) organization(tx Repository, orgID uint) (*models.Organization, error) {
	org, err := tx.GetOrganization(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationUnresolved
	}
	return org, nil
}

// planForPrice maps a price reference through the price table. Unknown prices
// fall back to the starter plan.
func (s *Service) planForPrice(tx Repository, priceRef string) (*models.Plan, error) {
	if priceRef != "" {
		m, err := tx.FindPlanMapping(provider, priceRef)
		if err != nil {
			return nil, err
		}
		if m != nil {
			plan, err := tx.GetPlanBySlug(m.PlanSlug)
			if err != nil {
				return nil, err
			}
			if plan != nil {
				return plan, nil
			}
			log.Warnw("price maps to unknown plan", "price_ref", priceRef, "plan", m.PlanSlug)
		} else {
			log.Warnw("unmapped price reference, using starter plan", "price_ref", priceRef)
		}
	}
	return s.starterPlan(tx)
}

func (s *Service) starterPlan(tx Repository) (*models.Plan, error) {
	plan, err := tx.GetPlanBySlug(catalog.PlanStarter)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		return plan, nil
	}
	plan, err = tx.GetLowestPlan()
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func stringPtr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
