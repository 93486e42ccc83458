package billing

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/catalog"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
)

// SessionInitiator creates hosted checkout and billing portal sessions. It
// never calls the processor with a plan that was not validated first.
type SessionInitiator struct {
	repo      Repository
	secretKey string
	publicURL string

	createCheckoutSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	createPortalSession   func(*stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

// NewSessionInitiator binds the secret key to its own processor clients; the
// package-level stripe.Key is never written.
func NewSessionInitiator(repo Repository, secretKey, publicURL string) *SessionInitiator {
	key := strings.TrimSpace(secretKey)
	backend := stripe.GetBackend(stripe.APIBackend)
	checkoutClient := checkoutsession.Client{B: backend, Key: key}
	portalClient := portalsession.Client{B: backend, Key: key}
	return &SessionInitiator{
		repo:                  repo,
		secretKey:             key,
		publicURL:             strings.TrimRight(strings.TrimSpace(publicURL), "/"),
		createCheckoutSession: checkoutClient.New,
		createPortalSession:   portalClient.New,
	}
}

// holdsSubscription reports whether a new checkout would create a second
// processor subscription. Any live processor subscription counts, whatever
// its status, as does a locally active one.
func holdsSubscription(sub *models.Subscription) bool {
	if sub == nil {
		return false
	}
	switch sub.Status {
	case models.SubscriptionStatusCancelled, models.SubscriptionStatusExpired:
		return false
	case models.SubscriptionStatusActive:
		return true
	}
	return sub.ExternalRef() != ""
}

// CreateCheckoutSession returns the hosted checkout URL for a plan purchase.
func (s *SessionInitiator) CreateCheckoutSession(ctx context.Context, orgID uint, planSlug, billingCycle string) (string, error) {
	cycle := normalizeCycle(billingCycle)
	if cycle == "" {
		return "", ErrInvalidBillingCycle
	}
	repo := s.repo.WithContext(ctx)

	plan, err := repo.GetPlanBySlug(catalog.NormalizeSlug(planSlug))
	if err != nil {
		return "", err
	}
	if plan == nil {
		return "", ErrPlanNotFound
	}
	if !catalog.Purchasable(plan) {
		return "", ErrPlanNotPurchasable
	}

	org, err := repo.GetOrganization(orgID)
	if err != nil {
		return "", err
	}
	if org == nil {
		return "", entitlements.ErrOrganizationNotFound
	}
	sub, err := repo.GetSubscription(orgID)
	if err != nil {
		return "", err
	}
	if holdsSubscription(sub) {
		return "", ErrAlreadySubscribed
	}

	price, err := repo.FindPriceForPlan(provider, plan.Slug, cycle)
	if err != nil {
		return "", err
	}
	if price == nil {
		return "", ErrPriceNotConfigured
	}
	if s.secretKey == "" {
		return "", ErrNotConfigured
	}

	orgRef := strconv.FormatUint(uint64(org.ID), 10)
	metadata := map[string]string{metadataOrganizationIDField: orgRef}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(s.publicURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.publicURL + "/billing/cancelled"),
		ClientReferenceID: stripe.String(orgRef),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(price.ProviderPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		Metadata: metadata,
	}
	if org.HasCustomer() {
		params.Customer = stripe.String(org.CustomerRef())
	}
	params.Context = ctx

	session, err := s.createCheckoutSession(params)
	if err != nil {
		return "", err
	}
	if session == nil || strings.TrimSpace(session.URL) == "" {
		return "", ErrNotConfigured
	}

	log.Infow("checkout session created", "organization_id", org.ID, "plan", plan.Slug, "cycle", cycle)
	return strings.TrimSpace(session.URL), nil
}

// CreatePortalSession returns the billing portal URL for an organization
// that already has a processor customer.
func (s *SessionInitiator) CreatePortalSession(ctx context.Context, orgID uint) (string, error) {
	org, err := s.repo.WithContext(ctx).GetOrganization(orgID)
	if err != nil {
		return "", err
	}
	if org == nil {
		return "", entitlements.ErrOrganizationNotFound
	}
	if !org.HasCustomer() {
		return "", ErrNoCustomer
	}
	if s.secretKey == "" {
		return "", ErrNotConfigured
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(org.CustomerRef()),
		ReturnURL: stripe.String(s.publicURL + "/billing"),
	}
	params.Context = ctx

	session, err := s.createPortalSession(params)
	if err != nil {
		return "", err
	}
	if session == nil || strings.TrimSpace(session.URL) == "" {
		return "", ErrNotConfigured
	}
	return strings.TrimSpace(session.URL), nil
}
