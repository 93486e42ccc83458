package entitlements

import (
	"strings"
	"time"
)

// Feature is a plan-gated capability key as stored in the plan catalog.
type Feature string

const (
	FeatureCompliance     Feature = "compliance"
	FeatureReporting      Feature = "reporting"
	FeatureAuditTrail     Feature = "audit_trail"
	FeatureAPIAccess      Feature = "api_access"
	FeatureBulkImport     Feature = "bulk_import"
	FeatureCustomBranding Feature = "custom_branding"
)

// AllFeatures lists every feature key known to the catalog.
var AllFeatures = []Feature{
	FeatureCompliance,
	FeatureReporting,
	FeatureAuditTrail,
	FeatureAPIAccess,
	FeatureBulkImport,
	FeatureCustomBranding,
}

// ParseFeature matches a feature key case-insensitively against AllFeatures.
func ParseFeature(key string) (Feature, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, f := range AllFeatures {
		if string(f) == key {
			return f, true
		}
	}
	return "", false
}

// AccessLevel is the graded entitlement used for graceful trial expiry.
type AccessLevel string

const (
	AccessFull     AccessLevel = "full"
	AccessReadOnly AccessLevel = "read_only"
	AccessBlocked  AccessLevel = "blocked"
)

// Pilot carries the organization fields the pilot state machine depends on.
// StartDate and EndDate are date-only; nil means unbounded on that side.
type Pilot struct {
	IsPilot         bool
	StartDate       *time.Time
	EndDate         *time.Time
	ConvertedToPaid bool
}

// PlanLimits is the resolved plan the snapshot is evaluated against.
type PlanLimits struct {
	Slug      string
	MaxAssets int64
	MaxUsers  int64
	Features  map[string]bool
}

// Override is a per-feature administrative exception.
type Override struct {
	Granted   bool
	ExpiresAt *time.Time
}

// Usage holds counters computed at load time. They are never cached across requests.
type Usage struct {
	Assets int64
	Users  int64
}

// Snapshot is the immutable input to the resolver. A request evaluates
// exactly one snapshot, so its decisions stay consistent even if the
// underlying rows change mid-request.
type Snapshot struct {
	OrganizationID     uint
	Pilot              Pilot
	HasSubscription    bool
	SubscriptionStatus string
	BillingCycle       string
	CurrentPeriodEnd   *time.Time
	Plan               PlanLimits
	Overrides          map[Feature]Override
	Usage              Usage
	At                 time.Time
	Policy             Policy
}
