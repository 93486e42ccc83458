package billing

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/catalog"
)

// ParsePriceMap parses "price_a=professional:monthly,price_b=business:yearly".
// The cycle defaults to monthly when omitted.
func ParsePriceMap(raw string) ([]models.BillingPlanMapping, error) {
	var out []models.BillingPlanMapping
	seen := map[string]struct{}{}

	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		priceID, target, ok := strings.Cut(entry, "=")
		priceID = strings.TrimSpace(priceID)
		if !ok || priceID == "" {
			return nil, fmt.Errorf("invalid price map entry %q", entry)
		}
		slug, cycle, _ := strings.Cut(target, ":")
		slug = catalog.NormalizeSlug(slug)
		if slug == "" {
			return nil, fmt.Errorf("invalid price map entry %q: missing plan", entry)
		}
		normalized := models.BillingCycleMonthly
		if strings.TrimSpace(cycle) != "" {
			normalized = normalizeCycle(cycle)
			if normalized == "" {
				return nil, fmt.Errorf("invalid price map entry %q: %w", entry, ErrInvalidBillingCycle)
			}
		}
		if _, dup := seen[priceID]; dup {
			return nil, fmt.Errorf("duplicate price %q in price map", priceID)
		}
		seen[priceID] = struct{}{}

		out = append(out, models.BillingPlanMapping{
			Provider:        models.BillingProviderStripe,
			ProviderPriceID: priceID,
			PlanSlug:        slug,
			BillingCycle:    normalized,
			Version:         1,
			IsActive:        true,
		})
	}
	return out, nil
}
