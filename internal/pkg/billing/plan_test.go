package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/ComplyTrack/app/models"
)

func TestParsePriceMap(t *testing.T) {
	got, err := ParsePriceMap(" price_pm=Professional:monthly, price_py=professional:year,price_b=business ")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "price_pm", got[0].ProviderPriceID)
	assert.Equal(t, "professional", got[0].PlanSlug)
	assert.Equal(t, models.BillingCycleMonthly, got[0].BillingCycle)
	assert.Equal(t, models.BillingCycleYearly, got[1].BillingCycle)
	assert.Equal(t, models.BillingCycleMonthly, got[2].BillingCycle)
	assert.Equal(t, models.BillingProviderStripe, got[2].Provider)

	empty, err := ParsePriceMap("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParsePriceMapErrors(t *testing.T) {
	for _, raw := range []string{
		"price_only",
		"=professional",
		"price_x=",
		"price_x=professional:weekly",
		"price_x=professional,price_x=business",
	} {
		_, err := ParsePriceMap(raw)
		assert.Error(t, err, raw)
	}
}
