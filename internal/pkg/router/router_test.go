package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"

	"github.com/ManuelReschke/ComplyTrack/app/models"
	"github.com/ManuelReschke/ComplyTrack/app/repository"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/billing"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/catalog"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/config"
	"github.com/ManuelReschke/ComplyTrack/internal/pkg/database"
)

const testWebhookSecret = "whsec_router_test"

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "router.db"), nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, catalog.Seed(repository.NewPlanRepository(db)))

	cfg := &config.Config{
		PublicURL:    "https://app.complytrack.test",
		RateLimitMax: 1000,
		Stripe:       config.Stripe{WebhookSecret: testWebhookSecret},
		Pilot:        config.Pilot{TrialDays: 15, LockAfterDays: 30, AssetQuota: 2},
	}
	deps := NewDependencies(db, cfg)

	mappings, err := billing.ParsePriceMap("price_pro_m=professional:monthly")
	require.NoError(t, err)
	require.NoError(t, deps.Billing.SeedPriceMappings(context.Background(), mappings))

	app := fiber.New()
	InstallRouter(app, deps)
	return &testApp{app: app, db: db}
}

func (ta *testApp) do(t *testing.T, method, path, apiKey string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return ta.send(t, req)
}

func (ta *testApp) send(t *testing.T, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

// signup provisions an organization and returns its id and API key.
func (ta *testApp) signup(t *testing.T, name string, pilot bool) (uint, string) {
	t.Helper()
	status, body := ta.do(t, http.MethodPost, "/api/v1/signup", "", fiber.Map{"name": name, "pilot": pilot})
	require.Equal(t, http.StatusCreated, status, body)
	org := body["organization"].(map[string]interface{})
	return uint(org["id"].(float64)), body["apiKey"].(string)
}

func (ta *testApp) setPilotWindow(t *testing.T, orgID uint, startDaysAgo, endDaysAgo int) {
	t.Helper()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	require.NoError(t, ta.db.Model(&models.Organization{}).Where("id = ?", orgID).Updates(map[string]interface{}{
		"pilot_start_date": today.AddDate(0, 0, -startDaysAgo),
		"pilot_end_date":   today.AddDate(0, 0, -endDaysAgo),
	}).Error)
}

func (ta *testApp) webhook(t *testing.T, payload string) (int, map[string]interface{}) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signed.Header)
	return ta.send(t, req)
}

func subscriptionPayload(eventID string, orgID uint, price, status string) string {
	now := time.Now().Unix()
	return fmt.Sprintf(`{
		"id": %q, "object": "event", "type": "customer.subscription.created", "created": %d,
		"data": {"object": {
			"id": "sub_router", "customer": "cus_router", "status": %q,
			"metadata": {"organization_id": "%d"},
			"items": {"data": [{"current_period_start": %d, "current_period_end": %d,
				"price": {"id": %q, "recurring": {"interval": "month"}}}]}
		}}
	}`, eventID, now, status, orgID, now, now+30*86400, price)
}

func TestPublicRoutes(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = ta.do(t, http.MethodGet, "/api/v1/plans", "", nil)
	assert.Equal(t, http.StatusOK, status)
	plans := body["plans"].([]interface{})
	require.Len(t, plans, 4)
	enterprise := plans[3].(map[string]interface{})
	assert.Equal(t, "enterprise", enterprise["slug"])
	assert.Equal(t, true, enterprise["contactSales"])
	assert.Equal(t, false, enterprise["purchasable"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsBasicAuth(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "metrics.db"), nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	cfg := &config.Config{
		RateLimitMax: 1000,
		Metrics:      config.Metrics{User: "ops", Password: "scrape"},
	}
	app := fiber.New()
	InstallRouter(app, NewDependencies(db, cfg))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("ops", "scrape")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthentication(t *testing.T) {
	ta := newTestApp(t)

	status, body := ta.do(t, http.MethodGet, "/api/v1/subscription", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])

	status, _ = ta.do(t, http.MethodGet, "/api/v1/subscription", "ctk_not_a_real_key", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	_, key := ta.signup(t, "Acme Calibration", false)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscription", nil)
	req.Header.Set("Authorization", "Bearer "+key)
	status, _ = ta.send(t, req)
	assert.Equal(t, http.StatusOK, status)
}

func TestSignupValidation(t *testing.T) {
	ta := newTestApp(t)
	status, body := ta.do(t, http.MethodPost, "/api/v1/signup", "", fiber.Map{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_failed", body["error"])
}

func TestSubscriptionSummaryForNewPilot(t *testing.T) {
	ta := newTestApp(t)
	_, key := ta.signup(t, "Pilot Works", true)

	status, body := ta.do(t, http.MethodGet, "/api/v1/subscription", key, nil)
	require.Equal(t, http.StatusOK, status)
	sub := body["subscription"].(map[string]interface{})
	assert.Equal(t, "trialing", sub["status"])
	assert.Equal(t, "starter", sub["plan"])
	assert.Equal(t, true, body["isPilot"])
	assert.Equal(t, true, body["pilotActive"])
	assert.Equal(t, float64(15), body["daysRemaining"])
	assert.Equal(t, "full", body["accessLevelForCompliance"])
	usage := body["usage"].(map[string]interface{})
	assert.Equal(t, float64(2), usage["maxAssets"])
}

func TestFeatureCheck(t *testing.T) {
	ta := newTestApp(t)
	_, pilotKey := ta.signup(t, "Pilot Works", true)
	_, plainKey := ta.signup(t, "Plain Works", false)

	status, body := ta.do(t, http.MethodGet, "/api/v1/entitlements/features/compliance", pilotKey, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["allowed"])

	status, body = ta.do(t, http.MethodGet, "/api/v1/entitlements/features/compliance", plainKey, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "upgrade_required", body["reason"])
	assert.Equal(t, "compliance", body["feature"])
	assert.Equal(t, "starter", body["currentPlan"])

	status, body = ta.do(t, http.MethodGet, "/api/v1/entitlements/features/teleport", plainKey, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "unknown_feature", body["error"])

	status, body = ta.do(t, http.MethodGet, "/api/v1/entitlements", pilotKey, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pilot_active", body["pilotPhase"])
	features := body["features"].(map[string]interface{})
	assert.Equal(t, "full", features["audit_trail"])
}

func TestComplianceGateDeniesStarter(t *testing.T) {
	ta := newTestApp(t)
	_, key := ta.signup(t, "Plain Works", false)

	status, body := ta.do(t, http.MethodGet, "/api/v1/compliance/records", key, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "upgrade_required", body["reason"])
	assert.Equal(t, "starter", body["currentPlan"])
}

func TestPilotGraceIsReadOnly(t *testing.T) {
	ta := newTestApp(t)
	orgID, key := ta.signup(t, "Grace Works", true)

	status, asset := ta.do(t, http.MethodPost, "/api/v1/assets", key, fiber.Map{"name": "Torque wrench"})
	require.Equal(t, http.StatusCreated, status)
	status, _ = ta.do(t, http.MethodPost, "/api/v1/compliance/records", key, fiber.Map{"assetId": asset["id"], "result": "pass"})
	require.Equal(t, http.StatusCreated, status)

	// trial ended five days ago, still within the grace period
	ta.setPilotWindow(t, orgID, 20, 5)

	status, body := ta.do(t, http.MethodGet, "/api/v1/compliance/records", key, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["records"], 1)

	status, body = ta.do(t, http.MethodPost, "/api/v1/compliance/records", key, fiber.Map{"assetId": asset["id"], "result": "fail"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "read_only", body["reason"])
	assert.Equal(t, "read_only", body["accessLevel"])

	status, body = ta.do(t, http.MethodGet, "/api/v1/entitlements/features/compliance/write", key, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["allowed"])
}

func TestLockedPilotIsBlocked(t *testing.T) {
	ta := newTestApp(t)
	orgID, key := ta.signup(t, "Locked Works", true)
	ta.setPilotWindow(t, orgID, 40, 25)

	status, body := ta.do(t, http.MethodGet, "/api/v1/compliance/records", key, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "account_locked", body["reason"])

	status, body = ta.do(t, http.MethodPost, "/api/v1/assets", key, fiber.Map{"name": "Multimeter"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "account_locked", body["reason"])

	status, body = ta.do(t, http.MethodGet, "/api/v1/subscription", key, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pilot_locked", body["pilotPhase"])
	assert.Equal(t, "blocked", body["accessLevelForCompliance"])
}

func TestAssetQuota(t *testing.T) {
	ta := newTestApp(t)
	_, key := ta.signup(t, "Pilot Works", true)

	for i := 0; i < 2; i++ {
		status, _ := ta.do(t, http.MethodPost, "/api/v1/assets", key, fiber.Map{"name": fmt.Sprintf("Asset %d", i)})
		require.Equal(t, http.StatusCreated, status)
	}
	status, body := ta.do(t, http.MethodPost, "/api/v1/assets", key, fiber.Map{"name": "One too many"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "quota_exceeded", body["reason"])
	assert.Equal(t, "assets", body["feature"])

	// archiving frees a slot
	status, list := ta.do(t, http.MethodGet, "/api/v1/assets", key, nil)
	require.Equal(t, http.StatusOK, status)
	first := list["assets"].([]interface{})[0].(map[string]interface{})
	status, _ = ta.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/assets/%.0f", first["id"]), key, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = ta.do(t, http.MethodPost, "/api/v1/assets", key, fiber.Map{"name": "Replacement"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestMembers(t *testing.T) {
	ta := newTestApp(t)
	_, key := ta.signup(t, "Plain Works", false)

	// starter allows two seats
	for _, email := range []string{"a@example.com", "b@example.com"} {
		status, _ := ta.do(t, http.MethodPost, "/api/v1/members", key, fiber.Map{"email": email})
		require.Equal(t, http.StatusCreated, status)
	}
	status, body := ta.do(t, http.MethodPost, "/api/v1/members", key, fiber.Map{"email": "c@example.com"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "quota_exceeded", body["reason"])

	status, body = ta.do(t, http.MethodGet, "/api/v1/members", key, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["members"], 2)

	status, _ = ta.do(t, http.MethodDelete, "/api/v1/members/9999", key, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestBillingErrors(t *testing.T) {
	ta := newTestApp(t)
	_, key := ta.signup(t, "Plain Works", false)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"invalid cycle", "/api/v1/billing/checkout", fiber.Map{"plan": "professional", "billingCycle": "weekly"}, http.StatusBadRequest, "validation_failed"},
		{"unknown plan", "/api/v1/billing/checkout", fiber.Map{"plan": "platinum", "billingCycle": "monthly"}, http.StatusBadRequest, "unknown_plan"},
		{"contact sales", "/api/v1/billing/checkout", fiber.Map{"plan": "enterprise", "billingCycle": "monthly"}, http.StatusUnprocessableEntity, "contact_sales"},
		{"processor not configured", "/api/v1/billing/checkout", fiber.Map{"plan": "professional", "billingCycle": "monthly"}, http.StatusServiceUnavailable, "billing_unavailable"},
		{"portal without customer", "/api/v1/billing/portal", nil, http.StatusConflict, "no_customer"},
		{"upgrade without checkout", "/api/v1/billing/plan", fiber.Map{"plan": "professional"}, http.StatusConflict, "checkout_required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ta.do(t, http.MethodPost, tt.path, key, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, body["error"])
		})
	}

	status, body := ta.do(t, http.MethodPost, "/api/v1/billing/plan", key, fiber.Map{"plan": "starter"})
	assert.Equal(t, http.StatusOK, status, body)
}

func TestStripeWebhook(t *testing.T) {
	ta := newTestApp(t)
	orgID, key := ta.signup(t, "Pilot Works", true)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader([]byte(`{"id":"evt_forged"}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	status, body := ta.send(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_signature", body["error"])

	payload := subscriptionPayload("evt_router_1", orgID, "price_pro_m", "active")
	status, body = ta.webhook(t, payload)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "applied", body["outcome"])

	status, body = ta.webhook(t, payload)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "duplicate", body["outcome"])

	status, body = ta.webhook(t, `{"id":"evt_other","object":"event","type":"customer.created","created":1746093600,"data":{"object":{"id":"cus_1"}}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ignored", body["outcome"])

	status, body = ta.do(t, http.MethodGet, "/api/v1/subscription", key, nil)
	require.Equal(t, http.StatusOK, status)
	sub := body["subscription"].(map[string]interface{})
	assert.Equal(t, "active", sub["status"])
	assert.Equal(t, "professional", sub["plan"])
	assert.Equal(t, true, body["pilotActive"], "conversion does not close an open pilot window")

	status, body = ta.do(t, http.MethodPost, "/api/v1/billing/checkout", key, fiber.Map{"plan": "professional", "billingCycle": "monthly"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_subscribed", body["error"])

	status, body = ta.do(t, http.MethodPost, "/api/v1/billing/plan", key, fiber.Map{"plan": "starter"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "managed_externally", body["error"])
}
