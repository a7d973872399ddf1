package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	v1 "github.com/masseurmatch/masseurmatch/internal/api/v1"
	"github.com/masseurmatch/masseurmatch/internal/auth"
	"github.com/masseurmatch/masseurmatch/internal/cache"
	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/domain/profile"
	"github.com/masseurmatch/masseurmatch/internal/idempotency"
	"github.com/masseurmatch/masseurmatch/internal/integration/stripe"
	"github.com/masseurmatch/masseurmatch/internal/service"
	"github.com/masseurmatch/masseurmatch/internal/testutil"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "router-test-secret"

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error {
	return p.err
}

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	pinger *fakePinger
	router *gin.Engine
	token  string
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	s.BaseServiceTestSuite.SetupSuite()
	gin.SetMode(gin.TestMode)
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.GetConfig().Auth.Secret = testJWTSecret
	s.pinger = &fakePinger{}
	s.build()
	s.token = s.sign(testutil.DefaultUserID, testJWTSecret)
}

// build wires the router onto the suite's in-memory collaborators
func (s *RouterSuite) build() {
	stores := s.GetStores()
	params := service.ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		Clock:            s.GetClock(),
		Sentry:           s.GetSentry(),
		ProfileRepo:      stores.ProfileRepo,
		RateRepo:         stores.RateRepo,
		SubRepo:          stores.SubscriptionRepo,
		IdentityRepo:     stores.IdentityRepo,
		NotificationRepo: stores.NotificationRepo,
		WebhookEventRepo: stores.WebhookEventRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
		EmailSender:      s.GetEmailSender(),
		UserDirectory:    s.GetUserDirectory(),
		StripeGateway:    s.GetStripeGateway(),
		WebhookVerifier:  stripe.NewWebhookVerifier(s.GetLogger()),
		KeyGenerator:     idempotency.NewGenerator(),
	}

	notifications := service.NewNotificationService(params)
	reconciler := service.NewSubscriptionReconciler(params, notifications)
	log := s.GetLogger()

	handlers := Handlers{
		Health:       v1.NewHealthHandler(s.pinger, log),
		Webhook:      v1.NewWebhookHandler(service.NewWebhookService(params, reconciler), s.GetConfig(), log),
		Rate:         v1.NewRateHandler(service.NewRateService(params), log),
		Notification: v1.NewNotificationHandler(notifications, log),
		Entitlement:  v1.NewEntitlementHandler(service.NewEntitlementService(params), log),
		Billing:      v1.NewBillingHandler(service.NewBillingService(params), log),
	}

	s.router = NewRouter(handlers, s.GetConfig(), log, auth.NewTokenValidator(s.GetConfig()), cache.NewInMemoryCache(s.GetConfig(), log))
}

func (s *RouterSuite) sign(userID, secret string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": "jamie@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) authed(method, path string, body any) *httptest.ResponseRecorder {
	return s.do(method, path, body, map[string]string{
		types.HeaderAuthorization: "Bearer " + s.token,
	})
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *RouterSuite) createProfile() *profile.Profile {
	p := &profile.Profile{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROFILE),
		UserID:      testutil.DefaultUserID,
		DisplayName: "Test Provider",
		BaseModel:   types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.GetStores().ProfileRepo.CreateProfile(s.GetContext(), p))
	return p
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok", s.decode(w)["status"])
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))

	s.pinger.err = errors.New("connection refused")
	w = s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *RouterSuite) TestRequestIDIsEchoed() {
	w := s.do(http.MethodGet, "/health", nil, map[string]string{types.HeaderRequestID: "req-123"})
	s.Equal("req-123", w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestCORSPreflight() {
	w := s.do(http.MethodOptions, "/v1/rates", nil, map[string]string{"Origin": "https://masseurmatch.com"})
	s.Equal(http.StatusOK, w.Code)
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
	s.Contains(w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func (s *RouterSuite) TestUserRoutesRequireBearerToken() {
	w := s.do(http.MethodGet, "/v1/rates", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/v1/rates", nil, map[string]string{types.HeaderAuthorization: "Token abc"})
	s.Equal(http.StatusUnauthorized, w.Code)

	forged := s.sign(testutil.DefaultUserID, "another-secret")
	w = s.do(http.MethodGet, "/v1/notifications", nil, map[string]string{types.HeaderAuthorization: "Bearer " + forged})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid token", s.decode(w)["error"])
}

func (s *RouterSuite) TestCreateAndListRates() {
	s.createProfile()

	w := s.authed(http.MethodPost, "/v1/rates", map[string]any{
		"context":          "incall",
		"duration_minutes": 60,
		"price_cents":      10000,
		"is_base_rate":     true,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := s.decode(w)
	s.Equal("incall", created["context"])
	s.Equal(true, created["is_base_rate"])

	w = s.authed(http.MethodGet, "/v1/rates?context=incall", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), s.decode(w)["total"])

	w = s.authed(http.MethodGet, "/v1/rates/"+created["id"].(string), nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.authed(http.MethodPatch, "/v1/rates/"+created["id"].(string), map[string]any{"price_cents": 11000})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(float64(11000), s.decode(w)["price_cents"])

	w = s.authed(http.MethodDelete, "/v1/rates/"+created["id"].(string), nil)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *RouterSuite) TestRateRuleViolationCarriesDetails() {
	s.createProfile()

	w := s.authed(http.MethodPost, "/v1/rates", map[string]any{
		"context":          "incall",
		"duration_minutes": 60,
		"price_cents":      10000,
		"is_base_rate":     true,
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.authed(http.MethodPost, "/v1/rates", map[string]any{
		"context":          "incall",
		"duration_minutes": 90,
		"price_cents":      22000,
	})
	s.Require().Equal(http.StatusBadRequest, w.Code)

	body := s.decode(w)
	s.Contains(body["error"], "90 minute incall rate")
	details, ok := body["details"].(map[string]any)
	s.Require().True(ok)
	violations, ok := details["violations"].([]any)
	s.Require().True(ok)
	s.Len(violations, 1)
}

func (s *RouterSuite) TestMalformedBodyIsBadRequest() {
	s.createProfile()

	w := s.authed(http.MethodPost, "/v1/rates", []byte(`{"duration_minutes": "sixty"`))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid request format", s.decode(w)["error"])
}

func (s *RouterSuite) TestRateWritesAreThrottled() {
	s.GetConfig().RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2}
	s.build()
	s.createProfile()

	for _, duration := range []int{60, 90} {
		w := s.authed(http.MethodPost, "/v1/rates", map[string]any{
			"context":          "outcall",
			"duration_minutes": duration,
			"price_cents":      duration * 200,
		})
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.authed(http.MethodPost, "/v1/rates", map[string]any{
		"context":          "outcall",
		"duration_minutes": 120,
		"price_cents":      24000,
	})
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.Equal("1", w.Header().Get("Retry-After"))

	// reads are not throttled
	w = s.authed(http.MethodGet, "/v1/rates", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestNotificationRoutes() {
	w := s.authed(http.MethodGet, "/v1/notifications/unread-count", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(0), s.decode(w)["count"])

	w = s.authed(http.MethodPost, "/v1/notifications/read-all", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(0), s.decode(w)["updated"])

	w = s.authed(http.MethodPost, "/v1/notifications/ntf_missing/read", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.authed(http.MethodGet, "/v1/notifications?limit=500", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestEntitlements() {
	w := s.authed(http.MethodGet, "/v1/entitlements", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Equal("free", body["plan"])
	s.Equal(float64(1), body["max_photos"])

	w = s.authed(http.MethodPost, "/v1/entitlements/photos/check", map[string]any{"current_count": 1})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(float64(1), s.decode(w)["details"].(map[string]any)["max_photos"])
}

func (s *RouterSuite) TestCheckout() {
	w := s.authed(http.MethodPost, "/v1/billing/checkout", map[string]any{"plan": "pro"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.NotEmpty(s.decode(w)["url"])
	s.Len(s.GetStripeGateway().Checkouts, 1)
}

func (s *RouterSuite) TestServerErrorsHideDetails() {
	s.GetStripeGateway().Err = errors.New("stripe unavailable")

	w := s.authed(http.MethodPost, "/v1/billing/checkout", map[string]any{"plan": "pro"})
	s.Equal(http.StatusInternalServerError, w.Code)
	body := s.decode(w)
	s.Equal("An unexpected error occurred", body["error"])
	s.NotContains(body, "details")
}

func (s *RouterSuite) TestPortalWithoutBodyRequiresCustomer() {
	w := s.authed(http.MethodPost, "/v1/billing/portal", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestIdentityRoutes() {
	w := s.authed(http.MethodGet, "/v1/identity", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("unverified", s.decode(w)["status"])

	w = s.authed(http.MethodPost, "/v1/identity/sessions", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal([]string{testutil.DefaultUserID}, s.GetStripeGateway().IdentityUsers)
}

func (s *RouterSuite) TestStripeWebhookAppliesSubscription() {
	end := s.GetNow().Add(20 * 24 * time.Hour)
	payload, sig := testutil.SignedStripeEvent("evt_router_1", "customer.subscription.updated", s.GetNow().Add(-time.Minute), map[string]any{
		"id":                   "sub_router_1",
		"object":               "subscription",
		"customer":             "cus_router_1",
		"status":               "active",
		"metadata":             map[string]any{"user_id": testutil.DefaultUserID, "plan": "pro"},
		"current_period_start": end.AddDate(0, -1, 0).Unix(),
		"current_period_end":   end.Unix(),
		"items": map[string]any{
			"data": []any{
				map[string]any{"price": map[string]any{"id": "price_pro", "unit_amount": 4999, "currency": "usd"}},
			},
		},
	})

	w := s.do(http.MethodPost, "/v1/webhooks/stripe", payload, map[string]string{stripe.SignatureHeader: sig})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(true, s.decode(w)["received"])

	sub, err := s.GetStores().SubscriptionRepo.GetByExternalID(s.GetContext(), "sub_router_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.Status)
}

func (s *RouterSuite) TestStripeWebhookBodyLimit() {
	invoice := map[string]any{
		"id":             "in_router_big",
		"object":         "invoice",
		"customer":       "cus_router_1",
		"billing_reason": "manual",
		"amount_due":     4999,
		"currency":       "usd",
		"description":    strings.Repeat("x", 100<<10),
	}
	payload, sig := testutil.SignedStripeEvent("evt_router_big", "invoice.paid", s.GetNow(), invoice)
	s.Require().Greater(len(payload), 64<<10)

	w := s.do(http.MethodPost, "/v1/webhooks/stripe", payload, map[string]string{stripe.SignatureHeader: sig})
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	s.GetConfig().Stripe.MaxWebhookBodyBytes = 32 << 10
	w = s.do(http.MethodPost, "/v1/webhooks/stripe", payload, map[string]string{stripe.SignatureHeader: sig})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(http.StatusText(http.StatusBadRequest), s.decode(w)["error"])
}

func (s *RouterSuite) TestStripeWebhookRejectsBadSignature() {
	payload, _ := testutil.SignedStripeEvent("evt_router_2", "customer.created", s.GetNow(), map[string]any{"id": "cus_1", "object": "customer"})

	w := s.do(http.MethodPost, "/v1/webhooks/stripe", payload, map[string]string{stripe.SignatureHeader: "t=1,v1=deadbeef"})
	s.Equal(http.StatusBadRequest, w.Code)
	body := s.decode(w)
	s.Equal(http.StatusText(http.StatusBadRequest), body["error"])
	s.NotContains(body, "details")

	w = s.do(http.MethodPost, "/v1/webhooks/stripe/identity", payload, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestStripeWebhookWithoutSecretIsServerError() {
	s.GetConfig().Stripe.WebhookSecret = ""
	payload, sig := testutil.SignedStripeEvent("evt_router_3", "customer.created", s.GetNow(), map[string]any{"id": "cus_1", "object": "customer"})

	w := s.do(http.MethodPost, "/v1/webhooks/stripe", payload, map[string]string{stripe.SignatureHeader: sig})
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal(http.StatusText(http.StatusInternalServerError), s.decode(w)["error"])
}

func (s *RouterSuite) TestStripeWebhookIgnoresBearerAuth() {
	payload, sig := testutil.SignedStripeEvent("evt_router_4", "customer.created", s.GetNow(), map[string]any{"id": "cus_1", "object": "customer"})

	w := s.do(http.MethodPost, "/v1/webhooks/stripe/identity", payload, map[string]string{stripe.SignatureHeader: sig})
	s.Equal(http.StatusOK, w.Code, w.Body.String())
}
