package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tehorna/checkout-api/internal/domain/auth"
	"github.com/tehorna/checkout-api/internal/domain/checkout"
	"github.com/tehorna/checkout-api/internal/domain/order"
	"github.com/tehorna/checkout-api/internal/domain/payment"
	"github.com/tehorna/checkout-api/internal/domain/product"
	"github.com/tehorna/checkout-api/internal/domain/receipt"
	"github.com/tehorna/checkout-api/internal/domain/reconcile"
	"github.com/tehorna/checkout-api/internal/guesttoken"
	"github.com/tehorna/checkout-api/internal/notify"
)

// --- In-memory fakes ---

type fakeProductRepo struct {
	products []product.Product
}

func (f *fakeProductRepo) List(_ context.Context) ([]product.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		for _, p := range f.products {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	orders map[string]*order.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*order.Order)}
}

func (f *fakeOrderRepo) Create(_ context.Context, o *order.Order) error {
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) GetByNumber(_ context.Context, number string) (*order.Order, error) {
	for _, o := range f.orders {
		if o.Number == number {
			return o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (f *fakeOrderRepo) GetBySessionID(_ context.Context, sessionID string) (*order.Order, error) {
	for _, o := range f.orders {
		if o.SessionID == sessionID {
			return o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (f *fakeOrderRepo) List(_ context.Context, filter order.ListFilter) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.orders {
		if filter.Status == "" || o.Status == filter.Status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) SetProviderSession(_ context.Context, id, sessionID string, metadata map[string]string) error {
	o, ok := f.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.SessionID = sessionID
	o.Metadata = metadata
	return nil
}

func (f *fakeOrderRepo) SetGuestToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	o, ok := f.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.TokenHash = tokenHash
	o.TokenExpires = &expiresAt
	return nil
}

func (f *fakeOrderRepo) MarkPaid(_ context.Context, id string, paidAt time.Time) (bool, error) {
	o, ok := f.orders[id]
	if !ok || o.Status == order.StatusPaid || o.Status == order.StatusRefunded {
		return false, nil
	}
	o.Status = order.StatusPaid
	o.PaidAt = &paidAt
	return true, nil
}

func (f *fakeOrderRepo) MarkCancelled(_ context.Context, id string) (bool, error) {
	o, ok := f.orders[id]
	if !ok || o.Status != order.StatusAwaitingPayment {
		return false, nil
	}
	o.Status = order.StatusCancelled
	return true, nil
}

func (f *fakeOrderRepo) OverrideStatus(_ context.Context, id string, status order.Status) error {
	o, ok := f.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

type fakeAttemptRepo struct {
	attempts map[string]*payment.Attempt
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[string]*payment.Attempt)}
}

func (f *fakeAttemptRepo) Create(_ context.Context, a *payment.Attempt) error {
	f.attempts[a.ID] = a
	return nil
}

func (f *fakeAttemptRepo) GetByID(_ context.Context, id string) (*payment.Attempt, error) {
	a, ok := f.attempts[id]
	if !ok {
		return nil, payment.ErrAttemptNotFound
	}
	return a, nil
}

func (f *fakeAttemptRepo) MarkPaid(_ context.Context, id string, verifiedAt time.Time) (bool, error) {
	a, ok := f.attempts[id]
	if !ok || a.Status == payment.AttemptPaid {
		return false, nil
	}
	a.Status = payment.AttemptPaid
	a.VerifiedAt = &verifiedAt
	return true, nil
}

type fakeEventRepo struct {
	types []string
}

func (f *fakeEventRepo) Append(_ context.Context, _, _, eventType string, _ []byte) error {
	f.types = append(f.types, eventType)
	return nil
}

type fakeAuthRepo struct {
	byHash map[string]*auth.User
}

func (f *fakeAuthRepo) FindBySessionHash(_ context.Context, hash string, _ time.Time) (*auth.User, error) {
	u, ok := f.byHash[hash]
	if !ok {
		return nil, errors.New("session not found")
	}
	return u, nil
}

type fakeCardProvider struct {
	err error
}

func (f *fakeCardProvider) Name() string { return payment.ProviderStripe }

func (f *fakeCardProvider) CreateAttempt(_ context.Context, o *order.Order) (*payment.AttemptResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &payment.AttemptResult{
		Provider:    payment.ProviderStripe,
		RedirectURL: "https://checkout.stripe.example/c/" + o.Number,
	}, nil
}

type fakeManualProvider struct{}

func (fakeManualProvider) Name() string { return payment.ProviderSwish }

func (fakeManualProvider) CreateAttempt(_ context.Context, o *order.Order) (*payment.AttemptResult, error) {
	return &payment.AttemptResult{
		Provider: payment.ProviderSwish,
		Manual: &payment.ManualDetails{
			AttemptID:   "a1",
			PayeeNumber: "1234567890",
			Reference:   o.Number,
			AmountCents: o.Totals.TotalCents,
			Currency:    o.Currency,
			QRSVG:       "<svg></svg>",
			Deeplink:    "https://app.swish.nu/1/p/sw/?sw=1234567890",
			GuestToken:  "tok",
			PendingURL:  "https://shop.example/order/" + o.Number + "/pending?token=tok",
		},
	}, nil
}

// --- Fixture ---

type fixture struct {
	handler  http.Handler
	orders   *fakeOrderRepo
	attempts *fakeAttemptRepo
	events   *fakeEventRepo
}

const (
	adminToken = "admin-session-token"
	buyerToken = "buyer-session-token"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &fakeProductRepo{products: []product.Product{
		{ID: "p1", Slug: "te-earl-grey", Title: "Earl Grey", Category: "tea", PriceCents: 8900, Currency: "SEK", Active: true},
		{ID: "p2", Slug: "ljunghonung", Title: "Ljunghonung", Category: "honey", PriceCents: 12500, Currency: "SEK", Active: true},
	}}
	orders := newFakeOrderRepo()
	attempts := newFakeAttemptRepo()
	events := &fakeEventRepo{}

	authRepo := &fakeAuthRepo{byHash: map[string]*auth.User{
		auth.HashToken(adminToken): {ID: "op-1", Email: "admin@tehorna.se", Roles: []string{auth.RoleAdmin}},
		auth.HashToken(buyerToken): {ID: "u-1", Email: "buyer@example.com"},
	}}

	checkoutSvc := checkout.NewService(products, orders, nil, &fakeCardProvider{}, fakeManualProvider{}, "SEK")
	reconcileSvc := reconcile.NewService(orders, attempts, events, notify.LogNotifier{})
	receiptSvc := receipt.NewService(orders)

	h := New(products, orders, checkoutSvc, reconcileSvc, receiptSvc, auth.NewAuthenticator(authRepo), "whsec_test")

	return &fixture{
		handler:  h.Router(),
		orders:   orders,
		attempts: attempts,
		events:   events,
	}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (f *fixture) seedAwaitingOrder(id, number string) *order.Order {
	o := &order.Order{
		ID:           id,
		Number:       number,
		CustomerName: "Astrid Berg",
		Currency:     "SEK",
		Totals:       order.Totals{SubtotalCents: 57000, TotalCents: 57000},
		Method:       order.MethodManual,
		Provider:     payment.ProviderSwish,
		Status:       order.StatusAwaitingPayment,
		CreatedAt:    time.Now(),
	}
	f.orders.orders[id] = o
	return o
}

// --- Products ---

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/products", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]productResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "te-earl-grey", list[0].Slug)
	assert.Equal(t, int64(8900), list[0].PriceCents)
}

// --- Checkout ---

func checkoutBody(method string) map[string]any {
	return map[string]any{
		"items":          []map[string]any{{"product_id": "p1", "quantity": 2}},
		"customer_name":  "Astrid Berg",
		"customer_email": "astrid@example.com",
		"address": map[string]string{
			"street":      "Storgatan 1",
			"city":        "Uppsala",
			"postal_code": "75310",
			"country":     "SE",
		},
		"payment_method": method,
	}
}

func TestPostCheckout_Card(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout", "", checkoutBody("CARD"))

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[cardCheckoutResponse](t, rec)
	assert.Contains(t, resp.URL, "checkout.stripe.example")
	assert.NotEmpty(t, resp.OrderNumber)
}

func TestPostCheckout_Manual(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout", "", checkoutBody("MANUAL"))

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[manualCheckoutResponse](t, rec)
	assert.True(t, resp.OK)
	assert.Equal(t, "1234567890", resp.SwishNumber)
	assert.Equal(t, int64(17800), resp.AmountCents)
	assert.NotEmpty(t, resp.QRSVG)
	assert.True(t, resp.Guest)
	assert.NotEmpty(t, resp.GuestToken)
}

func TestPostCheckout_AuthenticatedBuyer(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout", buyerToken, checkoutBody("CARD"))

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[cardCheckoutResponse](t, rec)
	o, err := f.orders.GetByNumber(context.Background(), resp.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "u-1", o.UserID)
}

func TestPostCheckout_InvalidJSON(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostCheckout_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	body := checkoutBody("CARD")
	body["items"] = []map[string]any{{"product_id": "missing", "quantity": 1}}

	rec := f.do(t, http.MethodPost, "/checkout", "", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPostCheckout_FractionalQuantity(t *testing.T) {
	f := newFixture(t)
	body := checkoutBody("CARD")
	body["items"] = []map[string]any{{"product_id": "p1", "quantity": 1.5}}

	rec := f.do(t, http.MethodPost, "/checkout", "", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Contains(t, resp["error"], "quantity")
}

func TestPostCheckout_BadMethod(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout", "", checkoutBody("CRYPTO"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Stripe webhook ---

func stripeEvent(t *testing.T, eventType, sessionID, orderID string) stripe.Event {
	t.Helper()
	sess := map[string]any{"id": sessionID, "metadata": map[string]string{"order_id": orderID}}
	raw, err := json.Marshal(sess)
	require.NoError(t, err)
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

// newWebhookFixture rebuilds the handler with a stubbed signature check so
// tests can hand events straight to the webhook endpoint.
func newWebhookFixture(t *testing.T, event stripe.Event, verifyErr error) *fixture {
	t.Helper()
	f := newFixture(t)

	products := &fakeProductRepo{}
	checkoutSvc := checkout.NewService(products, f.orders, nil, &fakeCardProvider{}, fakeManualProvider{}, "SEK")
	reconcileSvc := reconcile.NewService(f.orders, f.attempts, f.events, notify.LogNotifier{})
	receiptSvc := receipt.NewService(f.orders)
	authRepo := &fakeAuthRepo{byHash: map[string]*auth.User{}}

	h := New(products, f.orders, checkoutSvc, reconcileSvc, receiptSvc, auth.NewAuthenticator(authRepo), "whsec_test")
	h.verifyWebhook = func(_ []byte, _, _ string) (stripe.Event, error) {
		if verifyErr != nil {
			return stripe.Event{}, verifyErr
		}
		return event, nil
	}
	f.handler = h.Router()
	return f
}

func postWebhook(t *testing.T, f *fixture, signed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewBufferString(`{}`))
	if signed {
		req.Header.Set("Stripe-Signature", "t=1,v1=test")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	f := newWebhookFixture(t, stripe.Event{}, nil)

	rec := postWebhook(t, f, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	f := newWebhookFixture(t, stripe.Event{}, errors.New("signature mismatch"))

	rec := postWebhook(t, f, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhook_SessionCompleted(t *testing.T) {
	event := stripeEvent(t, "checkout.session.completed", "cs_123", "o1")
	f := newWebhookFixture(t, event, nil)
	o := f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")
	o.SessionID = "cs_123"

	rec := postWebhook(t, f, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusPaid, o.Status)
	assert.Equal(t, []string{payment.EventSessionPaid}, f.events.types)
}

func TestStripeWebhook_SessionExpired(t *testing.T) {
	event := stripeEvent(t, "checkout.session.expired", "cs_123", "o1")
	f := newWebhookFixture(t, event, nil)
	o := f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")

	rec := postWebhook(t, f, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusCancelled, o.Status)
}

func TestStripeWebhook_ExpiredAfterPaidIsIgnored(t *testing.T) {
	event := stripeEvent(t, "checkout.session.expired", "cs_123", "o1")
	f := newWebhookFixture(t, event, nil)
	o := f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")
	o.Status = order.StatusPaid

	rec := postWebhook(t, f, true)

	require.Equal(t, http.StatusOK, rec.Code, "acknowledged so the provider stops retrying")
	assert.Equal(t, order.StatusPaid, o.Status)
	assert.Empty(t, f.events.types)
}

func TestStripeWebhook_UnknownOrderAcknowledged(t *testing.T) {
	event := stripeEvent(t, "checkout.session.completed", "cs_unknown", "")
	f := newWebhookFixture(t, event, nil)

	rec := postWebhook(t, f, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStripeWebhook_UnknownEventTypeAcknowledged(t *testing.T) {
	event := stripeEvent(t, "payment_intent.created", "cs_123", "")
	f := newWebhookFixture(t, event, nil)

	rec := postWebhook(t, f, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.events.types)
}

// --- Guest lookup ---

func TestGuestLookup_ValidToken(t *testing.T) {
	f := newFixture(t)
	o := f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")
	raw, hash, err := guesttoken.New()
	require.NoError(t, err)
	expires := time.Now().Add(time.Hour)
	o.TokenHash = hash
	o.TokenExpires = &expires

	rec := f.do(t, http.MethodPost, "/orders/lookup", "", map[string]string{
		"order_number": "TH-20260831-AAAAAA",
		"token":        raw,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, true, resp["ok"])
	ord := resp["order"].(map[string]any)
	assert.Equal(t, "TH-20260831-AAAAAA", ord["order_number"])
	assert.NotContains(t, ord, "token_hash")
}

func TestGuestLookup_WrongToken(t *testing.T) {
	f := newFixture(t)
	o := f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")
	_, hash, err := guesttoken.New()
	require.NoError(t, err)
	expires := time.Now().Add(time.Hour)
	o.TokenHash = hash
	o.TokenExpires = &expires

	rec := f.do(t, http.MethodPost, "/orders/lookup", "", map[string]string{
		"order_number": "TH-20260831-AAAAAA",
		"token":        "wrong",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuestLookup_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/orders/lookup", "", map[string]string{
		"order_number": "TH-20260831-ZZZZZZ",
		"token":        "anything",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuestLookup_MissingFields(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/orders/lookup", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Admin ---

func TestAdmin_RequiresSession(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/orders", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_ListOrders(t *testing.T) {
	f := newFixture(t)
	f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")
	paid := f.seedAwaitingOrder("o2", "TH-20260831-BBBBBB")
	paid.Status = order.StatusPaid

	rec := f.do(t, http.MethodGet, "/admin/orders?status=AWAITING_PAYMENT", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]json.RawMessage](t, rec)
	var ords []adminOrder
	require.NoError(t, json.Unmarshal(resp["orders"], &ords))
	require.Len(t, ords, 1)
	assert.Equal(t, "TH-20260831-AAAAAA", ords[0].Number)
}

func TestAdmin_ListOrders_BadStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/orders?status=SHIPPED", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_GetOrder(t *testing.T) {
	f := newFixture(t)
	f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")

	rec := f.do(t, http.MethodGet, "/admin/orders/o1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/orders/missing", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_VerifySwish(t *testing.T) {
	f := newFixture(t)
	o := f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")
	f.attempts.attempts["a1"] = &payment.Attempt{ID: "a1", OrderID: "o1", Status: payment.AttemptPending}

	rec := f.do(t, http.MethodPost, "/admin/orders/verify-swish", adminToken, verifySwishRequest{AttemptID: "a1", OrderID: "o1"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[verifySwishResponse](t, rec)
	assert.True(t, resp.OK)
	assert.False(t, resp.AlreadyPaid)
	assert.Equal(t, order.StatusPaid, o.Status)

	// Verify again: still OK, flagged as already paid.
	rec = f.do(t, http.MethodPost, "/admin/orders/verify-swish", adminToken, verifySwishRequest{AttemptID: "a1", OrderID: "o1"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[verifySwishResponse](t, rec)
	assert.True(t, resp.AlreadyPaid)
	assert.Len(t, f.events.types, 1)
}

func TestAdmin_VerifySwish_Mismatch(t *testing.T) {
	f := newFixture(t)
	f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")
	f.seedAwaitingOrder("o2", "TH-20260831-BBBBBB")
	f.attempts.attempts["a1"] = &payment.Attempt{ID: "a1", OrderID: "o1", Status: payment.AttemptPending}

	rec := f.do(t, http.MethodPost, "/admin/orders/verify-swish", adminToken, verifySwishRequest{AttemptID: "a1", OrderID: "o2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_PatchStatus(t *testing.T) {
	f := newFixture(t)
	o := f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")
	o.Status = order.StatusPaid

	rec := f.do(t, http.MethodPatch, "/admin/orders/o1/status", adminToken, statusPatchRequest{Status: "REFUNDED"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusRefunded, o.Status)
	assert.Equal(t, []string{payment.EventAdminOverride}, f.events.types)
}

func TestAdmin_PatchStatus_Unknown(t *testing.T) {
	f := newFixture(t)
	f.seedAwaitingOrder("o1", "TH-20260831-AAAAAA")

	rec := f.do(t, http.MethodPatch, "/admin/orders/o1/status", adminToken, statusPatchRequest{Status: "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
