package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/service"
	"github.com/Skotchmaster/online_cinema/internal/transport"
)

type stubGateway struct {
	secret    string
	verifyErr error
}

func (g *stubGateway) ClientSecret(ctx context.Context, externalPaymentID string) (string, error) {
	return g.secret, nil
}

func (g *stubGateway) VerifySignature(payload []byte, header string) error {
	return g.verifyErr
}

type stubNotifier struct {
	mu     sync.Mutex
	events []service.Notification
}

func (n *stubNotifier) PaymentEvent(ctx context.Context, event service.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
	P  *PaymentHTTP
	O  *OrderHTTP
	GW *stubGateway
}

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.Payment{}, &models.PaymentItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := InitTestDB(t)
	r := &repo.GormRepo{DB: db}
	gw := &stubGateway{secret: "mock_client_secret_123"}

	paySvc := &service.PaymentService{Repo: r, Gateway: gw, Notifier: &stubNotifier{}}
	orderSvc := &service.OrderService{Repo: r}

	return &testEnv{
		T:  t,
		E:  echo.New(),
		DB: db,
		P:  &PaymentHTTP{Svc: paySvc},
		O:  &OrderHTTP{Svc: orderSvc},
		GW: gw,
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) doWebhookRequest(body []byte, signature string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Stripe-Signature", signature)

	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func asUser(c echo.Context, id uint) {
	c.Set("userID", id)
	c.Set("role", "user")
}

func asAdmin(c echo.Context, id uint) {
	c.Set("userID", id)
	c.Set("role", "admin")
}

func mustDecimal(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

func (env *testEnv) createOrder(userID uint, prices ...string) *models.Order {
	env.T.Helper()

	req := transport.CreateOrderRequest{}
	for i, p := range prices {
		req.Items = append(req.Items, transport.CreateOrderItem{
			ProductID: uint(i + 1),
			Price:     mustDecimal(env.T, p),
		})
	}

	order, err := env.O.Svc.CreateOrder(context.Background(), req, userID)
	require.NoError(env.T, err)
	return order
}

func (env *testEnv) createPayment(order *models.Order, externalID string) *models.Payment {
	env.T.Helper()

	req := transport.CreatePaymentRequest{
		OrderID:           order.ID,
		Amount:            order.TotalAmount,
		PaymentMethod:     "card",
		ExternalPaymentID: externalID,
	}
	for _, it := range order.Items {
		req.PaymentItems = append(req.PaymentItems, transport.CreatePaymentItem{
			OrderItemID:    it.ID,
			PriceAtPayment: it.PriceAtOrder,
		})
	}

	payment, _, err := env.P.Svc.CreatePayment(context.Background(), req, order.UserID, false)
	require.NoError(env.T, err)
	return payment
}

func httpError(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected *echo.HTTPError, got %v", err)
	return he
}
